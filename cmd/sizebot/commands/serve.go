package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/icfy/sizebot/internal/handlers"
	"github.com/icfy/sizebot/internal/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, log, st, err := initApp()
	if err != nil {
		return err
	}
	defer st.Close()

	log.Info("Starting bundle-size reporting service")

	rep := buildReporter(ctx, cfg, log, st)

	httpHandler := handlers.New(st, rep, log, cfg.Security.WebhookSecret)
	httpServer := server.New(cfg, httpHandler, log)
	if err := httpServer.Start(cfg); err != nil {
		return err
	}

	// Wait for an interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during HTTP server shutdown", err)
		return err
	}

	log.Info("Service stopped")
	return nil
}
