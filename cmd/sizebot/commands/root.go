// Package commands implements the sizebot CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icfy/sizebot/internal/config"
	"github.com/icfy/sizebot/internal/github"
	"github.com/icfy/sizebot/internal/logger"
	"github.com/icfy/sizebot/internal/reporter"
	"github.com/icfy/sizebot/internal/store"
)

// NewRootCommand builds the sizebot command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sizebot",
		Short:         "Bundle-size delta reporting service",
		Long:          "sizebot tracks how code changes affect the size of shipped bundle chunks and keeps one up-to-date report comment per pull request.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newReportCommand())

	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

// initApp loads configuration and builds the shared service dependencies.
func initApp() (*config.Config, *logger.Logger, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	st, err := store.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	return cfg, log, st, nil
}

// buildReporter wires the comment synchronizer to its collaborators.
func buildReporter(ctx context.Context, cfg *config.Config, log *logger.Logger, st *store.Store) *reporter.Reporter {
	comments := github.NewCommentStore(ctx, cfg.GitHub.Token)
	return reporter.New(
		cfg.GitHub,
		cfg.Report,
		st,
		st,
		comments,
		reporter.MessagePRResolver{},
		log,
	)
}
