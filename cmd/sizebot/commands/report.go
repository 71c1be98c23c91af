package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "report <sha>",
		Short: "Run one comment synchronization pass for a push",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout for the pass")

	return cmd
}

func runReport(sha string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, log, st, err := initApp()
	if err != nil {
		return err
	}
	defer st.Close()

	rep := buildReporter(ctx, cfg, log, st)
	return rep.ReportOnPush(ctx, sha)
}
