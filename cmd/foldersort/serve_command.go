package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"foldersort/internal/api"
	"foldersort/internal/history"
	"foldersort/internal/logging"
	"foldersort/internal/preflight"
	"foldersort/internal/workflow"
)

const staleSweepInterval = time.Hour

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive upload API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Paths.APIBind = bind
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "foldersort*.log", cfg.Logging.RetentionDays)

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			for _, r := range preflight.RunAll(signalCtx, cfg) {
				if !r.Passed {
					logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
						logging.String("check", r.Name),
						logging.String("detail", r.Detail),
						logging.String(logging.FieldImpact, "related features may fail until fixed"),
					)
				}
			}

			return ctx.withRunner(func(runner *workflow.Runner, store *history.Store) error {
				server := api.NewServer(cfg, runner, store, logger)
				if err := server.Start(signalCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())

				sweepStaleJobs(signalCtx, runner, logger)

				<-signalCtx.Done()
				server.Stop()
				logger.Info("foldersort server shutting down")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the configured API bind address")
	return cmd
}

// sweepStaleJobs removes abandoned job directories now and then on every
// interval until ctx ends.
func sweepStaleJobs(ctx context.Context, runner *workflow.Runner, logger *slog.Logger) {
	sweep := func() {
		result := runner.CleanStaleJobs(ctx)
		if len(result.Removed) > 0 {
			logger.Info("stale jobs removed", logging.Int("count", len(result.Removed)))
		}
	}
	sweep()
	go func() {
		ticker := time.NewTicker(staleSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
}
