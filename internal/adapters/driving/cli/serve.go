package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-integrity/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled integrity checks, repairs and trash reaping",
	Long: `Runs the background scheduler until interrupted. The integrity check,
auto-repair and trash reap run at their configured intervals.

When metrics.addr is set, Prometheus metrics are served on /metrics.
The configuration file is watched and reloaded when it changes; backend
changes take effect on the next start.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	g, ctx := errgroup.WithContext(commandContext(cmd))

	g.Go(func() error {
		err := scheduler.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if metricsServer != nil && metricsAddr != "" {
		g.Go(func() error {
			return metricsServer.Serve(ctx, metricsAddr)
		})
		cmd.Printf("Metrics on http://%s/metrics\n", metricsAddr)
	}

	if configWatcher != nil {
		g.Go(func() error {
			return configWatcher.Watch(ctx, func(err error) {
				if err != nil {
					logger.Warn("config reload failed: %v", err)
					return
				}
				if settingsService != nil {
					if err := settingsService.Reload(); err != nil {
						logger.Warn("settings reload failed: %v", err)
						return
					}
				}
				logger.Info("configuration reloaded")
			})
		})
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err := g.Wait()
	if stopErr := scheduler.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
