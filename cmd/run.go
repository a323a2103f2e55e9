package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/jellyrequest/jellyseerr"
	"github.com/s0up4200/jellyrequest/metrics"
	"github.com/s0up4200/jellyrequest/scheduler"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled request loop",
	Long: `Run immediately and then every schedule.interval_days days until interrupted.
Failed runs are logged and retried at the next interval.`,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := newJellyseerrClient()
	if err != nil {
		return err
	}

	// A bad key or an unreachable service is reported but does not stop the loop
	if err := client.TestConnection(ctx); err != nil {
		if jellyseerr.IsAuthError(err) {
			logger.Error().Err(err).Msg("Jellyseerr rejected the API key, runs will fail until it is fixed")
		} else {
			logger.Warn().Err(err).Msg("Jellyseerr is not reachable yet")
		}
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.ListenAddr != "" {
		recorder = metrics.New()
	}

	r, err := newRunner(client, recorder)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(cfg.Schedule.Interval(), func(ctx context.Context) error {
		_, err := r.RunOnce(ctx)
		return err
	}, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	if recorder != nil {
		g.Go(func() error {
			return recorder.Serve(gctx, cfg.Metrics.ListenAddr, logger)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
