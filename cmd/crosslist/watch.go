package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guarzo/crosslist/internal/market"
)

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		qf       queryFlags
		schedule string
		deadline time.Duration
		now      bool
	)

	cmd := &cobra.Command{
		Use:   "watch <keywords...>",
		Short: "Re-run a search on a schedule and log a market summary",
		Long: `Repeats the same search on a cron schedule until interrupted. Every run is
an independent search; nothing carries over between runs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := qf.query(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			agg := a.aggregator(deadline)
			log := a.logger.With(zap.String("keywords", query.Keywords))

			runOnce := func() {
				resp, err := agg.SearchAllPlatforms(ctx, query, qf.platforms)
				if err != nil {
					log.Error("watch run failed", zap.Error(err))
					return
				}
				log.Info(market.Summary(resp.Intelligence),
					zap.String("search_id", resp.SearchID),
					zap.Strings("failed", resp.FailedPlatforms()))
				fmt.Fprintln(cmd.OutOrStdout(), market.Summary(resp.Intelligence))
			}

			cl := cronLogger{sugar: a.logger.Sugar()}
			c := cron.New(
				cron.WithLogger(cl),
				cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			)
			if _, err := c.AddFunc(schedule, runOnce); err != nil {
				return fmt.Errorf("invalid --schedule %q: %w", schedule, err)
			}

			if now {
				runOnce()
			}

			c.Start()
			log.Info("watching", zap.String("schedule", schedule))
			<-ctx.Done()

			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-time.After(30 * time.Second):
			}
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "@every 15m", "cron spec or @every interval")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "per-run search deadline (default: configured)")
	cmd.Flags().BoolVar(&now, "now", true, "run once immediately before waiting for the schedule")
	return cmd
}
