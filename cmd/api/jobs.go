package main

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"wpdesk/internal/config"
	"wpdesk/internal/observability/metrics"
)

// startJobs schedules the limiter cleanup and the gauge refresh.
func startJobs(ctx context.Context, logger *slog.Logger, jobs config.Jobs, app *application) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if _, err := c.AddFunc(jobs.LimiterCleanup, func() {
		if err := app.limiter.Cleanup(ctx); err != nil {
			logger.Warn("admission limiter cleanup failed", slog.Any("error", err))
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(jobs.MetricsRefresh, func() {
		metrics.RecordDBStats(app.db.db.Stats())
		app.sites.RefreshMetrics(ctx)
		for _, q := range app.queues {
			metrics.SetQueueDepth(q.Name(), q.Len())
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("background jobs scheduled",
		slog.String("limiter_cleanup", jobs.LimiterCleanup),
		slog.String("metrics_refresh", jobs.MetricsRefresh))
	return c, nil
}
