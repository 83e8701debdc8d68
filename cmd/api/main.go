// Command api serves the editor backend: connected WordPress sites, post
// authoring and the aggregated stock-image search.
package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"wpdesk/internal/config"
	"wpdesk/internal/infra/db"
	"wpdesk/internal/observability/logging"
	"wpdesk/internal/observability/tracing"
	pkgconfig "wpdesk/internal/pkg/config"
)

func main() {
	envErr := godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("failed to load .env file", slog.Any("error", envErr))
	}

	if len(os.Args) > 1 && os.Args[1] == "issue-token" {
		os.Exit(issueToken(os.Args[2:], os.Stdout, os.Stderr))
	}

	cfg, err := config.Load(pkgconfig.NewMetrics("wpdesk", prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	for _, w := range cfg.Warnings {
		logger.Warn("configuration fallback applied", slog.String("detail", w))
	}

	shutdownTracing := tracing.Setup(cfg.Server.Version, nil)

	ctx := context.Background()
	database := initDatabase(ctx, logger, cfg.Database.URL)
	defer func() {
		if err := database.db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	app, err := build(logger, cfg, database)
	if err != nil {
		logger.Error("failed to assemble server", slog.Any("error", err))
		os.Exit(1)
	}

	runServer(logger, cfg, app)

	tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(tctx); err != nil {
		logger.Warn("tracer shutdown failed", slog.Any("error", err))
	}
}

type store struct {
	db      *sql.DB
	dialect db.Dialect
}

// initDatabase opens the site store and applies its schema.
func initDatabase(ctx context.Context, logger *slog.Logger, dsn string) store {
	database, dialect, err := db.Open(ctx, dsn)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database, dialect); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return store{db: database, dialect: dialect}
}

// runServer serves until SIGINT or SIGTERM, then drains in-flight requests,
// stops the cron jobs and closes the provider queues.
func runServer(logger *slog.Logger, cfg *config.Config, app *application) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, q := range app.queues {
		q.Start(ctx)
	}
	scheduler, err := startJobs(ctx, logger, cfg.Jobs, app)
	if err != nil {
		logger.Error("failed to schedule background jobs", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Server.Addr),
			slog.String("version", cfg.Server.Version),
			slog.Any("providers", app.providers),
			slog.Bool("auth", cfg.Auth.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	<-scheduler.Stop().Done()
	for _, q := range app.queues {
		if err := q.Close(shutdownCtx); err != nil {
			logger.Warn("provider queue did not drain",
				slog.String("provider", q.Name()),
				slog.Any("error", err))
		}
	}
	cancel()
	logger.Info("server stopped")
}
