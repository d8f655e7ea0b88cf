package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Karthick9298/hostel-flavour/internal/adapter/httpserver"
	"github.com/Karthick9298/hostel-flavour/internal/adapter/metrics"
	"github.com/Karthick9298/hostel-flavour/internal/adapter/postgres"
	"github.com/Karthick9298/hostel-flavour/internal/adapter/redis"
	"github.com/Karthick9298/hostel-flavour/internal/app"
	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/delegate"
	"github.com/Karthick9298/hostel-flavour/internal/platform/config"
	"github.com/Karthick9298/hostel-flavour/internal/platform/logging"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, tracer pgx.QueryTracer) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	feedbackMetrics := metrics.NewFeedbackMetrics(registry)
	analysisMetrics := metrics.NewAnalysisMetrics(registry)
	dbMetrics := metrics.NewDBMetrics(registry)

	pool := setupDB(cfg, postgres.NewMetricsTracer(dbMetrics))
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	records := postgres.NewFeedbackRepo(pool)
	reportCache := redis.NewReportCache(redisClient)
	clock := civilday.NewClock(clockwork.NewRealClock())

	// Pass nil explicitly to avoid a typed-nil interface when the delegate
	// is not configured.
	var bridge app.AnalysisDelegate
	if cfg.AnalysisScriptsDir != "" {
		bridge = delegate.New(cfg.AnalysisInterpreter, cfg.AnalysisScriptsDir, slog.Default())
		slog.Info("Analysis delegate enabled", "interpreter", cfg.AnalysisInterpreter, "scripts_dir", cfg.AnalysisScriptsDir)
	} else {
		slog.Info("Analysis delegate disabled, using internal aggregation")
	}

	svc := app.NewService(records, reportCache, bridge, clock, app.Options{
		CacheTTL:       cfg.ReportCacheTTL,
		TotalResidents: cfg.TotalResidents,
		Feedback:       feedbackMetrics,
		Analysis:       analysisMetrics,
	})

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv := httpserver.NewServer(cfg, svc, clock, metrics.Handler(registry),
		[]echo.MiddlewareFunc{httpMetrics.Middleware()}, healthChecks)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
