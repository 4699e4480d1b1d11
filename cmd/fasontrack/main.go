package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fasontrack/fasontrack/internal/app"
	"github.com/fasontrack/fasontrack/internal/observability"
	"github.com/fasontrack/fasontrack/internal/platform/cache"
	"github.com/fasontrack/fasontrack/internal/platform/db"
	"github.com/fasontrack/fasontrack/internal/shared"
	"github.com/fasontrack/fasontrack/internal/stats"
	"github.com/fasontrack/fasontrack/internal/trackers"
	"github.com/fasontrack/fasontrack/internal/tracking"
	"github.com/fasontrack/fasontrack/internal/workorders"
	"github.com/fasontrack/fasontrack/internal/workshops"
	"github.com/fasontrack/fasontrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Degrade to uncached listings rather than refusing to start.
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	idempotencyStore := shared.NewIdempotencyStore(pool)
	auth := &shared.Authenticator{Logger: logger}

	trackersRepo := trackers.NewRepository(pool)
	trackersService := trackers.NewService(trackersRepo)
	trackersHandler := trackers.NewHandler(logger, trackersService)

	workshopsRepo := workshops.NewRepository(pool)
	workshopsService := workshops.NewService(workshopsRepo, logger)
	workshopsHandler := workshops.NewHandler(logger, workshopsService)

	listCache := workorders.NewCache(redisClient, cfg.CacheTTL)
	workOrdersRepo := workorders.NewRepository(pool)
	workOrdersService := workorders.NewService(workOrdersRepo, listCache, trackersService, logger)
	workOrdersHandler := workorders.NewHandler(logger, workOrdersService, auth.Middleware)

	trackingRepo := tracking.NewRepository(pool)
	trackingService := tracking.NewService(trackingRepo, workshopsService, listCache, idempotencyStore, metrics, logger)
	trackingHandler := tracking.NewHandler(logger, trackingService)

	statsRepo := stats.NewRepository(pool)
	statsService := stats.NewService(statsRepo, metrics, logger)
	statsHandler := stats.NewHandler(logger, statsService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("init job client", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		if _, err := jobClient.EnqueueDelayScan(ctx, time.Now().UTC()); err != nil {
			logger.Warn("enqueue delay scan", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Config:            cfg,
		Auth:              auth,
		WorkOrdersHandler: workOrdersHandler,
		TrackingHandler:   trackingHandler,
		WorkshopsHandler:  workshopsHandler,
		TrackersHandler:   trackersHandler,
		StatsHandler:      statsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
