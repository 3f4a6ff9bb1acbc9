package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/log/global"
	"golang.org/x/time/rate"

	"pod-tracker/internal/app"
	"pod-tracker/internal/config"
	"pod-tracker/internal/handlers"
	"pod-tracker/internal/logging"
	"pod-tracker/internal/middleware"
	"pod-tracker/internal/telemetry"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		logging.New(nil, "server", "info").Fatal("invalid configuration", "err", err)
	}
	logger := logging.New(nil, "server", cfg.LogLevel)
	if !envLoaded {
		logger.Debug("no .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
		ServiceName:  "pod-tracker-server",
		Version:      CommitSHA,
	})
	if err != nil {
		logger.Warn("telemetry disabled", "err", err)
	} else if cfg.OTLPEndpoint != "" {
		logging.Export(logger, os.Stderr, global.GetLoggerProvider())
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", "err", err)
		}
	}()

	store, err := app.OpenStore(ctx, cfg, true)
	if err != nil {
		logger.Fatal("could not open database", "err", err)
	}
	defer store.Close()

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	cat := app.NewCatalog(store, nil, cfg.SyncBatchSize, logger)
	h := handlers.New(handlers.Deps{
		Podcasts:    store,
		Episodes:    store,
		Reader:      cat.Reader,
		Syncer:      cat.Orchestrator,
		AsynqClient: client,
		Logger:      logger,
		BaseURL:     cfg.BaseURL,
		MaxPodcasts: cfg.MaxPodcasts,
	})
	auth := middleware.NewAuth(cfg.TelegramBotToken, store, logger.WithPrefix("auth"))
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(cfg.SyncRateLimit), cfg.SyncRateBurst, logger.WithPrefix("ratelimit"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(auth.Middleware, limiter.Middleware),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "err", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "commit", CommitSHA)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
