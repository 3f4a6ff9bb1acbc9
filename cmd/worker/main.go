package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/log/global"

	"pod-tracker/internal/app"
	"pod-tracker/internal/config"
	"pod-tracker/internal/logging"
	"pod-tracker/internal/telemetry"
	"pod-tracker/internal/worker"
	"pod-tracker/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		logging.New(nil, "worker", "info").Fatal("invalid configuration", "err", err)
	}
	logger := logging.New(nil, "worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
		ServiceName:  "pod-tracker-worker",
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
		_ = shutdownTelemetry(flushCtx)
	}()

	store, err := app.OpenStore(ctx, cfg, false)
	if err != nil {
		logger.Fatal("could not open database", "err", err)
	}
	defer store.Close()

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			// Exponential backoff: 1min, 2min, 4min, ... capped at 6h.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Minute
				maxDelay := 6 * time.Hour
				for i := 0; i < n; i++ {
					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
						break
					}
				}
				logger.Warn("task failed, retrying", "type", task.Type(), "attempt", n+1, "delay", delay, "err", err)
				return delay
			},
			Logger: logging.Asynq(logger.WithPrefix("asynq")),
		},
	)

	cat := app.NewCatalog(store, nil, cfg.SyncBatchSize, logger)
	taskHandler := worker.NewTaskHandler(client, cat.Orchestrator, store, logger)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSyncPodcast, taskHandler.HandleSyncPodcastTask)
	mux.HandleFunc(tasks.TypeSyncAllPodcasts, taskHandler.HandleSyncAllPodcastsTask)

	logger.Info("worker starting", "commit", CommitSHA)
	if err := srv.Start(mux); err != nil {
		logger.Error("could not run worker", "err", err)
		os.Exit(1)
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info("worker stopped")
}
