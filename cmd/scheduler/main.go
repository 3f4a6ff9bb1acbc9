package main

import (
	"github.com/hibiken/asynq"

	"pod-tracker/internal/config"
	"pod-tracker/internal/logging"
	"pod-tracker/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		logging.New(nil, "scheduler", "info").Fatal("invalid configuration", "err", err)
	}
	logger := logging.New(nil, "scheduler", cfg.LogLevel)

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{Logger: logging.Asynq(logger.WithPrefix("asynq"))},
	)

	task, err := tasks.NewSyncAllPodcastsTask()
	if err != nil {
		logger.Fatal("could not create task", "err", err)
	}

	if _, err := scheduler.Register(cfg.SyncSchedule, task); err != nil {
		logger.Fatal("could not register task", "schedule", cfg.SyncSchedule, "err", err)
	}

	logger.Info("scheduler starting", "schedule", cfg.SyncSchedule, "commit", CommitSHA)
	if err := scheduler.Run(); err != nil {
		logger.Fatal("could not run scheduler", "err", err)
	}
}
