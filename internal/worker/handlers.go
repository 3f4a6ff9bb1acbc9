package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hibiken/asynq"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/models"
	"pod-tracker/pkg/tasks"
)

// Syncer refreshes one podcast from its feed.
// Implemented by [sync.Orchestrator].
type Syncer interface {
	Sync(ctx context.Context, podcastID string, userID int64) (models.SyncReport, error)
}

// PodcastLister returns every podcast in the system.
type PodcastLister interface {
	GetAllPodcasts(ctx context.Context) ([]models.Podcast, error)
}

type TaskHandler struct {
	asynqClient tasks.TaskEnqueuer
	syncer      Syncer
	podcasts    PodcastLister
	log         *log.Logger
}

func NewTaskHandler(client tasks.TaskEnqueuer, syncer Syncer, podcasts PodcastLister, logger *log.Logger) *TaskHandler {
	return &TaskHandler{asynqClient: client, syncer: syncer, podcasts: podcasts, log: logger}
}

// HandleSyncPodcastTask syncs the podcast named in the payload. Failures that a
// retry cannot fix are marked with asynq.SkipRetry.
func (h *TaskHandler) HandleSyncPodcastTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.SyncPodcastTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	h.log.Info("syncing podcast", "podcast", p.PodcastID, "user", p.UserID)
	report, err := h.syncer.Sync(ctx, p.PodcastID, p.UserID)
	if err != nil {
		switch catalog.KindOf(err) {
		case catalog.KindFeedParse, catalog.KindNotFound, catalog.KindValidation:
			h.log.Warn("podcast sync rejected", "podcast", p.PodcastID, "err", err)
			return fmt.Errorf("failed to sync podcast %s: %w: %w", p.PodcastID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to sync podcast %s: %w", p.PodcastID, err)
	}

	h.log.Info(report.Message,
		"podcast", p.PodcastID,
		"new", report.NewEpisodes,
		"updated", report.UpdatedEpisodes,
		"total", report.TotalEpisodes,
	)
	return nil
}

// HandleSyncAllPodcastsTask fans out one sync task per podcast.
func (h *TaskHandler) HandleSyncAllPodcastsTask(ctx context.Context, t *asynq.Task) error {
	podcasts, err := h.podcasts.GetAllPodcasts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get all podcasts: %w", err)
	}

	enqueued := 0
	for _, p := range podcasts {
		task, err := tasks.NewSyncPodcastTask(p.ID, p.UserID)
		if err != nil {
			h.log.Error("failed to create sync task", "podcast", p.ID, "err", err)
			continue
		}
		if _, err := h.asynqClient.Enqueue(task); err != nil {
			h.log.Error("failed to enqueue sync task", "podcast", p.ID, "err", err)
			continue
		}
		enqueued++
	}

	h.log.Info("scheduled podcast syncs", "podcasts", len(podcasts), "enqueued", enqueued)
	return nil
}
