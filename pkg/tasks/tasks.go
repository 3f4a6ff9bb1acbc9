// Package tasks defines the background jobs shared by the server, worker and
// scheduler.
package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskEnqueuer is satisfied by *asynq.Client and by test doubles.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const (
	TypeSyncPodcast     = "podcast:sync"
	TypeSyncAllPodcasts = "podcasts:sync_all"
)

type SyncPodcastTaskPayload struct {
	PodcastID string
	UserID    int64
}

func NewSyncPodcastTask(podcastID string, userID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncPodcastTaskPayload{PodcastID: podcastID, UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSyncPodcast, payload), nil
}

func NewSyncAllPodcastsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSyncAllPodcasts, nil), nil
}
