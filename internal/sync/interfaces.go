package sync

import (
	"context"

	"pod-tracker/internal/models"
)

// FeedParser turns a feed URL into episode drafts.
// Implemented by [feed.Parser].
type FeedParser interface {
	ParseDrafts(ctx context.Context, feedURL string) ([]models.EpisodeDraft, error)
}

// PodcastOwners lists the podcasts a user owns.
// Implemented by [db.Store].
type PodcastOwners interface {
	GetPodcastsOwnedBy(ctx context.Context, userID int64) ([]models.Podcast, error)
}
