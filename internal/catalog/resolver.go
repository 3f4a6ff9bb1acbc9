package catalog

import (
	"context"

	"github.com/charmbracelet/log"

	"pod-tracker/internal/models"
)

// Resolver looks up the stored episode sharing a natural key.
type Resolver struct {
	store Store
	log   *log.Logger
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store, logger *log.Logger) *Resolver {
	return &Resolver{store: store, log: logger}
}

// FindExisting returns the episode of podcastID carrying naturalKey, or nil.
//
// Lookup failures are logged and reported as nil: the caller then creates a
// new episode instead of failing the sync. When several episodes share the key
// the one created first wins, ties broken by the smaller episode id.
func (r *Resolver) FindExisting(ctx context.Context, podcastID, naturalKey string) *models.Episode {
	matches, err := r.store.QueryByNaturalKey(ctx, podcastID, naturalKey)
	if err != nil {
		r.log.Warn("natural key lookup failed, treating as new", "podcast", podcastID, "key", naturalKey, "err", err)
		return nil
	}
	if len(matches) == 0 {
		return nil
	}
	if len(matches) > 1 {
		r.log.Warn("duplicate natural key in catalog", "podcast", podcastID, "key", naturalKey, "count", len(matches))
	}

	best := matches[0]
	for _, ep := range matches[1:] {
		if ep.CreatedAt.Before(best.CreatedAt) ||
			(ep.CreatedAt.Equal(best.CreatedAt) && ep.EpisodeID < best.EpisodeID) {
			best = ep
		}
	}
	return &best
}
