package catalog

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"pod-tracker/internal/models"
)

// Batcher merges a list of drafts into a podcast's catalog chunk by chunk.
type Batcher struct {
	store     Store
	resolver  *Resolver
	upserter  *Upserter
	batchSize int
	log       *log.Logger
}

// NewBatcher creates a Batcher writing chunks of at most batchSize episodes.
// A non-positive batchSize selects DefaultBatchSize.
func NewBatcher(store Store, resolver *Resolver, upserter *Upserter, batchSize int, logger *log.Logger) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Batcher{
		store:     store,
		resolver:  resolver,
		upserter:  upserter,
		batchSize: batchSize,
		log:       logger,
	}
}

// SyncDrafts upserts drafts into podcastID's catalog and returns the episodes
// that were persisted.
//
// Drafts without an audio URL are dropped. The rest are processed in input
// order, one batch write per chunk. A draft whose lookup, merge or write fails
// is logged and skipped; it never aborts the remaining drafts. Drafts that
// share a natural key inside one chunk collapse into a single episode.
func (b *Batcher) SyncDrafts(ctx context.Context, podcastID string, drafts []models.EpisodeDraft) []models.Episode {
	if len(drafts) == 0 {
		return nil
	}

	eligible := make([]models.EpisodeDraft, 0, len(drafts))
	for _, d := range drafts {
		if strings.TrimSpace(d.AudioURL) == "" {
			b.log.Debug("skipping draft without audio", "podcast", podcastID, "title", d.Title)
			continue
		}
		eligible = append(eligible, d)
	}

	var saved []models.Episode
	for start := 0; start < len(eligible); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			b.log.Warn("sync interrupted", "podcast", podcastID, "processed", start, "err", err)
			break
		}
		end := min(start+b.batchSize, len(eligible))
		saved = append(saved, b.syncChunk(ctx, podcastID, eligible[start:end])...)
	}
	return saved
}

func (b *Batcher) syncChunk(ctx context.Context, podcastID string, chunk []models.EpisodeDraft) []models.Episode {
	pending := make([]models.Episode, 0, len(chunk))
	byKey := make(map[string]int, len(chunk))

	for _, draft := range chunk {
		key := Fingerprint(draft)
		if i, ok := byKey[key]; ok {
			pending[i] = b.upserter.Build(podcastID, draft, key, &pending[i])
			continue
		}
		existing := b.resolver.FindExisting(ctx, podcastID, key)
		byKey[key] = len(pending)
		pending = append(pending, b.upserter.Build(podcastID, draft, key, existing))
	}
	if len(pending) == 0 {
		return nil
	}

	failures, err := b.store.BatchPutEpisodes(ctx, pending)
	if err != nil {
		b.log.Error("batch write failed", "podcast", podcastID, "size", len(pending), "err", err)
		return nil
	}

	failed := make(map[int]bool, len(failures))
	for _, f := range failures {
		failed[f.Index] = true
		if f.Index >= 0 && f.Index < len(pending) {
			b.log.Error("episode write failed, skipping", "podcast", podcastID, "title", pending[f.Index].Title, "err", f.Err)
		}
	}

	saved := make([]models.Episode, 0, len(pending)-len(failed))
	for i, ep := range pending {
		if !failed[i] {
			saved = append(saved, ep)
		}
	}
	return saved
}
