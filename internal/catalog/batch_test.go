package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pod-tracker/internal/models"
)

func newTestBatcher(store Store, batchSize int) *Batcher {
	logger := quietLogger()
	upserter := NewUpserter(store, WithClock(stepClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	return NewBatcher(store, NewResolver(store, logger), upserter, batchSize, logger)
}

func numberedDrafts(n int) []models.EpisodeDraft {
	drafts := make([]models.EpisodeDraft, n)
	for i := range drafts {
		drafts[i] = models.EpisodeDraft{
			Title:       fmt.Sprintf("Episode %d", i+1),
			AudioURL:    fmt.Sprintf("https://x/%d.mp3", i+1),
			ReleaseDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format(time.RFC3339),
		}
	}
	return drafts
}

type countingStore struct {
	*MemoryStore
	calls int
}

func (s *countingStore) QueryByNaturalKey(ctx context.Context, podcastID, key string) ([]models.Episode, error) {
	s.calls++
	return s.MemoryStore.QueryByNaturalKey(ctx, podcastID, key)
}

func (s *countingStore) BatchPutEpisodes(ctx context.Context, eps []models.Episode) ([]BatchFailure, error) {
	s.calls++
	return s.MemoryStore.BatchPutEpisodes(ctx, eps)
}

func TestBatcherEmptyInputSkipsStore(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	b := newTestBatcher(store, 0)

	assert.Empty(t, b.SyncDrafts(context.Background(), "P1", nil))
	assert.Empty(t, b.SyncDrafts(context.Background(), "P1", []models.EpisodeDraft{}))
	assert.Zero(t, store.calls)
}

func TestBatcherTwoChunksForThirtyDrafts(t *testing.T) {
	store := NewMemoryStore()
	b := newTestBatcher(store, 25)

	saved := b.SyncDrafts(context.Background(), "P1", numberedDrafts(30))

	assert.Len(t, saved, 30)
	assert.Equal(t, 2, store.BatchWrites())
	assert.Equal(t, 30, store.Count("P1"))
}

func TestBatcherIsolatesFailedItem(t *testing.T) {
	store := NewMemoryStore()
	store.WriteHook = func(ep models.Episode) error {
		if ep.Title == "Episode 3" {
			return errors.New("forced failure")
		}
		return nil
	}
	b := newTestBatcher(store, 25)

	saved := b.SyncDrafts(context.Background(), "P1", numberedDrafts(5))

	require.Len(t, saved, 4)
	for _, ep := range saved {
		assert.NotEqual(t, "Episode 3", ep.Title)
	}
	assert.Equal(t, 4, store.Count("P1"))
}

func TestBatcherFailedBatchDoesNotStopLaterChunks(t *testing.T) {
	store := NewMemoryStore()
	store.SetMaxBatchSize(2)
	b := newTestBatcher(store, 3) // every chunk is rejected as too large except the last

	saved := b.SyncDrafts(context.Background(), "P1", numberedDrafts(5))

	assert.Len(t, saved, 2)
	assert.Equal(t, 2, store.Count("P1"))
}

func TestBatcherFiltersDraftsWithoutAudio(t *testing.T) {
	store := NewMemoryStore()
	b := newTestBatcher(store, 25)
	drafts := numberedDrafts(3)
	drafts[1].AudioURL = "  "

	saved := b.SyncDrafts(context.Background(), "P1", drafts)

	assert.Len(t, saved, 2)
	assert.Equal(t, 2, store.Count("P1"))
}

func TestBatcherResyncReusesEpisodeIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	b := newTestBatcher(store, 25)
	draft := models.EpisodeDraft{Title: "Ep 1", ReleaseDate: "2023-10-15T12:00:00Z", AudioURL: "https://x/a.mp3", Duration: "30:00"}

	first := b.SyncDrafts(ctx, "P1", []models.EpisodeDraft{draft})
	second := b.SyncDrafts(ctx, "P1", []models.EpisodeDraft{draft})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].EpisodeID, second[0].EpisodeID)
	assert.Equal(t, first[0].CreatedAt, second[0].CreatedAt)
	assert.True(t, second[0].UpdatedAt.After(second[0].CreatedAt))
	assert.Equal(t, 1, store.Count("P1"))
}

func TestBatcherCollapsesDuplicatesWithinChunk(t *testing.T) {
	store := NewMemoryStore()
	b := newTestBatcher(store, 25)
	drafts := []models.EpisodeDraft{
		{Title: "Ep 1", ReleaseDate: "2023-10-15", AudioURL: "https://cdn-a/a.mp3", Guests: []string{"A"}},
		{Title: "EP 1 ", ReleaseDate: "2023-10-15", AudioURL: "https://cdn-b/a.mp3"},
	}

	saved := b.SyncDrafts(context.Background(), "P1", drafts)

	require.Len(t, saved, 1)
	assert.Equal(t, "https://cdn-b/a.mp3", saved[0].AudioURL)
	assert.Equal(t, []string{"A"}, saved[0].Guests)
	assert.Equal(t, 1, store.Count("P1"))
}

func TestBatcherDuplicatesAcrossChunks(t *testing.T) {
	store := NewMemoryStore()
	b := newTestBatcher(store, 2)
	drafts := numberedDrafts(3)
	drafts = append(drafts, drafts[0])

	saved := b.SyncDrafts(context.Background(), "P1", drafts)

	require.Len(t, saved, 4)
	assert.Equal(t, saved[0].EpisodeID, saved[3].EpisodeID)
	assert.Equal(t, 3, store.Count("P1"))
}

func TestBatcherStopsOnCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	b := newTestBatcher(store, 25)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, b.SyncDrafts(ctx, "P1", numberedDrafts(3)))
	assert.Zero(t, store.BatchWrites())
}
