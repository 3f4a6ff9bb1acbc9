package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/models"
	"pod-tracker/internal/test"
)

type fakeParser struct {
	drafts []models.EpisodeDraft
	err    error
	urls   []string
}

func (p *fakeParser) ParseDrafts(_ context.Context, feedURL string) ([]models.EpisodeDraft, error) {
	p.urls = append(p.urls, feedURL)
	return p.drafts, p.err
}

type fakeOwners struct {
	podcasts map[int64][]models.Podcast
	err      error
}

func (o *fakeOwners) GetPodcastsOwnedBy(_ context.Context, userID int64) ([]models.Podcast, error) {
	return o.podcasts[userID], o.err
}

func newOrchestrator(store *catalog.MemoryStore, parser FeedParser) *Orchestrator {
	logger := test.Logger()
	owners := &fakeOwners{podcasts: map[int64][]models.Podcast{
		42: {{ID: "P1", UserID: 42, Title: "Show", FeedURL: "https://feeds.example.com/show.xml"}},
	}}
	upserter := catalog.NewUpserter(store)
	batcher := catalog.NewBatcher(store, catalog.NewResolver(store, logger), upserter, catalog.DefaultBatchSize, logger)
	return NewOrchestrator(owners, parser, catalog.NewReader(store, logger), batcher, logger)
}

func drafts(n int) []models.EpisodeDraft {
	out := make([]models.EpisodeDraft, n)
	for i := range out {
		out[i] = models.EpisodeDraft{
			Title:       fmt.Sprintf("Episode %d", i+1),
			AudioURL:    fmt.Sprintf("https://x/%d.mp3", i+1),
			ReleaseDate: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format(time.RFC3339),
			Duration:    "30:00",
		}
	}
	return out
}

func TestSyncEmptyFeed(t *testing.T) {
	store := catalog.NewMemoryStore()
	o := newOrchestrator(store, &fakeParser{})

	report, err := o.Sync(context.Background(), "P1", 42)
	require.NoError(t, err)

	assert.Equal(t, "No episodes found in feed", report.Message)
	assert.Zero(t, report.NewEpisodes)
	assert.Zero(t, report.UpdatedEpisodes)
	assert.Zero(t, report.TotalProcessed)
	assert.Zero(t, report.DuplicatesFound)
	assert.Empty(t, report.Episodes)
	assert.Zero(t, store.BatchWrites())
}

func TestSyncNewThenUpdated(t *testing.T) {
	store := catalog.NewMemoryStore()
	parser := &fakeParser{drafts: drafts(12)}
	o := newOrchestrator(store, parser)

	first, err := o.Sync(context.Background(), "P1", 42)
	require.NoError(t, err)
	assert.Equal(t, "Synced 12 episodes", first.Message)
	assert.Equal(t, 12, first.TotalEpisodes)
	assert.Equal(t, 12, first.NewEpisodes)
	assert.Zero(t, first.UpdatedEpisodes)
	assert.Zero(t, first.DuplicatesFound)
	assert.Equal(t, 12, first.TotalProcessed)
	assert.Len(t, first.Episodes, PreviewSize)
	assert.Equal(t, []string{"https://feeds.example.com/show.xml"}, parser.urls)

	second, err := o.Sync(context.Background(), "P1", 42)
	require.NoError(t, err)
	assert.Equal(t, 12, second.TotalEpisodes)
	assert.Zero(t, second.NewEpisodes)
	assert.Equal(t, 12, second.UpdatedEpisodes)
	assert.Equal(t, 12, store.Count("P1"))
}

func TestSyncCountsSkippedDraftsAsDuplicates(t *testing.T) {
	store := catalog.NewMemoryStore()
	feed := drafts(3)
	feed = append(feed, feed[0])                              // same natural key
	feed = append(feed, models.EpisodeDraft{Title: "Trailer"}) // no audio
	o := newOrchestrator(store, &fakeParser{drafts: feed})

	report, err := o.Sync(context.Background(), "P1", 42)
	require.NoError(t, err)
	assert.Equal(t, 5, report.TotalProcessed)
	assert.Equal(t, 3, report.NewEpisodes)
	assert.Equal(t, 3, report.TotalEpisodes)
	assert.Equal(t, 2, report.DuplicatesFound)
}

func TestSyncSurvivesItemFailures(t *testing.T) {
	store := catalog.NewMemoryStore()
	store.WriteHook = func(ep models.Episode) error {
		if ep.Title == "Episode 2" {
			return errors.New("throttled")
		}
		return nil
	}
	o := newOrchestrator(store, &fakeParser{drafts: drafts(4)})

	report, err := o.Sync(context.Background(), "P1", 42)
	require.NoError(t, err)
	assert.Equal(t, 3, report.NewEpisodes)
	assert.Equal(t, 1, report.DuplicatesFound)
}

func TestSyncUnknownPodcast(t *testing.T) {
	tests := []struct {
		name      string
		podcastID string
		userID    int64
		kind      catalog.Kind
	}{
		{"other user", "P1", 7, catalog.KindNotFound},
		{"missing podcast", "P2", 42, catalog.KindNotFound},
		{"empty id", "", 42, catalog.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &fakeParser{drafts: drafts(1)}
			o := newOrchestrator(catalog.NewMemoryStore(), parser)

			_, err := o.Sync(context.Background(), tt.podcastID, tt.userID)
			require.Error(t, err)
			assert.Equal(t, tt.kind, catalog.KindOf(err))
			assert.Empty(t, parser.urls)
		})
	}
}

func TestSyncFeedParseError(t *testing.T) {
	store := catalog.NewMemoryStore()
	o := newOrchestrator(store, &fakeParser{err: errors.New("unexpected EOF")})

	_, err := o.Sync(context.Background(), "P1", 42)
	require.Error(t, err)
	assert.Equal(t, catalog.KindFeedParse, catalog.KindOf(err))
	assert.Equal(t, "could not parse feed", catalog.PublicMessage(err))
	assert.Zero(t, store.Count("P1"))
}

func TestSyncOwnerLookupFailure(t *testing.T) {
	logger := test.Logger()
	store := catalog.NewMemoryStore()
	batcher := catalog.NewBatcher(store, catalog.NewResolver(store, logger), catalog.NewUpserter(store), 0, logger)
	o := NewOrchestrator(&fakeOwners{err: errors.New("connection refused")}, &fakeParser{}, catalog.NewReader(store, logger), batcher, logger)

	_, err := o.Sync(context.Background(), "P1", 42)
	require.Error(t, err)
	assert.Equal(t, catalog.KindInternal, catalog.KindOf(err))
	assert.Equal(t, "internal server error", catalog.PublicMessage(err))
}
