package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"pod-tracker/internal/models"
)

const (
	// DefaultPageLimit is used when a caller does not ask for a page size.
	DefaultPageLimit = 20
	// MaxPageLimit bounds a single page.
	MaxPageLimit = 1000
)

// Reader lists a podcast's episodes newest first.
type Reader struct {
	store Store
	log   *log.Logger
}

// NewReader creates a Reader over store.
func NewReader(store Store, logger *log.Logger) *Reader {
	return &Reader{store: store, log: logger}
}

// ListEpisodes returns one page of podcastID's episodes ordered by release
// date, newest first. A limit of 0 selects DefaultPageLimit.
//
// The release date index is tried first. When it is unavailable the page is
// read from the podcast partition and sorted in memory, which orders the page
// but not the partition as a whole. Cursors are specific to the path that
// produced them.
func (r *Reader) ListEpisodes(ctx context.Context, podcastID string, limit int, cursor string) (models.EpisodePage, error) {
	const op = "list episodes"
	if strings.TrimSpace(podcastID) == "" {
		return models.EpisodePage{}, Validation(op, "podcast id is required")
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 0 || limit > MaxPageLimit {
		return models.EpisodePage{}, Validation(op, "limit must be between 1 and 1000")
	}

	q := PageQuery{PodcastID: podcastID, Limit: limit, Cursor: cursor}
	page, err := r.store.QueryByReleaseDate(ctx, q)
	if errors.Is(err, ErrIndexUnavailable) {
		r.log.Warn("release date index unavailable, scanning partition", "podcast", podcastID)
		page, err = r.store.QueryPartition(ctx, q)
		if err == nil {
			SortNewestFirst(page.Episodes)
		}
	}
	if errors.Is(err, ErrInvalidCursor) {
		return models.EpisodePage{}, Validation(op, "invalid cursor")
	}
	if err != nil {
		return models.EpisodePage{}, Internal(op, err)
	}

	episodes := page.Episodes
	if episodes == nil {
		episodes = []models.Episode{}
	}
	return models.EpisodePage{
		Episodes: episodes,
		Pagination: models.Pagination{
			Limit:      limit,
			NextCursor: page.NextCursor,
			HasMore:    page.NextCursor != "",
		},
	}, nil
}

// SortNewestFirst orders episodes the way the release date index does:
// release date descending, then episode id descending.
func SortNewestFirst(episodes []models.Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i], episodes[j]
		if !a.ReleaseDate.Equal(b.ReleaseDate) {
			return a.ReleaseDate.After(b.ReleaseDate)
		}
		return a.EpisodeID > b.EpisodeID
	})
}
