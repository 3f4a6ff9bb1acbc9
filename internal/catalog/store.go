// Package catalog merges parsed feed episodes into a podcast's persisted
// episode catalog.
//
// A feed episode is identified across re-syncs by its natural key, a digest of
// its normalized title and release date (see [Fingerprint]). The [Resolver]
// finds the stored episode sharing that key, the [Upserter] creates or merges,
// the [Batcher] drives both over a draft list in store-sized chunks, and the
// [Reader] lists a podcast's episodes newest first.
//
// Every component talks to persistence through the [Store] interface, which is
// implemented by the Postgres store in internal/db and by [MemoryStore].
package catalog

import (
	"context"

	"pod-tracker/internal/models"
)

// DefaultBatchSize is the maximum number of episodes written in one batch.
const DefaultBatchSize = 25

// WriteCondition guards a single-item write.
type WriteCondition int

const (
	// MustNotExist fails the write when (podcast, episode id) or (podcast,
	// natural key) is already stored.
	MustNotExist WriteCondition = iota
	// MustExist fails the write when the episode is not stored.
	MustExist
)

// PageQuery selects one page of a podcast's episodes.
type PageQuery struct {
	PodcastID string
	Limit     int
	Cursor    string
}

// Page is a page of episodes plus the opaque cursor of the next page, empty
// when there is none.
type Page struct {
	Episodes   []models.Episode
	NextCursor string
}

// BatchFailure records one episode a batch write could not persist.
type BatchFailure struct {
	Index int
	Err   error
}

// Store is the persistence capability the catalog depends on.
//
// Cursors returned by QueryByReleaseDate are only valid for
// QueryByReleaseDate and cursors from QueryPartition only for QueryPartition;
// a cursor from the other path yields ErrInvalidCursor.
type Store interface {
	// GetEpisode returns ErrNotFound when the episode does not exist.
	GetEpisode(ctx context.Context, podcastID, episodeID string) (*models.Episode, error)
	QueryByNaturalKey(ctx context.Context, podcastID, naturalKey string) ([]models.Episode, error)
	// QueryByReleaseDate pages through the release date index, newest first.
	// It returns ErrIndexUnavailable when the index is not provisioned.
	QueryByReleaseDate(ctx context.Context, q PageQuery) (Page, error)
	// QueryPartition pages through the podcast's episodes in storage order.
	QueryPartition(ctx context.Context, q PageQuery) (Page, error)
	// PutEpisode is the single-item conditional write behind Upserter.Upsert.
	// It returns ErrConditionFailed when cond does not hold.
	PutEpisode(ctx context.Context, episode *models.Episode, cond WriteCondition) error
	// BatchPutEpisodes writes episodes unconditionally. Implementations with
	// a bounded batch size reject larger batches with ErrBatchTooLarge. Items
	// that could not be written are reported as failures; the returned error
	// is reserved for failures of the whole batch.
	BatchPutEpisodes(ctx context.Context, episodes []models.Episode) ([]BatchFailure, error)
}
