package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/models"
)

// ReleaseIndexName is the secondary index backing newest-first listings.
const ReleaseIndexName = "episodes_podcast_release_idx"

var _ catalog.Store = (*Store)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var episodeColumns = []string{
	"podcast_id", "episode_id", "natural_key", "title", "description", "audio_url",
	"duration", "release_date", "image_url", "guests", "tags", "created_at", "updated_at",
}

type episodeRow struct {
	PodcastID   string         `db:"podcast_id"`
	EpisodeID   string         `db:"episode_id"`
	NaturalKey  string         `db:"natural_key"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	AudioURL    string         `db:"audio_url"`
	Duration    string         `db:"duration"`
	ReleaseDate time.Time      `db:"release_date"`
	ImageURL    sql.NullString `db:"image_url"`
	Guests      pq.StringArray `db:"guests"`
	Tags        pq.StringArray `db:"tags"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r episodeRow) toModel() models.Episode {
	ep := models.Episode{
		PodcastID:   r.PodcastID,
		EpisodeID:   r.EpisodeID,
		NaturalKey:  r.NaturalKey,
		Title:       r.Title,
		Description: r.Description,
		AudioURL:    r.AudioURL,
		Duration:    r.Duration,
		ReleaseDate: r.ReleaseDate.UTC(),
		Guests:      []string(r.Guests),
		Tags:        []string(r.Tags),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.ImageURL.Valid {
		img := r.ImageURL.String
		ep.ImageURL = &img
	}
	return ep
}

func episodeArgs(ep *models.Episode) []any {
	var image any
	if ep.ImageURL != nil {
		image = *ep.ImageURL
	}
	return []any{
		ep.PodcastID, ep.EpisodeID, ep.NaturalKey, ep.Title, ep.Description, ep.AudioURL,
		ep.Duration, ep.ReleaseDate, image, pq.StringArray(ep.Guests), pq.StringArray(ep.Tags),
		ep.CreatedAt, ep.UpdatedAt,
	}
}

const insertEpisodeSQL = `
	INSERT INTO episodes (podcast_id, episode_id, natural_key, title, description, audio_url,
		duration, release_date, image_url, guests, tags, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const createEpisodeSQL = insertEpisodeSQL + `
	ON CONFLICT DO NOTHING`

const upsertEpisodeSQL = insertEpisodeSQL + `
	ON CONFLICT (podcast_id, episode_id) DO UPDATE SET
		natural_key = EXCLUDED.natural_key,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		audio_url = EXCLUDED.audio_url,
		duration = EXCLUDED.duration,
		release_date = EXCLUDED.release_date,
		image_url = EXCLUDED.image_url,
		guests = EXCLUDED.guests,
		tags = EXCLUDED.tags,
		updated_at = EXCLUDED.updated_at`

const updateEpisodeSQL = `
	UPDATE episodes
	SET natural_key = $3, title = $4, description = $5, audio_url = $6, duration = $7,
		release_date = $8, image_url = $9, guests = $10, tags = $11, updated_at = $12
	WHERE podcast_id = $1 AND episode_id = $2`

func (s *Store) GetEpisode(ctx context.Context, podcastID, episodeID string) (*models.Episode, error) {
	query, args, err := psql.Select(episodeColumns...).
		From("episodes").
		Where(sq.Eq{"podcast_id": podcastID, "episode_id": episodeID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build episode query: %w", err)
	}

	var row episodeRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	ep := row.toModel()
	return &ep, nil
}

func (s *Store) QueryByNaturalKey(ctx context.Context, podcastID, naturalKey string) ([]models.Episode, error) {
	query, args, err := psql.Select(episodeColumns...).
		From("episodes").
		Where(sq.Eq{"podcast_id": podcastID, "natural_key": naturalKey}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build natural key query: %w", err)
	}
	return s.selectEpisodes(ctx, query, args)
}

func (s *Store) QueryByReleaseDate(ctx context.Context, q catalog.PageQuery) (catalog.Page, error) {
	ready, err := s.releaseIndexReady(ctx)
	if err != nil {
		return catalog.Page{}, err
	}
	if !ready {
		return catalog.Page{}, catalog.ErrIndexUnavailable
	}

	b := psql.Select(episodeColumns...).
		From("episodes").
		Where(sq.Eq{"podcast_id": q.PodcastID}).
		OrderBy("release_date DESC", "episode_id DESC").
		Limit(uint64(q.Limit) + 1)
	if q.Cursor != "" {
		released, id, err := catalog.DecodeIndexCursor(q.Cursor)
		if err != nil {
			return catalog.Page{}, err
		}
		b = b.Where(sq.Expr("(release_date, episode_id) < (?, ?)", released, id))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return catalog.Page{}, fmt.Errorf("failed to build release date query: %w", err)
	}
	episodes, err := s.selectEpisodes(ctx, query, args)
	if err != nil {
		return catalog.Page{}, err
	}

	page := catalog.Page{Episodes: episodes}
	if len(episodes) > q.Limit {
		page.Episodes = episodes[:q.Limit]
		last := page.Episodes[q.Limit-1]
		page.NextCursor = catalog.EncodeIndexCursor(last.ReleaseDate, last.EpisodeID)
	}
	return page, nil
}

func (s *Store) QueryPartition(ctx context.Context, q catalog.PageQuery) (catalog.Page, error) {
	b := psql.Select(episodeColumns...).
		From("episodes").
		Where(sq.Eq{"podcast_id": q.PodcastID}).
		OrderBy("episode_id").
		Limit(uint64(q.Limit) + 1)
	if q.Cursor != "" {
		after, err := catalog.DecodePartitionCursor(q.Cursor)
		if err != nil {
			return catalog.Page{}, err
		}
		b = b.Where(sq.Gt{"episode_id": after})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return catalog.Page{}, fmt.Errorf("failed to build partition query: %w", err)
	}
	episodes, err := s.selectEpisodes(ctx, query, args)
	if err != nil {
		return catalog.Page{}, err
	}

	page := catalog.Page{Episodes: episodes}
	if len(episodes) > q.Limit {
		page.Episodes = episodes[:q.Limit]
		page.NextCursor = catalog.EncodePartitionCursor(page.Episodes[q.Limit-1].EpisodeID)
	}
	return page, nil
}

// PutEpisode inserts (MustNotExist) or updates (MustExist) a single episode.
// Syncs write through BatchPutEpisodes; this is the one-row path used by
// catalog.Upserter.Upsert.
func (s *Store) PutEpisode(ctx context.Context, episode *models.Episode, cond catalog.WriteCondition) error {
	query, args := createEpisodeSQL, episodeArgs(episode)
	if cond == catalog.MustExist {
		// created_at is immutable; drop it from the update arguments.
		query, args = updateEpisodeSQL, append(args[:11:11], episode.UpdatedAt)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", catalog.ErrConditionFailed, err)
		}
		return fmt.Errorf("failed to write episode: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return catalog.ErrConditionFailed
	}
	return nil
}

// BatchPutEpisodes upserts episodes in one transaction. Each row runs under
// its own savepoint so a failing row is rolled back alone and reported.
func (s *Store) BatchPutEpisodes(ctx context.Context, episodes []models.Episode) ([]catalog.BatchFailure, error) {
	if len(episodes) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	var failures []catalog.BatchFailure
	for i := range episodes {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT episode_write"); err != nil {
			return nil, fmt.Errorf("failed to create savepoint: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertEpisodeSQL, episodeArgs(&episodes[i])...); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("%w: %v", catalog.ErrConditionFailed, err)
			}
			failures = append(failures, catalog.BatchFailure{Index: i, Err: err})
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT episode_write"); rbErr != nil {
				return nil, fmt.Errorf("failed to roll back savepoint: %w", rbErr)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT episode_write"); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return failures, nil
}

// releaseIndexReady reports whether the release date index exists and is
// usable by the planner.
func (s *Store) releaseIndexReady(ctx context.Context) (bool, error) {
	var ready bool
	err := s.db.GetContext(ctx, &ready, `
		SELECT i.indisvalid AND i.indisready
		FROM pg_index i
		JOIN pg_class c ON c.oid = i.indexrelid
		WHERE c.relname = $1`, ReleaseIndexName)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check release date index: %w", err)
	}
	return ready, nil
}

func (s *Store) selectEpisodes(ctx context.Context, query string, args []any) ([]models.Episode, error) {
	var rows []episodeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	episodes := make([]models.Episode, len(rows))
	for i, r := range rows {
		episodes[i] = r.toModel()
	}
	return episodes, nil
}
