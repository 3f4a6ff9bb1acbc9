package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/models"
)

// ErrDuplicatePodcast is returned when a user already follows a feed URL.
var ErrDuplicatePodcast = errors.New("podcast already added")

const podcastColumns = "id, user_id, title, feed_url, rss_uuid, created_at"

func (s *Store) GetPodcastsOwnedBy(ctx context.Context, userID int64) ([]models.Podcast, error) {
	query := `
		SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var podcasts []models.Podcast
	if err := s.db.SelectContext(ctx, &podcasts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get podcasts for user %d: %w", userID, err)
	}
	return podcasts, nil
}

func (s *Store) GetAllPodcasts(ctx context.Context) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	if err := s.db.SelectContext(ctx, &podcasts, "SELECT "+podcastColumns+" FROM podcasts ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("failed to get podcasts: %w", err)
	}
	return podcasts, nil
}

// GetPodcastByRSSUUID returns catalog.ErrNotFound for unknown feeds.
func (s *Store) GetPodcastByRSSUUID(ctx context.Context, rssUUID string) (*models.Podcast, error) {
	podcast := &models.Podcast{}
	err := s.db.GetContext(ctx, podcast, "SELECT "+podcastColumns+" FROM podcasts WHERE rss_uuid = $1", rssUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get podcast by rss uuid: %w", err)
	}
	return podcast, nil
}

func (s *Store) CountPodcastsByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM podcasts WHERE user_id = $1", userID); err != nil {
		return 0, fmt.Errorf("failed to count podcasts for user %d: %w", userID, err)
	}
	return count, nil
}

func (s *Store) AddPodcast(ctx context.Context, userID int64, title, feedURL string) (*models.Podcast, error) {
	query := `
		INSERT INTO podcasts (id, user_id, title, feed_url, rss_uuid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + podcastColumns
	podcast := &models.Podcast{}
	err := s.db.GetContext(ctx, podcast, query, uuid.NewString(), userID, title, feedURL, uuid.NewString())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePodcast
		}
		return nil, fmt.Errorf("failed to add podcast for user %d: %w", userID, err)
	}
	return podcast, nil
}

// DeletePodcast removes a user's podcast together with its episodes. It
// returns catalog.ErrNotFound when the user has no such podcast.
func (s *Store) DeletePodcast(ctx context.Context, userID int64, podcastID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM podcasts WHERE id = $1 AND user_id = $2", podcastID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete podcast %s for user %d: %w", podcastID, userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
