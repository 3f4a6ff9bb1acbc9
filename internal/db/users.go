package db

import (
	"context"
	"fmt"

	"pod-tracker/internal/models"
)

// UpsertUser inserts a new user or updates an existing one based on the Telegram ID.
func (s *Store) UpsertUser(ctx context.Context, id int64, username string) (*models.User, error) {
	query := `
		INSERT INTO users (id, telegram_username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			telegram_username = EXCLUDED.telegram_username,
			updated_at = NOW()
		RETURNING id, telegram_username, created_at, updated_at
	`
	user := &models.User{}
	if err := s.db.GetContext(ctx, user, query, id, username); err != nil {
		return nil, fmt.Errorf("failed to upsert user %d: %w", id, err)
	}
	return user, nil
}
