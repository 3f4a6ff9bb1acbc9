package catalog

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

const (
	cursorIndex     = "index"
	cursorPartition = "partition"
)

type cursorToken struct {
	Path        string    `json:"p"`
	ReleaseDate time.Time `json:"r,omitempty"`
	EpisodeID   string    `json:"e"`
}

// EncodeIndexCursor returns the cursor resuming a release-date-ordered scan
// after the given episode.
func EncodeIndexCursor(releaseDate time.Time, episodeID string) string {
	return encodeCursor(cursorToken{Path: cursorIndex, ReleaseDate: releaseDate.UTC(), EpisodeID: episodeID})
}

// DecodeIndexCursor reverses EncodeIndexCursor.
func DecodeIndexCursor(cursor string) (time.Time, string, error) {
	tok, err := decodeCursor(cursor, cursorIndex)
	if err != nil {
		return time.Time{}, "", err
	}
	return tok.ReleaseDate, tok.EpisodeID, nil
}

// EncodePartitionCursor returns the cursor resuming a partition scan after
// the given episode id.
func EncodePartitionCursor(episodeID string) string {
	return encodeCursor(cursorToken{Path: cursorPartition, EpisodeID: episodeID})
}

// DecodePartitionCursor reverses EncodePartitionCursor.
func DecodePartitionCursor(cursor string) (string, error) {
	tok, err := decodeCursor(cursor, cursorPartition)
	if err != nil {
		return "", err
	}
	return tok.EpisodeID, nil
}

func encodeCursor(tok cursorToken) string {
	// cursorToken always marshals.
	b, _ := json.Marshal(tok)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(cursor, path string) (cursorToken, error) {
	var tok cursorToken
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return tok, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return tok, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if tok.Path != path {
		return tok, fmt.Errorf("%w: cursor belongs to the %s read path", ErrInvalidCursor, tok.Path)
	}
	if tok.EpisodeID == "" {
		return tok, fmt.Errorf("%w: missing position", ErrInvalidCursor)
	}
	return tok, nil
}
