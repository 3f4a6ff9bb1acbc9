package models

import "time"

// EpisodeDraft is a parser-supplied candidate episode. Drafts are never
// persisted directly; the catalog turns them into Episodes.
type EpisodeDraft struct {
	Title       string
	Description string
	AudioURL    string
	Duration    string
	ReleaseDate string
	ImageURL    *string
	Guests      []string
	Tags        []string
}

// Episode is a persisted catalog entry, identified by (PodcastID, EpisodeID).
// NaturalKey is unique within a podcast.
type Episode struct {
	PodcastID   string    `json:"podcastId"`
	EpisodeID   string    `json:"episodeId"`
	NaturalKey  string    `json:"naturalKey"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AudioURL    string    `json:"audioUrl"`
	Duration    string    `json:"duration"`
	ReleaseDate time.Time `json:"releaseDate"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Guests      []string  `json:"guests,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Pagination describes where a listed page ends.
type Pagination struct {
	Limit      int    `json:"limit"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// EpisodePage is one page of a podcast's catalog, newest first.
type EpisodePage struct {
	Episodes   []Episode  `json:"episodes"`
	Pagination Pagination `json:"pagination"`
}
