package models

import "time"

// Podcast represents a user's subscription to an external episode feed.
type Podcast struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	FeedURL   string    `db:"feed_url" json:"feedUrl"`
	RSSUUID   string    `db:"rss_uuid" json:"rssUuid"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
