// Package feed reads podcast feeds into episode drafts and renders catalogs
// back out as RSS.
package feed

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"pod-tracker/internal/models"
)

// BaseURL returns configured when set, otherwise the URL the request came in on.
func BaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS renders a podcast's catalog, newest first, as an RSS document.
func GenerateRSS(p *models.Podcast, episodes []models.Episode, baseURL string) (string, error) {
	var updated time.Time
	if len(episodes) > 0 {
		updated = episodes[0].ReleaseDate
	}

	feed := podcast.New(
		p.Title,
		fmt.Sprintf("%s/rss/%s", baseURL, p.RSSUUID),
		fmt.Sprintf("Episodes of %s.", p.Title),
		&p.CreatedAt, &updated,
	)

	for _, ep := range episodes {
		description := ep.Description
		if description == "" {
			description = ep.Title
		}
		released := ep.ReleaseDate
		item := podcast.Item{
			GUID:        ep.EpisodeID,
			Title:       ep.Title,
			Description: description,
			PubDate:     &released,
			IDuration:   ep.Duration,
		}
		if len(ep.Tags) > 0 {
			item.Category = ep.Tags[0]
		}
		if len(ep.Guests) > 0 {
			item.IAuthor = strings.Join(ep.Guests, ", ")
		}
		if ep.ImageURL != nil {
			item.AddImage(*ep.ImageURL)
		}
		item.AddEnclosure(ep.AudioURL, enclosureType(ep.AudioURL), 0)
		if _, err := feed.AddItem(item); err != nil {
			return "", fmt.Errorf("failed to add episode %s: %w", ep.EpisodeID, err)
		}
	}

	return feed.String(), nil
}

func enclosureType(audioURL string) podcast.EnclosureType {
	ext := strings.ToLower(path.Ext(strings.SplitN(audioURL, "?", 2)[0]))
	switch ext {
	case ".m4a":
		return podcast.M4A
	case ".mp4":
		return podcast.MP4
	case ".m4v":
		return podcast.M4V
	case ".mov":
		return podcast.MOV
	default:
		return podcast.MP3
	}
}
