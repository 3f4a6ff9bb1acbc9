package catalog

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"pod-tracker/internal/models"
)

// Upserter creates new episodes or merges drafts into stored ones.
type Upserter struct {
	store Store
	now   func() time.Time
	newID func() string
}

// UpserterOption customizes an Upserter.
type UpserterOption func(*Upserter)

// WithClock overrides the time source used for createdAt/updatedAt and for
// drafts without a usable release date.
func WithClock(now func() time.Time) UpserterOption {
	return func(u *Upserter) { u.now = now }
}

// WithIDGenerator overrides episode id allocation.
func WithIDGenerator(newID func() string) UpserterOption {
	return func(u *Upserter) { u.newID = newID }
}

// NewUpserter creates an Upserter writing to store.
func NewUpserter(store Store, opts ...UpserterOption) *Upserter {
	u := &Upserter{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Build computes the episode that upserting draft would persist, without
// writing it. With existing == nil a new episode is allocated; otherwise the
// draft is merged into a copy of existing, keeping its id and createdAt.
func (u *Upserter) Build(podcastID string, draft models.EpisodeDraft, naturalKey string, existing *models.Episode) models.Episode {
	now := u.now().UTC()
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = untitledEpisode
	}
	releaseDate, dated := ParseReleaseTime(draft.ReleaseDate)

	if existing == nil {
		if !dated {
			releaseDate = now
		}
		return models.Episode{
			PodcastID:   podcastID,
			EpisodeID:   u.newID(),
			NaturalKey:  naturalKey,
			Title:       title,
			Description: strings.TrimSpace(draft.Description),
			AudioURL:    strings.TrimSpace(draft.AudioURL),
			Duration:    NormalizeDuration(draft.Duration),
			ReleaseDate: releaseDate,
			ImageURL:    cleanImage(draft.ImageURL),
			Guests:      cleanList(draft.Guests),
			Tags:        cleanList(draft.Tags),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	merged := *existing
	merged.Title = title
	merged.Description = strings.TrimSpace(draft.Description)
	merged.AudioURL = strings.TrimSpace(draft.AudioURL)
	merged.Duration = NormalizeDuration(draft.Duration)
	// An undated draft keeps the date the episode was first stored with.
	if dated {
		merged.ReleaseDate = releaseDate
	}
	merged.NaturalKey = naturalKey
	merged.UpdatedAt = now
	if img := cleanImage(draft.ImageURL); img != nil {
		merged.ImageURL = img
	}
	// An empty list from the parser does not erase what we already know.
	if guests := cleanList(draft.Guests); len(guests) > 0 {
		merged.Guests = guests
	} else {
		merged.Guests = slices.Clone(existing.Guests)
	}
	if tags := cleanList(draft.Tags); len(tags) > 0 {
		merged.Tags = tags
	} else {
		merged.Tags = slices.Clone(existing.Tags)
	}
	return merged
}

// Upsert builds the episode for draft and persists it with a single
// conditional write. It is the single-item path for callers that already
// resolved one draft; feed syncs go through Batcher, which builds with Build
// and writes whole chunks. A failed write is returned as a KindInternal
// *Error and is not retried.
func (u *Upserter) Upsert(ctx context.Context, podcastID string, draft models.EpisodeDraft, naturalKey string, existing *models.Episode) (models.Episode, error) {
	ep := u.Build(podcastID, draft, naturalKey, existing)
	cond := MustNotExist
	if existing != nil {
		cond = MustExist
	}
	if err := u.store.PutEpisode(ctx, &ep, cond); err != nil {
		return models.Episode{}, Internal("upsert episode", err)
	}
	return ep, nil
}

func cleanImage(img *string) *string {
	if img == nil {
		return nil
	}
	s := strings.TrimSpace(*img)
	if s == "" {
		return nil
	}
	return &s
}

func cleanList(items []string) []string {
	var out []string
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
