package catalog

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"pod-tracker/internal/models"
)

// MemoryStore is an in-process Store used as the catalog's test double.
type MemoryStore struct {
	mu       sync.Mutex
	episodes map[string]map[string]models.Episode // podcast -> episode id -> episode

	indexReady   bool
	maxBatchSize int
	batchWrites  int

	// WriteHook, when set, runs before every write and fails it with the
	// returned error.
	WriteHook func(models.Episode) error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store with the release date index ready.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		episodes:     make(map[string]map[string]models.Episode),
		indexReady:   true,
		maxBatchSize: DefaultBatchSize,
	}
}

// SetIndexReady toggles the release date index.
func (s *MemoryStore) SetIndexReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexReady = ready
}

// SetMaxBatchSize changes the largest batch BatchPutEpisodes accepts.
func (s *MemoryStore) SetMaxBatchSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxBatchSize = n
}

// BatchWrites reports how many BatchPutEpisodes calls were accepted.
func (s *MemoryStore) BatchWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchWrites
}

// Count returns the number of stored episodes of podcastID.
func (s *MemoryStore) Count(podcastID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.episodes[podcastID])
}

// Insert stores episode as is, bypassing conditions and hooks.
func (s *MemoryStore) Insert(episode models.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(episode)
}

func (s *MemoryStore) GetEpisode(_ context.Context, podcastID, episodeID string) (*models.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, ok := s.episodes[podcastID][episodeID]
	if !ok {
		return nil, ErrNotFound
	}
	ep = cloneEpisode(ep)
	return &ep, nil
}

func (s *MemoryStore) QueryByNaturalKey(_ context.Context, podcastID, naturalKey string) ([]models.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Episode
	for _, ep := range s.episodes[podcastID] {
		if ep.NaturalKey == naturalKey {
			out = append(out, cloneEpisode(ep))
		}
	}
	return out, nil
}

func (s *MemoryStore) QueryByReleaseDate(_ context.Context, q PageQuery) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.indexReady {
		return Page{}, ErrIndexUnavailable
	}

	all := s.partition(q.PodcastID)
	SortNewestFirst(all)

	start := 0
	if q.Cursor != "" {
		released, id, err := DecodeIndexCursor(q.Cursor)
		if err != nil {
			return Page{}, err
		}
		start = sort.Search(len(all), func(i int) bool {
			ep := all[i]
			return ep.ReleaseDate.Before(released) || (ep.ReleaseDate.Equal(released) && ep.EpisodeID < id)
		})
	}

	page := slicePage(all, start, q.Limit)
	if start+len(page) < len(all) && len(page) > 0 {
		last := page[len(page)-1]
		return Page{Episodes: page, NextCursor: EncodeIndexCursor(last.ReleaseDate, last.EpisodeID)}, nil
	}
	return Page{Episodes: page}, nil
}

func (s *MemoryStore) QueryPartition(_ context.Context, q PageQuery) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.partition(q.PodcastID)
	sort.Slice(all, func(i, j int) bool { return all[i].EpisodeID < all[j].EpisodeID })

	start := 0
	if q.Cursor != "" {
		after, err := DecodePartitionCursor(q.Cursor)
		if err != nil {
			return Page{}, err
		}
		start = sort.Search(len(all), func(i int) bool { return all[i].EpisodeID > after })
	}

	page := slicePage(all, start, q.Limit)
	if start+len(page) < len(all) && len(page) > 0 {
		return Page{Episodes: page, NextCursor: EncodePartitionCursor(page[len(page)-1].EpisodeID)}, nil
	}
	return Page{Episodes: page}, nil
}

func (s *MemoryStore) PutEpisode(_ context.Context, episode *models.Episode, cond WriteCondition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteHook != nil {
		if err := s.WriteHook(*episode); err != nil {
			return err
		}
	}

	_, exists := s.episodes[episode.PodcastID][episode.EpisodeID]
	switch cond {
	case MustNotExist:
		if exists || s.keyTaken(*episode) {
			return ErrConditionFailed
		}
	case MustExist:
		if !exists {
			return ErrConditionFailed
		}
	}
	s.put(*episode)
	return nil
}

func (s *MemoryStore) BatchPutEpisodes(_ context.Context, episodes []models.Episode) ([]BatchFailure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(episodes) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(episodes), s.maxBatchSize)
	}
	s.batchWrites++

	var failures []BatchFailure
	for i, ep := range episodes {
		if s.WriteHook != nil {
			if err := s.WriteHook(ep); err != nil {
				failures = append(failures, BatchFailure{Index: i, Err: err})
				continue
			}
		}
		if s.keyTaken(ep) {
			failures = append(failures, BatchFailure{Index: i, Err: ErrConditionFailed})
			continue
		}
		s.put(ep)
	}
	return failures, nil
}

// keyTaken reports whether another episode of the podcast holds ep's natural key.
func (s *MemoryStore) keyTaken(ep models.Episode) bool {
	for id, other := range s.episodes[ep.PodcastID] {
		if id != ep.EpisodeID && other.NaturalKey == ep.NaturalKey {
			return true
		}
	}
	return false
}

func (s *MemoryStore) put(ep models.Episode) {
	part, ok := s.episodes[ep.PodcastID]
	if !ok {
		part = make(map[string]models.Episode)
		s.episodes[ep.PodcastID] = part
	}
	part[ep.EpisodeID] = cloneEpisode(ep)
}

func (s *MemoryStore) partition(podcastID string) []models.Episode {
	out := make([]models.Episode, 0, len(s.episodes[podcastID]))
	for _, ep := range s.episodes[podcastID] {
		out = append(out, cloneEpisode(ep))
	}
	return out
}

func slicePage(all []models.Episode, start, limit int) []models.Episode {
	if start >= len(all) {
		return []models.Episode{}
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return all[start:end]
}

func cloneEpisode(ep models.Episode) models.Episode {
	ep.Guests = slices.Clone(ep.Guests)
	ep.Tags = slices.Clone(ep.Tags)
	if ep.ImageURL != nil {
		img := *ep.ImageURL
		ep.ImageURL = &img
	}
	return ep
}
