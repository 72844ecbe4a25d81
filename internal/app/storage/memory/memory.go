package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tickerd/tickerd/internal/app/domain/observation"
	"github.com/tickerd/tickerd/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	observations map[string][]observation.Observation
}

var _ storage.ObservationStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		observations: make(map[string][]observation.Observation),
	}
}

func (s *Store) InsertObservations(_ context.Context, obs []observation.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		o.ID = s.nextID
		s.nextID++
		s.observations[o.Ticker] = append(s.observations[o.Ticker], o)
	}
	return nil
}

func (s *Store) ListByTicker(_ context.Context, ticker string) ([]observation.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.observations[ticker]
	result := make([]observation.Observation, len(rows))
	copy(result, rows)
	return result, nil
}

func (s *Store) LatestByTicker(_ context.Context, ticker string) (observation.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.observations[ticker]
	if len(rows) == 0 {
		return observation.Observation{}, storage.ErrNotFound
	}

	latest := rows[0]
	for _, o := range rows[1:] {
		if o.Timestamp > latest.Timestamp {
			latest = o
		}
	}
	return latest, nil
}

func (s *Store) ListByTimeRange(_ context.Context, ticker string, from, to int64) ([]observation.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []observation.Observation
	for _, o := range s.observations[ticker] {
		if o.Timestamp >= from && o.Timestamp <= to {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp < result[j].Timestamp })
	return result, nil
}
