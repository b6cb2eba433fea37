package store

import (
	"context"
	"sort"
	"sync"

	"github.com/morgankhalil/venueconnect/internal/tour"
)

// MemoryStore is an in-memory Store for tests and for running the service
// without Postgres. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	tours   map[int64]*tour.Tour
	artists map[int64]*tour.Artist
	stops   map[int64]*tour.Stop
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tours:   make(map[int64]*tour.Tour),
		artists: make(map[int64]*tour.Artist),
		stops:   make(map[int64]*tour.Stop),
	}
}

// PutTour inserts or replaces a tour record.
func (m *MemoryStore) PutTour(t *tour.Tour) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tours[t.ID] = &cp
}

// PutArtist inserts or replaces an artist record.
func (m *MemoryStore) PutArtist(a *tour.Artist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.artists[a.ID] = &cp
}

// PutStop inserts or replaces a stop record.
func (m *MemoryStore) PutStop(s *tour.Stop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.stops[s.ID] = &cp
}

// GetTour implements Store.
func (m *MemoryStore) GetTour(_ context.Context, id int64) (*tour.Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tours[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// GetArtist implements Store.
func (m *MemoryStore) GetArtist(_ context.Context, id int64) (*tour.Artist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.artists[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ListStops implements Store, returning copies ordered by stored sequence
// with id as the stable tie-break.
func (m *MemoryStore) ListStops(_ context.Context, tourID int64) ([]*tour.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*tour.Stop
	for _, s := range m.stops {
		if s.TourID != tourID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateStopPlacement implements Store.
func (m *MemoryStore) UpdateStopPlacement(_ context.Context, stopID int64, sequence int, date *tour.Day, status tour.StopStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stops[stopID]
	if !ok {
		return ErrNotFound
	}
	s.Sequence = sequence
	if date != nil {
		d := *date
		s.Date = &d
	}
	if status != "" {
		s.Status = status
	}
	return nil
}

// UpdateTourMetrics implements Store.
func (m *MemoryStore) UpdateTourMetrics(_ context.Context, tourID int64, distanceKm, travelTimeMin float64, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[tourID]
	if !ok {
		return ErrNotFound
	}
	t.TotalDistanceKm = distanceKm
	t.TotalTravelTimeMin = travelTimeMin
	t.OptimizationScore = score
	return nil
}
