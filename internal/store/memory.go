package store

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/i474232898/event-finder/internal/events"
)

var (
	// ErrNotFound is returned when no event exists for a given id.
	ErrNotFound = errors.New("event not found")
)

const earthRadiusKm = 6371.0

// MemoryStore is a concurrency-safe in-memory implementation of events.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// insertion ordered; key lookups go through index
	data  []events.Event
	index map[primitive.ObjectID]int

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[primitive.ObjectID]int),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Insert assigns an id and timestamps and stores the event.
func (s *MemoryStore) Insert(_ context.Context, ev events.Event) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ev.ID = primitive.NewObjectID()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	ev.Coordinates = append([]float64(nil), ev.Coordinates...)

	s.index[ev.ID] = len(s.data)
	s.data = append(s.data, ev)
	return cloneEvent(ev), nil
}

// List returns events newest first.
func (s *MemoryStore) List(_ context.Context, skip, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]events.Event, len(s.data))
	copy(sorted, s.data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	return window(sorted, skip, limit), nil
}

// Count returns the number of stored events.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// FindByID returns the event with the given id.
func (s *MemoryStore) FindByID(_ context.Context, id primitive.ObjectID) (events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return events.Event{}, ErrNotFound
	}
	return cloneEvent(s.data[i]), nil
}

// UpsertByID replaces the writable fields of the event at id, inserting it when absent.
func (s *MemoryStore) UpsertByID(_ context.Context, id primitive.ObjectID, ev events.Event) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ev.ID = id
	ev.UpdatedAt = now
	ev.Coordinates = append([]float64(nil), ev.Coordinates...)

	if i, ok := s.index[id]; ok {
		ev.CreatedAt = s.data[i].CreatedAt
		s.data[i] = ev
		return cloneEvent(ev), nil
	}

	ev.CreatedAt = now
	s.index[id] = len(s.data)
	s.data = append(s.data, ev)
	return cloneEvent(ev), nil
}

// DeleteByID removes the event at id and returns it.
func (s *MemoryStore) DeleteByID(_ context.Context, id primitive.ObjectID) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return events.Event{}, ErrNotFound
	}
	ev := s.data[i]

	s.data = append(s.data[:i], s.data[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.data); j++ {
		s.index[s.data[j].ID] = j
	}
	return ev, nil
}

// Search mirrors the Mongo aggregation: proximity order, inclusive date
// filter, stable date sort, then the page slice.
func (s *MemoryStore) Search(_ context.Context, c events.SearchCriteria) (events.SearchPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type candidate struct {
		ev   events.Event
		dist float64
	}

	var matches []candidate
	for _, ev := range s.data {
		lat, okLat := ev.Latitude()
		long, okLong := ev.Longitude()
		if !okLat || !okLong {
			continue
		}
		if ev.Date.Before(c.From) || ev.Date.After(c.To) {
			continue
		}
		matches = append(matches, candidate{ev: ev, dist: haversineKm(c.SrcLat, c.SrcLong, lat, long)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].dist < matches[j].dist
	})
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ev.Date.Before(matches[j].ev.Date)
	})

	all := make([]events.Event, len(matches))
	for i, m := range matches {
		ev := m.ev
		ev.ID = primitive.NilObjectID
		all[i] = ev
	}

	return events.SearchPage{
		Events: window(all, c.Skip, c.Limit),
		Total:  len(all),
	}, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// window returns copies of evs[skip:skip+limit]. A negative skip yields nothing.
func window(evs []events.Event, skip, limit int) []events.Event {
	if skip < 0 || skip >= len(evs) {
		return []events.Event{}
	}
	end := len(evs)
	if limit > 0 && limit < end-skip {
		end = skip + limit
	}
	out := make([]events.Event, 0, end-skip)
	for _, ev := range evs[skip:end] {
		out = append(out, cloneEvent(ev))
	}
	return out
}

// cloneEvent detaches the coordinates from the store's backing array.
func cloneEvent(ev events.Event) events.Event {
	if ev.Coordinates != nil {
		ev.Coordinates = append([]float64(nil), ev.Coordinates...)
	}
	return ev
}

func haversineKm(lat1, long1, lat2, long2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLong := (long2 - long1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLong/2)*math.Sin(dLong/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
