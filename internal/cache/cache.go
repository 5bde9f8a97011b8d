package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// SourceWAQI tags readings obtained from the WAQI feed.
const SourceWAQI = "waqi_api"

// Reading is a validated PM2.5 sample with its fetch time and provenance.
type Reading struct {
	PM25      float64   `json:"pm25"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
}

// KeyForCity builds the cache key for a city. Keys use the display name,
// not the provider slug, so two display names that map to the same slug
// keep independent entries.
func KeyForCity(displayName string) string {
	return "pm25_" + displayName
}

// Store defines the interface for PM2.5 reading caches.
// Get returns a reading only while it is fresh, Set unconditionally
// overwrites, Clear drops every entry.
type Store interface {
	Get(ctx context.Context, key string) (Reading, bool, error)
	Set(ctx context.Context, key string, r Reading) error
	Clear(ctx context.Context) error
}

// InMemoryStore implements Store with a mutex-guarded map and TTL-based
// freshness. Stale entries are ignored in place rather than evicted; the
// next successful Set overwrites them. Safe for concurrent Get/Set/Clear
// from in-flight fetches.
type InMemoryStore struct {
	mu    sync.RWMutex
	data  map[string]Reading
	ttl   time.Duration
	clock clockwork.Clock
}

// NewInMemoryStore creates an InMemoryStore with the given TTL.
// A nil clock defaults to the real clock; tests pass a fake for
// deterministic expiry.
func NewInMemoryStore(ttl time.Duration, clock clockwork.Clock) *InMemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &InMemoryStore{
		data:  make(map[string]Reading),
		ttl:   ttl,
		clock: clock,
	}
}

// Get returns the reading for key if one exists and is younger than the
// TTL. Stale entries are left in place and reported as a miss.
func (s *InMemoryStore) Get(ctx context.Context, key string) (Reading, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[key]
	if !ok {
		return Reading{}, false, nil
	}
	if s.clock.Now().Sub(r.FetchedAt) >= s.ttl {
		return Reading{}, false, nil
	}
	return r, true, nil
}

// Set stores the reading for key, overwriting any previous entry.
func (s *InMemoryStore) Set(ctx context.Context, key string, r Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = r
	return nil
}

// Clear removes all entries. Fetches racing a clear simply miss and
// re-fetch; entries written after the clear are valid.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]Reading)
	return nil
}
