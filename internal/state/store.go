package state

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/five82/ntdash/internal/objstore"
	"github.com/five82/ntdash/internal/value"
)

// Health is the refresh status of one subscription.
type Health struct {
	Client              string
	Pattern             string
	Paths               int
	Samples             int
	Timestamp           value.Timestamp // cache snapshot time reported by the backend
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when the backend has failed multiple refreshes.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to subscription health.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Health
}

func key(client, pattern string) string {
	return client + "\x00" + pattern
}

// Update records the outcome of a refresh. When err is non-nil the previous
// counts are kept but the error is recorded for visibility.
func (s *Store) Update(client, pattern string, cache objstore.View, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]Health)
	}

	k := key(client, pattern)
	h := s.entries[k]
	h.Client = client
	h.Pattern = pattern
	h.LastUpdated = time.Now()

	if err != nil {
		h.LastError = err
		h.ConsecutiveFailures++
		s.entries[k] = h
		return
	}

	if cache != nil {
		h.Paths = cache.Len()
		h.Samples = cache.Samples()
		h.Timestamp = cache.Timestamp()
		h.HasData = true
	} else {
		h.HasData = false
	}
	h.LastError = nil
	h.ConsecutiveFailures = 0
	s.entries[k] = h
}

// Remove forgets a subscription.
func (s *Store) Remove(client, pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key(client, pattern))
}

// Get returns a copy of one subscription's health.
func (s *Store) Get(client, pattern string) (Health, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.entries[key(client, pattern)]
	if !ok {
		return Health{}, false
	}
	return cloneHealth(h), true
}

// Snapshot returns copies of every entry ordered by client then pattern.
func (s *Store) Snapshot() []Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Health, 0, len(s.entries))
	for _, h := range s.entries {
		out = append(out, cloneHealth(h))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Client != out[j].Client {
			return out[i].Client < out[j].Client
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

func cloneHealth(h Health) Health {
	if h.LastError != nil {
		h.LastError = fmt.Errorf("%w", h.LastError)
	}
	return h
}
