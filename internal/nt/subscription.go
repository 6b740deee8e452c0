package nt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/five82/ntdash/internal/objstore"
)

// Subscription owns a private cache that only Refresh and ClearCache change.
type Subscription struct {
	client  *Client
	pattern string
	opts    SubscribeOptions
	cache   *objstore.ObjectStore

	flight singleflight.Group

	// mu serializes applying a refresh against ClearCache and close.
	mu  sync.Mutex
	gen uint64
	err error // set once the subscription is closed
}

func (s *Subscription) Pattern() string           { return s.pattern }
func (s *Subscription) Options() SubscribeOptions { return s.opts }

// Cache returns a read-only view of the cached data.
func (s *Subscription) Cache() objstore.View { return s.cache }

// Snapshot returns a deep copy of the cache between refreshes.
func (s *Subscription) Snapshot() *objstore.ObjectStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Clone()
}

// Active reports whether the subscription still receives refreshes.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err == nil
}

func (s *Subscription) close(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = reason
		s.gen++
	}
}

// Refresh fetches every sample newer than the cache timestamp and merges it.
// Calls made while a refresh is in flight wait for it and share its outcome.
func (s *Subscription) Refresh(ctx context.Context) (objstore.View, error) {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	_, err, _ = s.flight.Do(s.pattern, func() (any, error) {
		return nil, s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s.cache, nil
}

func (s *Subscription) refresh(ctx context.Context) error {
	c := s.client
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	start := time.Now()
	after := s.cache.Timestamp()
	delta, err := c.api.FetchSubbedHistory(ctx, c.Identity(), s.pattern, after)
	if err != nil {
		err = fmt.Errorf("refresh %s: %w", s.pattern, err)
		c.observer.Refreshed(s.pattern, RefreshStats{Paths: s.cache.Len(), Elapsed: time.Since(start)}, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if gen != s.gen {
		c.logger.Debug("refresh dropped after cache clear", zap.String("pattern", s.pattern))
		return nil
	}

	s.cache.MergeHistory(delta)
	s.cache.PruneFields(delta)
	if ts := delta.Timestamp(); ts != 0 {
		s.cache.SetTimestamp(ts)
	}
	s.cache.TrimHistory(c.historyLimit)

	stats := RefreshStats{Merged: delta.Samples(), Paths: s.cache.Len(), Elapsed: time.Since(start)}
	c.observer.Refreshed(s.pattern, stats, nil)
	c.logger.Debug("refreshed",
		zap.String("pattern", s.pattern),
		zap.Uint64("after", uint64(after)),
		zap.Int("merged", stats.Merged),
		zap.Int("paths", stats.Paths),
	)
	return nil
}

// ClearCache drops all cached data and resets the timestamp so the next
// refresh fetches the full backlog. A refresh in flight is discarded.
func (s *Subscription) ClearCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.gen++
	s.cache.Clear(false)
	return nil
}

// Restore seeds an empty cache from a saved store, typically loaded from the
// archive. It is a no-op when the cache already holds data.
func (s *Subscription) Restore(saved *objstore.ObjectStore) error {
	if saved == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.cache.Len() > 0 || s.cache.Timestamp() != 0 {
		return nil
	}
	s.gen++
	s.cache.MergeHistory(saved)
	s.cache.PruneFields(saved)
	s.cache.SetTimestamp(saved.Timestamp())
	return nil
}
