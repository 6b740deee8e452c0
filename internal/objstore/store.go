package objstore

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/five82/ntdash/internal/value"
)

// Field is the current value of a path.
type Field struct {
	Key   string            `json:"key"`
	Value value.Timestamped `json:"value"`
}

// ObjectStore holds current fields and per-path history. The zero value is
// ready to use.
type ObjectStore struct {
	mu        sync.RWMutex
	fields    map[string]Field
	history   map[string][]value.Timestamped
	paths     map[string]struct{}
	timestamp value.Timestamp
}

// New returns an empty store captured at ts.
func New(ts value.Timestamp) *ObjectStore {
	return &ObjectStore{timestamp: ts}
}

func (s *ObjectStore) initLocked() {
	if s.paths == nil {
		s.paths = make(map[string]struct{})
		s.fields = make(map[string]Field)
		s.history = make(map[string][]value.Timestamped)
	}
}

// Field returns the current field at path.
func (s *ObjectStore) Field(path string) (Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[path]
	return f, ok
}

// Fields returns all current fields ordered by key.
func (s *ObjectStore) Fields() []Field {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// History returns a copy of the ordered history at path. The boolean is false
// when the path is unknown; a known path without samples yields an empty slice.
func (s *ObjectStore) History(path string) ([]value.Timestamped, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.paths[path]; !ok {
		return nil, false
	}
	return slices.Clone(s.history[path]), true
}

// Paths returns every known path, sorted.
func (s *ObjectStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.paths))
}

func (s *ObjectStore) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of known paths.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// Samples returns the total number of history entries across paths.
func (s *ObjectStore) Samples() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, h := range s.history {
		n += len(h)
	}
	return n
}

// Timestamp is the server-reported instant the current view was captured.
func (s *ObjectStore) Timestamp() value.Timestamp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timestamp
}

func (s *ObjectStore) SetTimestamp(ts value.Timestamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timestamp = ts
}

// SetField replaces the current field for f.Key.
func (s *ObjectStore) SetField(f Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
	s.paths[f.Key] = struct{}{}
	s.fields[f.Key] = f
}

// SetHistory replaces the history at path. When the path has no current field
// the newest entry becomes one.
func (s *ObjectStore) SetHistory(path string, history []value.Timestamped) {
	sorted := slices.Clone(history)
	sortHistory(sorted)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
	s.paths[path] = struct{}{}
	s.history[path] = sorted
	if _, ok := s.fields[path]; !ok && len(sorted) > 0 {
		s.fields[path] = Field{Key: path, Value: sorted[len(sorted)-1]}
	}
}

// AppendHistory adds samples to path, keeping the history ordered.
func (s *ObjectStore) AppendHistory(path string, samples ...value.Timestamped) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
	s.paths[path] = struct{}{}
	merged := append(s.history[path], samples...)
	sortHistory(merged)
	s.history[path] = merged
}

// MergeHistory folds every history of other into s. Entries are concatenated
// and re-sorted by timestamp; nothing is dropped and duplicates are kept.
// other is not modified, and merging a store into itself is allowed.
func (s *ObjectStore) MergeHistory(other *ObjectStore) {
	if other == nil {
		return
	}
	var incoming map[string][]value.Timestamped
	if other == s {
		incoming = s.copyHistory()
	} else {
		incoming = other.copyHistory()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
	for path, entries := range incoming {
		s.paths[path] = struct{}{}
		merged := append(s.history[path], entries...)
		sortHistory(merged)
		s.history[path] = merged
	}
}

// copyHistory snapshots the history of every known path, including paths
// without samples, so the merge also carries the path index over.
func (s *ObjectStore) copyHistory() map[string][]value.Timestamped {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]value.Timestamped, len(s.paths))
	for path := range s.paths {
		out[path] = slices.Clone(s.history[path])
	}
	return out
}

// PruneFields rebuilds the current fields from history: each path keeps only
// its newest sample. A current field from latest wins when it is at least as
// new as the newest history entry. Paths without any sample lose their field.
func (s *ObjectStore) PruneFields(latest *ObjectStore) {
	var fresh map[string]Field
	if latest != nil && latest != s {
		latest.mu.RLock()
		fresh = maps.Clone(latest.fields)
		latest.mu.RUnlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
	fields := make(map[string]Field, len(s.paths))
	for path := range s.paths {
		h := s.history[path]
		var newest Field
		have := false
		if len(h) > 0 {
			newest = Field{Key: path, Value: h[len(h)-1]}
			have = true
		}
		if f, ok := fresh[path]; ok && (!have || f.Value.Timestamp() >= newest.Value.Timestamp()) {
			newest = f
			have = true
		}
		if have {
			fields[path] = newest
		}
	}
	s.fields = fields
}

// TrimHistory keeps at most max newest entries per path. max <= 0 disables it.
func (s *ObjectStore) TrimHistory(max int) {
	if max <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, h := range s.history {
		if over := len(h) - max; over > 0 {
			s.history[path] = slices.Clone(h[over:])
		}
	}
}

// Clear discards all history and resets the snapshot timestamp. Current fields
// survive when keepFields is set; otherwise the store is emptied.
func (s *ObjectStore) Clear(keepFields bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timestamp = 0
	s.history = make(map[string][]value.Timestamped)
	if keepFields && s.fields != nil {
		paths := make(map[string]struct{}, len(s.fields))
		for path := range s.fields {
			paths[path] = struct{}{}
		}
		s.paths = paths
		return
	}
	s.fields = make(map[string]Field)
	s.paths = make(map[string]struct{})
}

// Clone returns a deep copy.
func (s *ObjectStore) Clone() *ObjectStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dup := &ObjectStore{timestamp: s.timestamp}
	dup.initLocked()
	maps.Copy(dup.paths, s.paths)
	maps.Copy(dup.fields, s.fields)
	for path, h := range s.history {
		dup.history[path] = slices.Clone(h)
	}
	return dup
}

// Stable so equal timestamps keep arrival order.
func sortHistory(h []value.Timestamped) {
	slices.SortStableFunc(h, func(a, b value.Timestamped) int {
		switch {
		case a.Timestamp() < b.Timestamp():
			return -1
		case a.Timestamp() > b.Timestamp():
			return 1
		}
		return 0
	})
}
