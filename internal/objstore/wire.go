package objstore

import (
	"encoding/json"
	"fmt"

	"github.com/five82/ntdash/internal/value"
)

// View is the read-only surface handed to consumers of a store.
type View interface {
	Field(path string) (Field, bool)
	Fields() []Field
	History(path string) ([]value.Timestamped, bool)
	Paths() []string
	Has(path string) bool
	Timestamp() value.Timestamp
	Len() int
	Samples() int
}

var _ View = (*ObjectStore)(nil)

// wireObject is the backend's layout: fields and history are parallel arrays
// addressed through the paths index.
type wireObject struct {
	Fields    []*Field              `json:"fields"`
	History   [][]value.Timestamped `json:"history"`
	Paths     map[string]int        `json:"paths"`
	Timestamp value.Timestamp       `json:"timestamp"`
}

func (s *ObjectStore) MarshalJSON() ([]byte, error) {
	paths := s.Paths()

	s.mu.RLock()
	wire := wireObject{
		Fields:    make([]*Field, len(paths)),
		History:   make([][]value.Timestamped, len(paths)),
		Paths:     make(map[string]int, len(paths)),
		Timestamp: s.timestamp,
	}
	for i, path := range paths {
		wire.Paths[path] = i
		if f, ok := s.fields[path]; ok {
			wire.Fields[i] = &f
		}
		if h, ok := s.history[path]; ok {
			wire.History[i] = h
		}
	}
	data, err := json.Marshal(wire)
	s.mu.RUnlock()
	return data, err
}

func (s *ObjectStore) UnmarshalJSON(data []byte) error {
	var wire wireObject
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode object: %w", err)
	}

	fresh := New(wire.Timestamp)
	fresh.initLocked()
	for path, idx := range wire.Paths {
		if idx < 0 {
			return fmt.Errorf("decode object: negative index for %q", path)
		}
		fresh.paths[path] = struct{}{}
		if idx < len(wire.Fields) && wire.Fields[idx] != nil {
			f := *wire.Fields[idx]
			f.Key = path
			fresh.fields[path] = f
		}
		if idx < len(wire.History) && wire.History[idx] != nil {
			h := wire.History[idx]
			sortHistory(h)
			fresh.history[path] = h
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = fresh.fields
	s.history = fresh.history
	s.paths = fresh.paths
	s.timestamp = fresh.timestamp
	return nil
}
