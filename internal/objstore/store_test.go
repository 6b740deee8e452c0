package objstore

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"

	"github.com/five82/ntdash/internal/value"
)

func sample(ts value.Timestamp, s string) value.Timestamped {
	return value.At(value.String(s), ts)
}

func historyOf(t *testing.T, s *ObjectStore, path string) []value.Timestamped {
	t.Helper()
	h, ok := s.History(path)
	if !ok {
		t.Fatalf("History(%q) missing", path)
	}
	return h
}

func assertSorted(t *testing.T, s *ObjectStore) {
	t.Helper()
	for _, path := range s.Paths() {
		h, _ := s.History(path)
		for i := 1; i < len(h); i++ {
			if h[i-1].Timestamp() > h[i].Timestamp() {
				t.Fatalf("history %q not sorted at %d: %v", path, i, h)
			}
		}
	}
}

func multiset(s *ObjectStore) map[string]int {
	out := make(map[string]int)
	for _, path := range s.Paths() {
		h, _ := s.History(path)
		for _, e := range h {
			out[fmt.Sprintf("%s|%s", path, e)]++
		}
	}
	return out
}

func TestObjectStore_UnknownPathLookups(t *testing.T) {
	s := New(0)
	if _, ok := s.Field("/nope"); ok {
		t.Fatalf("Field on empty store reported ok")
	}
	if _, ok := s.History("/nope"); ok {
		t.Fatalf("History on empty store reported ok")
	}
	if len(s.Paths()) != 0 {
		t.Fatalf("Paths = %v, want empty", s.Paths())
	}

	var zero ObjectStore
	zero.SetField(Field{Key: "/a", Value: sample(1, "a")})
	if !zero.Has("/a") {
		t.Fatalf("zero-value store should accept writes")
	}
}

func TestObjectStore_SetHistorySortsAndCreatesField(t *testing.T) {
	s := New(0)
	s.SetHistory("/x", []value.Timestamped{sample(5, "a"), sample(2, "b")})

	h := historyOf(t, s, "/x")
	if len(h) != 2 || h[0].Timestamp() != 2 || h[1].Timestamp() != 5 {
		t.Fatalf("history = %v, want [2 5]", h)
	}
	f, ok := s.Field("/x")
	if !ok || f.Value.Timestamp() != 5 {
		t.Fatalf("field = %v, %v; want newest sample", f, ok)
	}
}

func TestObjectStore_MergeHistoryKeepsEverythingSorted(t *testing.T) {
	cache := New(0)
	cache.SetHistory("/x", []value.Timestamped{sample(1, "a"), sample(4, "d")})

	delta := New(10)
	delta.SetHistory("/x", []value.Timestamped{sample(3, "c"), sample(2, "b")})
	delta.SetHistory("/y", []value.Timestamped{sample(7, "y")})
	deltaBefore := multiset(delta)

	cache.MergeHistory(delta)

	h := historyOf(t, cache, "/x")
	var got []value.Timestamp
	for _, e := range h {
		got = append(got, e.Timestamp())
	}
	if !slices.Equal(got, []value.Timestamp{1, 2, 3, 4}) {
		t.Fatalf("merged timestamps = %v, want [1 2 3 4]", got)
	}
	if !cache.Has("/y") {
		t.Fatalf("merge should add paths known to other")
	}
	if fmt.Sprint(multiset(delta)) != fmt.Sprint(deltaBefore) {
		t.Fatalf("merge modified its argument")
	}
	assertSorted(t, cache)
}

func TestObjectStore_MergeHistoryPreservesDuplicates(t *testing.T) {
	a := New(0)
	a.SetHistory("/x", []value.Timestamped{sample(1, "a")})
	b := New(0)
	b.SetHistory("/x", []value.Timestamped{sample(1, "a")})

	a.MergeHistory(b)
	a.MergeHistory(b)

	h := historyOf(t, a, "/x")
	if len(h) != 3 {
		t.Fatalf("history len = %d, want 3 (duplicates are preserved)", len(h))
	}
	assertSorted(t, a)
}

func TestObjectStore_MergeHistoryIntoSelf(t *testing.T) {
	s := New(0)
	s.SetHistory("/x", []value.Timestamped{sample(2, "b"), sample(1, "a")})
	s.MergeHistory(s)

	h := historyOf(t, s, "/x")
	if len(h) != 4 {
		t.Fatalf("self merge len = %d, want 4", len(h))
	}
	assertSorted(t, s)
}

func TestObjectStore_MergeHistoryOrderIndependent(t *testing.T) {
	build := func(entries map[string][]value.Timestamped) *ObjectStore {
		s := New(0)
		for path, h := range entries {
			s.SetHistory(path, h)
		}
		return s
	}
	a := map[string][]value.Timestamped{
		"/x": {sample(3, "a3"), sample(1, "a1")},
		"/y": {sample(2, "ay")},
	}
	b := map[string][]value.Timestamped{
		"/x": {sample(2, "b2"), sample(3, "b3")},
		"/z": {sample(9, "bz")},
	}

	ab := New(0)
	ab.MergeHistory(build(a))
	ab.MergeHistory(build(b))

	ba := New(0)
	ba.MergeHistory(build(b))
	ba.MergeHistory(build(a))

	if fmt.Sprint(multiset(ab)) != fmt.Sprint(multiset(ba)) {
		t.Fatalf("merge order changed entries:\n%v\n%v", multiset(ab), multiset(ba))
	}
	assertSorted(t, ab)
	assertSorted(t, ba)

	// (a+b)+c == a+(b+c) on the entry multiset
	c := map[string][]value.Timestamped{"/x": {sample(0, "c0")}}
	left := build(a)
	left.MergeHistory(build(b))
	left.MergeHistory(build(c))

	bc := build(b)
	bc.MergeHistory(build(c))
	right := build(a)
	right.MergeHistory(bc)

	if fmt.Sprint(multiset(left)) != fmt.Sprint(multiset(right)) {
		t.Fatalf("merge is not associative on entries")
	}
}

func TestObjectStore_PruneFieldsKeepsFreshest(t *testing.T) {
	cache := New(0)
	cache.SetField(Field{Key: "/stale", Value: sample(1, "old")})
	cache.SetHistory("/x", []value.Timestamped{sample(5, "a"), sample(2, "b")})

	delta := New(0)
	delta.SetField(Field{Key: "/x", Value: sample(9, "newest")})

	cache.PruneFields(delta)

	f, ok := cache.Field("/x")
	if !ok || f.Value.Timestamp() != 9 {
		t.Fatalf("field /x = %v, want the delta's newer current value", f)
	}
	if _, ok := cache.Field("/stale"); ok {
		t.Fatalf("field without history should be pruned")
	}
	if !cache.Has("/stale") {
		t.Fatalf("pruning fields must not forget the path")
	}

	cache.PruneFields(nil)
	f, _ = cache.Field("/x")
	if f.Value.Timestamp() != 5 {
		t.Fatalf("field /x = %v, want newest history entry", f)
	}
}

func TestObjectStore_ClearAndTrim(t *testing.T) {
	s := New(50)
	s.SetHistory("/x", []value.Timestamped{sample(1, "a"), sample(2, "b"), sample(3, "c")})

	s.TrimHistory(2)
	h := historyOf(t, s, "/x")
	if len(h) != 2 || h[0].Timestamp() != 2 {
		t.Fatalf("trimmed history = %v, want newest two", h)
	}

	s.Clear(true)
	if s.Timestamp() != 0 {
		t.Fatalf("Clear should reset timestamp, got %d", s.Timestamp())
	}
	if _, ok := s.Field("/x"); !ok {
		t.Fatalf("Clear(true) should keep fields")
	}
	if h, _ := s.History("/x"); len(h) != 0 {
		t.Fatalf("Clear should drop history, got %v", h)
	}

	s.Clear(false)
	if s.Len() != 0 {
		t.Fatalf("Clear(false) left %d paths", s.Len())
	}
}

func TestObjectStore_CloneIsIndependent(t *testing.T) {
	s := New(3)
	s.SetHistory("/x", []value.Timestamped{sample(1, "a")})
	dup := s.Clone()
	dup.AppendHistory("/x", sample(2, "b"))

	if h := historyOf(t, s, "/x"); len(h) != 1 {
		t.Fatalf("clone shares history with original: %v", h)
	}
	if dup.Timestamp() != 3 {
		t.Fatalf("clone timestamp = %d, want 3", dup.Timestamp())
	}
}

func TestObjectStore_JSONUsesParallelArrays(t *testing.T) {
	raw := `{
		"fields": [{"key":"/x","value":{"type":"Int","value":2,"timestamp":20}}, null],
		"history": [[{"type":"Int","value":2,"timestamp":20},{"type":"Int","value":1,"timestamp":10}], null],
		"paths": {"/x":0, "/y":1},
		"timestamp": 30
	}`
	var s ObjectStore
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if s.Timestamp() != 30 || s.Len() != 2 {
		t.Fatalf("decoded ts=%d len=%d, want 30 and 2", s.Timestamp(), s.Len())
	}
	h := historyOf(t, &s, "/x")
	if h[0].Timestamp() != 10 {
		t.Fatalf("decoded history not sorted: %v", h)
	}
	if _, ok := s.Field("/y"); ok {
		t.Fatalf("null field should decode as absent")
	}

	data, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var back ObjectStore
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("re-Unmarshal returned error: %v", err)
	}
	if fmt.Sprint(multiset(&back)) != fmt.Sprint(multiset(&s)) || !slices.Equal(back.Paths(), s.Paths()) {
		t.Fatalf("round trip changed store: %s", data)
	}
}

func TestObjectStore_ZeroValueIsUsable(t *testing.T) {
	var s ObjectStore
	if s.Len() != 0 || s.Timestamp() != 0 || s.Has("/x") {
		t.Fatalf("zero store not empty: len=%d ts=%d", s.Len(), s.Timestamp())
	}
	s.SetHistory("/x", []value.Timestamped{sample(4, "b"), sample(1, "a")})
	s.SetTimestamp(4)

	if got := historyOf(t, &s, "/x"); !got[0].Equal(sample(1, "a")) || len(got) != 2 {
		t.Fatalf("history = %v", got)
	}
	if f, ok := s.Field("/x"); !ok || !f.Value.Equal(sample(4, "b")) {
		t.Fatalf("field = %v, %v", f, ok)
	}
	if s.Timestamp() != 4 {
		t.Fatalf("timestamp = %d, want 4", s.Timestamp())
	}
}
