package nt

import (
	"time"

	"github.com/five82/ntdash/internal/value"
)

// RefreshStats describes one completed refresh.
type RefreshStats struct {
	Merged  int // samples folded into the cache
	Paths   int // paths known to the cache afterwards
	Elapsed time.Duration
}

// Observer receives client events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	Refreshed(pattern string, stats RefreshStats, err error)
	Published(topic string, tag value.Tag)
	Rejected(command string)
}

type nopObserver struct{}

func (nopObserver) Refreshed(string, RefreshStats, error) {}
func (nopObserver) Published(string, value.Tag)           {}
func (nopObserver) Rejected(string)                       {}
