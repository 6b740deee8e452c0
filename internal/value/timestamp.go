package value

import (
	"fmt"
	"time"
)

// Timestamp counts microseconds since the Unix epoch.
type Timestamp uint64

// Now returns the current wall-clock instant.
func Now() Timestamp {
	return TimestampOf(time.Now())
}

// TimestampOf converts t, clamping instants before the epoch to zero.
func TimestampOf(t time.Time) Timestamp {
	us := t.UnixMicro()
	if us < 0 {
		return 0
	}
	return Timestamp(us)
}

func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(ts))
}

// Timestamped pairs a Value with the instant it was sampled.
type Timestamped struct {
	value     Value
	timestamp Timestamp
}

// NewTimestamped builds a timestamped sample. Invalid values are rejected so
// every sample carries exactly one tag.
func NewTimestamped(v Value, ts Timestamp) (Timestamped, error) {
	if !v.IsValid() {
		return Timestamped{}, fmt.Errorf("%w: zero Value", ErrUnsupportedShape)
	}
	return Timestamped{value: v, timestamp: ts}, nil
}

// At is NewTimestamped for values known to be valid; it panics otherwise.
func At(v Value, ts Timestamp) Timestamped {
	tv, err := NewTimestamped(v, ts)
	if err != nil {
		panic(err)
	}
	return tv
}

func (t Timestamped) Value() Value         { return t.value }
func (t Timestamped) Timestamp() Timestamp { return t.timestamp }
func (t Timestamped) Tag() Tag             { return t.value.tag }

func (t Timestamped) Equal(o Timestamped) bool {
	return t.timestamp == o.timestamp && t.value.Equal(o.value)
}

func (t Timestamped) String() string {
	return fmt.Sprintf("%s@%d", t.value, t.timestamp)
}
