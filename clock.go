package collab

import "time"

// Clock is the millisecond wall-clock source used for created_at,
// last_modified and section timestamps. Callers inject a fake for
// deterministic tests; the core never reads time.Now() directly.
type Clock interface {
	NowMillis() int64
}

// SystemClock is the default Clock, backed by the real wall clock.
type SystemClock struct{}

func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// FixedClock is a Clock that always returns the same instant, useful in
// tests that assert on exact timestamps.
type FixedClock int64

func (f FixedClock) NowMillis() int64 { return int64(f) }
