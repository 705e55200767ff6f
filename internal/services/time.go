package services

import "time"

// Timestamps are stored as unix nanoseconds so newest-first ordering is a
// total order even for records created within the same second.

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
