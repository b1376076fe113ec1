package quiz

import "time"

// DefaultTickInterval is how often a running timer re-evaluates the deadline.
const DefaultTickInterval = 250 * time.Millisecond

// Remaining returns max(0, endsAt-now). endsAt is epoch milliseconds.
func Remaining(now time.Time, endsAt int64) time.Duration {
	d := time.Duration(endsAt-now.UnixMilli()) * time.Millisecond
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether the deadline has passed.
func Expired(now time.Time, endsAt int64) bool {
	return Remaining(now, endsAt) == 0
}
