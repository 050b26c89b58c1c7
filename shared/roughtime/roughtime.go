// Package roughtime is the single clock source consulted by the upstream
// selector's failure-window and recovery bookkeeping. Centralizing it here,
// rather than calling time.Now directly, is what lets tests freeze the
// clock.
package roughtime

import (
	"time"
)

// Clock is the seam tests substitute to control what Now reports. See
// shared/roughtime/mock_roughtime for the generated mock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

var clock Clock = realClock{}

// SetClock swaps the package's clock source and returns a function that
// restores the previous one; intended for `defer roughtime.SetClock(mock)()`
// in tests.
func SetClock(c Clock) (restore func()) {
	prev := clock
	clock = c
	return func() { clock = prev }
}

// Since returns the duration since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// Until returns the duration until t.
func Until(t time.Time) time.Duration {
	return t.Sub(Now())
}

// Now returns the current local time.
func Now() time.Time {
	return clock.Now()
}
