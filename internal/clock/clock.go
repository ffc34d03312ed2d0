// Package clock abstracts wall-clock time so long-running waits can be
// driven deterministically in tests.
package clock

import "time"

// Clock provides the current time and timers
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) *Timer
}

// Timer delivers a single tick on C once its duration has elapsed
type Timer struct {
	C <-chan time.Time

	stop func() bool
}

// Stop prevents the timer from firing. It returns false if the timer has
// already fired or been stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Real returns a Clock backed by the time package
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) *Timer {
	timer := time.NewTimer(d)
	return &Timer{C: timer.C, stop: timer.Stop}
}
