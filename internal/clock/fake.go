package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	current time.Time
	timers  []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time
	done     bool
}

// Fake returns a FakeClock set to initial
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NewTimer registers a timer that fires when the clock reaches now+d.
// A non-positive d fires immediately.
func (c *FakeClock) NewTimer(d time.Duration) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{deadline: c.current.Add(d), ch: make(chan time.Time, 1)}
	if d <= 0 {
		t.done = true
		t.ch <- c.current
	} else {
		c.timers = append(c.timers, t)
		c.changed.Broadcast()
	}

	return &Timer{
		C: t.ch,
		stop: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if t.done {
				return false
			}
			t.done = true
			c.removeLocked(t)
			return true
		},
	}
}

// Advance moves the clock forward and fires every timer whose deadline
// has been reached, in deadline order
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)

	var due, pending []*fakeTimer
	for _, t := range c.timers {
		if t.deadline.After(c.current) {
			pending = append(pending, t)
		} else {
			due = append(due, t)
		}
	}
	c.timers = pending

	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, t := range due {
		t.done = true
		t.ch <- c.current
	}
	c.changed.Broadcast()
}

// WaitForTimers blocks until at least n timers are pending. Tests call it
// before Advance so the goroutine under test has registered its wait.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.timers) < n {
		c.changed.Wait()
	}
}

// PendingTimers returns the number of timers that have not fired or stopped
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *FakeClock) removeLocked(target *fakeTimer) {
	for i, t := range c.timers {
		if t == target {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}
	}
	c.changed.Broadcast()
}
