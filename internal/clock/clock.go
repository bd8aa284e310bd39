// Package clock provides a fakeable time source shared by QueueScheduler and
// TokenApproximator so their debounce/cooldown logic can be tested without
// sleeping on the wall clock.
package clock

import "time"

// Clock provides time-related operations for testability.
// Use Real for production and a test fake for deterministic tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// NewTimer creates a Timer that sends the current time on its channel
	// after at least duration d.
	NewTimer(d time.Duration) Timer
}

// Timer represents a cancellable, resettable timer.
type Timer interface {
	// Stop prevents the Timer from firing. Returns true if the call stops
	// the timer, false if the timer has already expired or been stopped.
	Stop() bool
	// Reset changes the timer to expire after duration d.
	Reset(d time.Duration) bool
	// C returns the channel on which the time is delivered.
	C() <-chan time.Time
}

// Real implements Clock using the standard time package.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time { return time.Now() }

// NewTimer creates a new time.Timer.
func (Real) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) Stop() bool                 { return t.timer.Stop() }
func (t *realTimer) Reset(d time.Duration) bool { return t.timer.Reset(d) }
func (t *realTimer) C() <-chan time.Time        { return t.timer.C }
