package clock

import "time"

// Fake is a manually-advanced Clock for deterministic tests. Advance fires
// any pending timers whose deadline has elapsed.
type Fake struct {
	now    time.Time
	timers []*fakeTimer
}

// NewFake creates a Fake clock starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time { return f.now }

// NewTimer creates a fake timer tracked by this clock.
func (f *Fake) NewTimer(d time.Duration) Timer {
	t := &fakeTimer{
		clk:      f,
		deadline: f.now.Add(d),
		ch:       make(chan time.Time, 1),
		active:   true,
	}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the fake clock forward by d, firing any timer whose
// deadline has been reached, in the order the timers were created.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
	for _, t := range f.timers {
		if t.active && !t.deadline.After(f.now) {
			t.active = false
			select {
			case t.ch <- f.now:
			default:
			}
		}
	}
}

type fakeTimer struct {
	clk      *Fake
	deadline time.Time
	ch       chan time.Time
	active   bool
}

func (t *fakeTimer) Stop() bool {
	was := t.active
	t.active = false
	return was
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	was := t.active
	t.active = true
	t.deadline = t.clk.now.Add(d)
	return was
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }
