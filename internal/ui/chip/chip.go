// Package chip provides the spring-animated dispatch progress bar, using
// harmonica the way the teacher's UI animates layout transitions. The token
// chips themselves are rendered without animation.
package chip

import "github.com/charmbracelet/harmonica"

// Spring wraps a harmonica.Spring with the position/velocity state a
// bubbletea Update loop advances one tick at a time.
type Spring struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

// NewSpring creates a critically-damped-ish spring ticking at fps, used for
// the progress bar fill.
func NewSpring(fps float64) *Spring {
	return &Spring{
		spring: harmonica.NewSpring(harmonica.FPS(int(fps)), 6.0, 0.9),
	}
}

// Pos returns the spring's current position.
func (s *Spring) Pos() float64 { return s.pos }

// Set snaps the spring directly to a position with zero velocity, used to
// reset the progress bar when an item leaves the queue.
func (s *Spring) Set(pos float64) {
	s.pos = pos
	s.vel = 0
}

// Step advances the spring one tick toward target.
func (s *Spring) Step(target float64) float64 {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, target)
	return s.pos
}

// ProgressBar renders a [width]-wide bar filled to ratio (0..1) using the
// block characters the teacher's progress displays use.
func ProgressBar(width int, ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	if width <= 0 {
		return ""
	}
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < filled {
			out[i] = '#'
		} else {
			out[i] = '-'
		}
	}
	return string(out)
}
