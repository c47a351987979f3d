// Package animation implements the display/fade timeline of the mode
// indicator as a pure state machine, driven by mode-change events and
// timer ticks.
package animation

import (
	"time"
)

// State is the phase of the indicator timeline.
type State int

const (
	// StateIdle means no indicator is shown and no surface exists.
	StateIdle State = iota
	// StateDisplaying means the glyph is held at full opacity.
	StateDisplaying
	// StateFadingOut means opacity is stepping down frame by frame.
	StateFadingOut
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDisplaying:
		return "displaying"
	case StateFadingOut:
		return "fading-out"
	default:
		return "unknown"
	}
}

// Config contains the timing parameters of one animation cycle.
type Config struct {
	DisplayDuration time.Duration // Full-opacity hold time
	FadeDuration    time.Duration // Total fade-out time
	FadeFrames      int           // Frames drawn during the fade
}

// TickResult describes what the caller must do after a tick.
type TickResult struct {
	// Opacity is the surface opacity after the tick, in [0, 1].
	Opacity float64
	// Redraw is set when the surface must be repainted at Opacity.
	Redraw bool
	// Destroy is set when the cycle is over and the surface must be
	// torn down. A Destroy result always carries Redraw with opacity 0,
	// so the final frame is drawn before destruction.
	Destroy bool
}

// Timeline is the indicator animation state machine. It is a plain
// value owned by a single goroutine; methods must not be called
// concurrently.
type Timeline struct {
	cfg     Config
	state   State
	glyph   string
	elapsed time.Duration
	frame   int
}

// NewTimeline creates an idle timeline with the given timing parameters.
func NewTimeline(cfg Config) *Timeline {
	return &Timeline{cfg: cfg}
}

// State returns the current phase.
func (t *Timeline) State() State {
	return t.state
}

// Glyph returns the glyph of the current cycle. Meaningless while idle.
func (t *Timeline) Glyph() string {
	return t.glyph
}

// Opacity returns the current surface opacity: 1 while displaying,
// stepping down during the fade, 0 while idle.
func (t *Timeline) Opacity() float64 {
	switch t.state {
	case StateDisplaying:
		return 1
	case StateFadingOut:
		return 1 - float64(t.frame)/float64(t.cfg.FadeFrames)
	default:
		return 0
	}
}

// FrameInterval returns the tick cadence: the fade duration divided
// evenly over the fade frames.
func (t *Timeline) FrameInterval() time.Duration {
	return t.cfg.FadeDuration / time.Duration(t.cfg.FadeFrames)
}

// ModeChanged restarts the timeline at full opacity with the new glyph.
// A change arriving mid-cycle discards the old glyph and any pending
// fade entirely; there is never a blend of the two.
func (t *Timeline) ModeChanged(glyph string) {
	t.state = StateDisplaying
	t.glyph = glyph
	t.elapsed = 0
	t.frame = 0
}

// Tick advances the timeline by delta, typically one frame interval.
//
// While displaying, the elapsed time accumulates until the display
// duration is reached, then the fade begins. Each fade tick advances the
// frame index by one; the tick that reaches the final frame reports both
// the zero-opacity redraw and the destroy request, so the caller draws
// the last frame and then tears the surface down.
func (t *Timeline) Tick(delta time.Duration) TickResult {
	switch t.state {
	case StateDisplaying:
		t.elapsed += delta
		if t.elapsed >= t.cfg.DisplayDuration {
			t.state = StateFadingOut
			t.elapsed = 0
			t.frame = 0
		}
		return TickResult{Opacity: 1}

	case StateFadingOut:
		t.elapsed += delta
		t.frame++
		res := TickResult{Opacity: t.Opacity(), Redraw: true}
		if t.frame >= t.cfg.FadeFrames {
			t.state = StateIdle
			res.Opacity = 0
			res.Destroy = true
		}
		return res

	default:
		// Stray tick after the cycle ended; nothing to do.
		return TickResult{}
	}
}

// Reset forces the timeline back to idle, dropping any cycle in
// progress. Used when the surface could not be created and the cycle is
// skipped.
func (t *Timeline) Reset() {
	t.state = StateIdle
	t.glyph = ""
	t.elapsed = 0
	t.frame = 0
}

// SetConfig swaps the timing parameters. Only valid while idle so a
// running fade never changes cadence mid-flight.
func (t *Timeline) SetConfig(cfg Config) {
	if t.state != StateIdle {
		return
	}
	t.cfg = cfg
}
