// Package cooldown gates a repeatable action behind a minimum elapsed time.
package cooldown

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/numbertheorist/internal/schedule"
)

// ErrNegativeDuration is returned when a duration or elapsed time is negative.
var ErrNegativeDuration = errors.New("cooldown: negative duration")

// Timer tracks readiness of a gated action.
// A timer that has never been touched is ready.
type Timer struct {
	clock     schedule.Clock
	lastTouch time.Time
	duration  time.Duration
}

// New creates a timer reading time from clock.
func New(clock schedule.Clock) *Timer {
	if clock == nil {
		clock = schedule.SystemClock{}
	}
	return &Timer{clock: clock}
}

// Arm sets the cooldown length without touching the timer.
func (t *Timer) Arm(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeDuration, d)
	}
	t.duration = d
	return nil
}

// Duration returns the configured cooldown length.
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Touch records now as the moment the gated action ran.
func (t *Timer) Touch() {
	t.lastTouch = t.clock.Now()
}

// Ready reports whether at least Duration has elapsed since the last touch.
func (t *Timer) Ready() bool {
	return t.Remaining() == 0
}

// Remaining returns the time left before the timer is ready, never negative.
func (t *Timer) Remaining() time.Duration {
	if t.lastTouch.IsZero() {
		return 0
	}
	left := t.duration - t.clock.Now().Sub(t.lastTouch)
	if left < 0 {
		return 0
	}
	return left
}

// Elapsed returns the time since the last touch, or Duration if never touched.
func (t *Timer) Elapsed() time.Duration {
	if t.lastTouch.IsZero() {
		return t.duration
	}
	return t.clock.Now().Sub(t.lastTouch)
}

// State is the serializable form of a Timer. It is relative to the
// moment of capture so it survives a change of clock base.
type State struct {
	Elapsed  time.Duration
	Duration time.Duration
}

// stateJSON is the wire form of State, in milliseconds.
type stateJSON struct {
	ElapsedMs  int64 `json:"elapsedMs"`
	DurationMs int64 `json:"durationMs"`
}

// MarshalJSON encodes the state in milliseconds.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		ElapsedMs:  s.Elapsed.Milliseconds(),
		DurationMs: s.Duration.Milliseconds(),
	})
}

// UnmarshalJSON decodes a millisecond state.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Elapsed = time.Duration(raw.ElapsedMs) * time.Millisecond
	s.Duration = time.Duration(raw.DurationMs) * time.Millisecond
	return nil
}

// State captures the timer.
func (t *Timer) State() State {
	return State{
		Elapsed:  t.Elapsed(),
		Duration: t.duration,
	}
}

// Restore rebuilds the timer from a captured state.
func (t *Timer) Restore(s State) error {
	if s.Elapsed < 0 || s.Duration < 0 {
		return fmt.Errorf("%w: elapsed %s, duration %s", ErrNegativeDuration, s.Elapsed, s.Duration)
	}
	t.duration = s.Duration
	if s.Elapsed >= s.Duration {
		t.lastTouch = time.Time{}
		return nil
	}
	t.lastTouch = t.clock.Now().Add(-s.Elapsed)
	return nil
}
