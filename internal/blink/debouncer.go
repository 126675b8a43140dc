// Package blink turns a per-frame eye aspect ratio signal into discrete
// double-blink trigger events.
package blink

import (
	"errors"
	"fmt"
	"time"
)

// Default detector parameters.
const (
	DefaultClosedThreshold   = 0.25
	DefaultDoubleBlinkWindow = 500 * time.Millisecond
	DefaultMinClosedFrames   = 2
)

// ErrInvalidConfig is returned by Config.Validate for unusable parameters.
var ErrInvalidConfig = errors.New("invalid blink config")

// Config holds the debouncer parameters.
type Config struct {
	// ClosedThreshold is the EAR below which the eyes count as closed.
	ClosedThreshold float64
	// Window is the longest a closure streak may last and still trigger.
	Window time.Duration
	// MinClosedFrames is the shortest closure streak, in frames, that triggers.
	MinClosedFrames int
}

// DefaultConfig returns the standard detector parameters.
func DefaultConfig() Config {
	return Config{
		ClosedThreshold: DefaultClosedThreshold,
		Window:          DefaultDoubleBlinkWindow,
		MinClosedFrames: DefaultMinClosedFrames,
	}
}

// Validate checks that the parameters describe a usable detector.
func (c Config) Validate() error {
	if c.ClosedThreshold <= 0 {
		return fmt.Errorf("%w: closed threshold must be positive, got %f", ErrInvalidConfig, c.ClosedThreshold)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, c.Window)
	}
	if c.MinClosedFrames < 1 {
		return fmt.Errorf("%w: min closed frames must be at least 1, got %d", ErrInvalidConfig, c.MinClosedFrames)
	}
	return nil
}

// State is the closure streak carried between frames.
// FirstClosure is set if and only if ClosedFrames > 0.
type State struct {
	ClosedFrames int
	FirstClosure time.Time
}

// Closing reports whether a closure streak is in progress.
func (s State) Closing() bool {
	return s.ClosedFrames > 0
}

// Debouncer detects a "double blink": a closure streak of at least
// MinClosedFrames frames that reopens within Window of its first closed frame.
//
// Two quick blinks at typical webcam frame rates collapse into one short
// low-EAR streak, so this is a single-streak detector rather than a counter
// of separate closed/open pulses. A streak emits at most one trigger, and the
// state is reset whenever a streak ends, whether or not it triggered.
//
// Not safe for concurrent use; feed it from the frame loop.
type Debouncer struct {
	cfg   Config
	state State
}

// NewDebouncer creates a Debouncer. The config must already be validated.
func NewDebouncer(cfg Config) *Debouncer {
	return &Debouncer{cfg: cfg}
}

// Config returns the detector parameters.
func (d *Debouncer) Config() Config {
	return d.cfg
}

// Step advances state by one frame with average EAR ear observed at now.
// It returns the next state and whether the frame completed a double blink.
func (d *Debouncer) Step(state State, ear float64, now time.Time) (State, bool) {
	if ear < d.cfg.ClosedThreshold {
		if state.ClosedFrames == 0 {
			state.FirstClosure = now
		}
		state.ClosedFrames++
		return state, false
	}

	if state.ClosedFrames == 0 {
		return state, false
	}

	// The closure streak just ended
	fired := now.Sub(state.FirstClosure) < d.cfg.Window &&
		state.ClosedFrames >= d.cfg.MinClosedFrames

	return State{}, fired
}

// Feed advances the debouncer's own state and reports whether a double
// blink completed on this frame.
func (d *Debouncer) Feed(ear float64, now time.Time) bool {
	next, fired := d.Step(d.state, ear, now)
	d.state = next
	return fired
}

// State returns the current closure streak.
func (d *Debouncer) State() State {
	return d.state
}

// Reset discards any closure streak in progress.
func (d *Debouncer) Reset() {
	d.state = State{}
}
