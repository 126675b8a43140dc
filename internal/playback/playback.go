// Package playback owns the media playback session toggled by a double blink.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Toggle after Close.
var ErrClosed = errors.New("playback toggle closed")

// Session is an open playback session.
type Session interface {
	Close() error
}

// Opener starts playback sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// Toggle holds at most one Session. Each call to Toggle opens a session when
// none is active and closes the active one otherwise.
type Toggle struct {
	opener Opener

	mu      sync.Mutex
	session Session
	closed  bool
}

// NewToggle creates an inactive Toggle.
func NewToggle(opener Opener) *Toggle {
	return &Toggle{opener: opener}
}

// Toggle flips the session state and reports whether a session is now
// active. A failed open leaves the toggle inactive. A failed close still
// clears the session.
func (t *Toggle) Toggle(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false, ErrClosed
	}

	if t.session != nil {
		s := t.session
		t.session = nil
		if err := s.Close(); err != nil {
			return false, fmt.Errorf("close playback: %w", err)
		}
		return false, nil
	}

	s, err := t.opener.Open(ctx)
	if err != nil {
		return false, fmt.Errorf("open playback: %w", err)
	}
	t.session = s
	return true, nil
}

// Active reports whether a session is open.
func (t *Toggle) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

// Close closes the active session, if any, and disables the toggle.
// Only the first call has any effect.
func (t *Toggle) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.session == nil {
		return nil
	}
	s := t.session
	t.session = nil
	return s.Close()
}
