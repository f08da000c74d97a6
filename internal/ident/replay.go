package ident

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Default replay bounds.
const (
	DefaultMaxRenders = 9999
	DefaultMaxItems   = 999
)

// ReplayExhaustedError reports that a replay ordinal space overflowed.
// Ordinals never wrap; the error is fatal to replay mode.
type ReplayExhaustedError struct {
	// Screen is the owning screen class.
	Screen string

	// Space is "render" or "item".
	Space string

	// Limit is the configured bound that was exceeded.
	Limit int
}

func (e *ReplayExhaustedError) Error() string {
	return fmt.Sprintf("replay id space exhausted: screen %q exceeded %d %ss", e.Screen, e.Limit, e.Space)
}

// IsReplayExhausted returns true if err is a *ReplayExhaustedError.
func IsReplayExhausted(err error) bool {
	var re *ReplayExhaustedError
	return errors.As(err, &re)
}

// ReplayRegistry hands out deterministic identifier sessions.
//
// Thread-safety: safe for concurrent use; several forms may render at once.
type ReplayRegistry struct {
	mu         sync.Mutex
	maxRenders int
	maxItems   int
	renders    map[string]int
}

// NewReplayRegistry creates a registry with the given bounds.
// Non-positive bounds fall back to the defaults.
func NewReplayRegistry(maxRenders, maxItems int) *ReplayRegistry {
	if maxRenders <= 0 {
		maxRenders = DefaultMaxRenders
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &ReplayRegistry{
		maxRenders: maxRenders,
		maxItems:   maxItems,
		renders:    make(map[string]int),
	}
}

// Session starts the next render of screen. The counter for screen is created
// on first use.
func (r *ReplayRegistry) Session(screen string) (*ReplaySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.renders[screen] + 1
	if n > r.maxRenders {
		return nil, &ReplayExhaustedError{Screen: screen, Space: "render", Limit: r.maxRenders}
	}
	r.renders[screen] = n
	return &ReplaySession{
		screen:   screen,
		key:      screenKey(screen),
		render:   n,
		maxItems: r.maxItems,
	}, nil
}

// Renders returns how many sessions screen has started.
func (r *ReplayRegistry) Renders(screen string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders[screen]
}

// Reset forgets every counter. It ends a replay run; normal dispatch never
// calls it.
func (r *ReplayRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.renders)
}

// ReplaySession is the Source for one render of one screen.
type ReplaySession struct {
	screen   string
	key      string
	render   int
	item     int
	maxItems int
}

// Next returns the identifier for the next item of this render.
func (s *ReplaySession) Next() (string, error) {
	if s.item >= s.maxItems {
		return "", &ReplayExhaustedError{Screen: s.screen, Space: "item", Limit: s.maxItems}
	}
	s.item++
	return fmt.Sprintf("%s%s_%d_%d", Prefix, s.key, s.render, s.item), nil
}

// screenKey reduces a screen class name to identifier-safe characters.
func screenKey(screen string) string {
	var b strings.Builder
	for _, r := range screen {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}
