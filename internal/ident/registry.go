package ident

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefix starts every generated dispatch identifier. Identifiers are used as
// markup ids, so they must begin with a letter.
const Prefix = "o_fi"

// Source produces the identifiers of one render.
type Source interface {
	Next() (string, error)
}

// UUIDSource generates random identifiers.
//
// Thread-safety: UUIDSource is stateless and safe for concurrent use.
type UUIDSource struct{}

// Next returns Prefix followed by 32 hex digits of a random UUID.
func (UUIDSource) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate dispatch id: %w", err)
	}
	return Prefix + strings.ReplaceAll(id.String(), "-", ""), nil
}

// Registry maps the identifiers of the current render to their values.
//
// Not safe for concurrent use; a form drives its registry from one
// dispatch call at a time.
type Registry[T any] struct {
	live   map[string]T
	render int
}

// NewRegistry creates an empty registry. Call Begin before assigning.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{live: make(map[string]T)}
}

// Begin starts a new render. Every identifier of the previous render stops
// resolving.
func (r *Registry[T]) Begin() {
	r.live = make(map[string]T)
	r.render++
}

// Assign takes the next identifier from src and binds it to v.
// Returns an error if src repeats an identifier within the render.
func (r *Registry[T]) Assign(src Source, v T) (string, error) {
	id, err := src.Next()
	if err != nil {
		return "", err
	}
	if _, dup := r.live[id]; dup {
		return "", fmt.Errorf("duplicate dispatch id %q in render %d", id, r.render)
	}
	r.live[id] = v
	return id, nil
}

// Resolve returns the value bound to id in the current render.
func (r *Registry[T]) Resolve(id string) (T, bool) {
	v, ok := r.live[id]
	return v, ok
}

// Len returns the number of live identifiers.
func (r *Registry[T]) Len() int {
	return len(r.live)
}

// Render returns the ordinal of the current render, starting at 1.
// Zero means Begin was never called.
func (r *Registry[T]) Render() int {
	return r.render
}
