package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs produces dispatch identifiers "id-1", "id-2", ... for tests.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same tree rendered with a fresh SequentialIDs gets the same ids.
// Unlike ident.ReplaySession it never runs out.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a source with the given prefix.
// If prefix is empty, "id-" is used.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id-"
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next identifier.
//
// Implements ident.Source.
func (s *SequentialIDs) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.prefix, s.n), nil
}

// Reset restarts numbering at 1.
func (s *SequentialIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
