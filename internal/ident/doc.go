// Package ident assigns and resolves per-render dispatch identifiers.
//
// Every render of a form hands each element a fresh identifier. The client
// posts one of them back as the dispatch target, and the Registry resolves it
// to exactly one live element or to none. Identifiers from an earlier render
// resolve to none once the next render begins.
//
// # Sources
//
// A Source produces identifiers for one render:
//   - UUIDSource: random, process-unique tokens (production)
//   - ReplaySession: deterministic tokens for record/replay and load testing
//
// # Replay Mode
//
// ReplayRegistry numbers renders per screen class and items per render, so a
// scripted session that renders the same screens in the same order sees the
// same identifiers. Counters are monotonic for the life of the registry and
// bounded; overflow is a configuration error (*ReplayExhaustedError), never a
// wraparound. The registry is the only process-wide mutable state in the
// engine and exists only when replay mode is enabled.
package ident
