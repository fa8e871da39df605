package engine

import "github.com/dop251/goja"

// Ownership documents the Keep/Move convention carried over from the C
// handle API (spec.md §3, DESIGN.md OQ-1). It is not load-bearing in Go
// - goja.Value is already GC-managed - but callers follow it anyway so
// the API shape and call-site intent matches the original's ownership
// contract.
type Ownership int

const (
	// Keep means the callee borrows the value; the caller retains it.
	Keep Ownership = iota
	// Move means the callee takes logical ownership; the caller must not
	// use the value again.
	Move
)

// Handle wraps a goja.Value with its Ownership tag. Functions that
// accept values "by move" per spec.md §3 take a Handle instead of a
// bare goja.Value so the intent is visible at the call site, even
// though Go's garbage collector makes the distinction non-binding.
type Handle struct {
	Value     goja.Value
	Ownership Ownership
}

// Keeps wraps v as a borrowed handle.
func Keeps(v goja.Value) Handle {
	return Handle{Value: v, Ownership: Keep}
}

// Moves wraps v as a moved handle.
func Moves(v goja.Value) Handle {
	return Handle{Value: v, Ownership: Move}
}
