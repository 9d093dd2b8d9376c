// Package diag implements the two error classes spec'd for the compiler:
// user diagnostics, which accumulate so compilation can keep looking for
// more of them, and internal invariant violations, which are programmer
// bugs reported by panicking with a distinguishable type.
package diag

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies a user-facing diagnostic.
type Kind string

const (
	KindNotSupported      Kind = "not-supported"
	KindNameCollision     Kind = "name-collision"
	KindTupleArityMismatch Kind = "tuple-arity-mismatch"
	KindUnresolvedIdent   Kind = "unresolved-identifier"
)

// Position is a source location, supplied by the external parser/resolver
// and carried through unchanged.
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// UserError is one (kind, position) diagnostic surfaced to the collaborating
// diagnostics layer.
type UserError struct {
	Kind Kind
	Pos  Position
	Msg  string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

// Internal marks an invariant violation (spec.md §7.2): a branch to a null
// target, an lvalue that is none of global/local/stack/return/array, a
// statement kind surviving trans that should not, and similar programmer
// bugs. These are never retried and never added to a Bag.
type Internal struct {
	Msg string
}

func (e *Internal) Error() string { return "internal: " + e.Msg }

// Fatal panics with an *Internal error. The driver is expected to recover
// exactly this type at the top level and treat anything else as a genuine,
// unexpected crash.
func Fatal(format string, args ...interface{}) {
	panic(&Internal{Msg: fmt.Sprintf(format, args...)})
}

// Bag accumulates user diagnostics produced while lowering a compilation
// unit so that, per spec.md §7.1, "compilation continues where possible to
// gather additional diagnostics". It is a thin, safe-for-concurrent-Append
// wrapper over hashicorp/go-multierror.
type Bag struct {
	mu  sync.Mutex
	err *multierror.Error
}

// Append records a user diagnostic. Safe to call from multiple goroutines
// compiling independent units that share one Bag (spec.md §5).
func (b *Bag) Append(kind Kind, pos Position, format string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = multierror.Append(b.err, &UserError{
		Kind: kind,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any user diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err != nil && b.err.Len() > 0
}

// Errors returns the recorded diagnostics in the order they were appended.
func (b *Bag) Errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		return nil
	}
	return b.err.Errors
}

// Err returns the accumulated error, or nil if none were recorded. Suitable
// for returning from a function that otherwise returns (T, error).
func (b *Bag) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil || b.err.Len() == 0 {
		return nil
	}
	return b.err.ErrorOrNil()
}
