// Package ir implements the per-function Control-Flow Graph IR that trans
// produces and gen consumes: basic blocks (this file), the function/frame
// builder (fn.go), and ABI descriptors (abi.go).
package ir

import (
	"sync/atomic"

	"github.com/dilcheck/aergo/internal/ast"
)

var nextBBID uint64

// Branch is an ordered (optional guard, target) pair. Branches on a block
// are evaluated in declared order; the first whose guard is absent or
// evaluates truthy is taken.
type Branch struct {
	Guard  ast.Expr // nil means unconditional
	Target *BasicBlock
}

// BasicBlock is a maximal straight-line statement sequence terminated by one
// or more branches. Ids are unique process-wide (spec.md requires only
// function-local uniqueness, but a global counter trivially satisfies that
// while staying safe across the concurrently-compiled units described in
// spec.md §5).
type BasicBlock struct {
	id       uint64
	Stmts    []ast.Stmt
	Branches []Branch
	Pgbacks  []ast.Stmt
}

// NewBasicBlock returns a fresh, unattached basic block.
func NewBasicBlock() *BasicBlock {
	return &BasicBlock{id: atomic.AddUint64(&nextBBID, 1)}
}

// ID returns the block's unique identifier.
func (b *BasicBlock) ID() uint64 { return b.id }

// AddStmt appends a simple statement. Statements execute before branches.
func (b *BasicBlock) AddStmt(s ast.Stmt) { b.Stmts = append(b.Stmts, s) }

// AddBranch appends a branch. guard == nil means unconditional; a block
// holding a sole unguarded branch is unconditional.
func (b *BasicBlock) AddBranch(guard ast.Expr, target *BasicBlock) {
	b.Branches = append(b.Branches, Branch{Guard: guard, Target: target})
}

// AddPiggyback records a statement produced as a side effect of lowering a
// larger expression, deferred until the enclosing statement boundary.
func (b *BasicBlock) AddPiggyback(s ast.Stmt) { b.Pgbacks = append(b.Pgbacks, s) }

// HasPiggyback reports whether any piggyback statements are pending.
func (b *BasicBlock) HasPiggyback() bool { return len(b.Pgbacks) > 0 }

// FlushPiggybacks appends every pending piggyback statement to the block's
// statement list, in order, then clears the piggyback list.
func (b *BasicBlock) FlushPiggybacks() {
	b.Stmts = append(b.Stmts, b.Pgbacks...)
	b.Pgbacks = nil
}

// IsUnconditional reports whether b ends in a single branch with no guard.
func (b *BasicBlock) IsUnconditional() bool {
	return len(b.Branches) == 1 && b.Branches[0].Guard == nil
}
