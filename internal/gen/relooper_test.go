package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/types"
	"github.com/dilcheck/aergo/internal/wasmenc"
)

func newTestFn() (*ir.Module, *ir.Fn, *ast.Function) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}
	fn := ir.NewFn(mod, f)
	return mod, fn, f
}

// TestStraightLineFallsThroughWithoutBr checks that a forward branch to the
// immediately following scheduled block emits no instruction at all: falling
// off the end of the block's own code already does the job.
func TestStraightLineFallsThroughWithoutBr(t *testing.T) {
	_, fn, _ := newTestFn()

	a := ir.NewBasicBlock()
	a.AddBranch(nil, fn.ExitBB)
	fn.AddBasicBlock(a)
	fn.EntryBB.AddBranch(nil, a)

	body := buildFunctionBody(fn, NewResolver())

	require.Len(t, body, 1)
	_, ok := body[0].(wasmenc.Return)
	require.True(t, ok, "branch to ExitBB must lower to a bare Return")
}

// TestIfElseNestsAsGuardChain checks that a two-way branch renders as a
// single nested If/Else rather than a flat BrIf sequence.
func TestIfElseNestsAsGuardChain(t *testing.T) {
	_, fn, _ := newTestFn()

	thenBB := ir.NewBasicBlock()
	thenBB.AddBranch(nil, fn.ExitBB)
	elseBB := ir.NewBasicBlock()
	elseBB.AddBranch(nil, fn.ExitBB)

	cond := ast.NewLit(int32(1), ast.Meta{Type: types.Int32}, diagPos())

	fn.EntryBB.AddBranch(cond, thenBB)
	fn.EntryBB.AddBranch(nil, elseBB)
	fn.AddBasicBlock(thenBB)
	fn.AddBasicBlock(elseBB)

	body := buildFunctionBody(fn, NewResolver())

	require.Len(t, body, 1)
	block, ok := body[0].(wasmenc.Block)
	require.True(t, ok, "a guard chain must be wrapped in a wasmenc.Block")
	require.Len(t, block.Body, 1)
	ifExpr, ok := block.Body[0].(wasmenc.If)
	require.True(t, ok, "a guard chain must lower to a wasmenc.If")
	require.Len(t, ifExpr.Then, 1)
	require.Len(t, ifExpr.Else, 1)
	_, ok = ifExpr.Then[0].(wasmenc.Return)
	require.True(t, ok)
	_, ok = ifExpr.Else[0].(wasmenc.Return)
	require.True(t, ok)
}

// TestLoopWrapsInBlockLoop checks that a back edge produces a Block{Loop{}}
// pair. The header carries a conditional exit branch followed by the
// unconditional continuation branch, the same order breakStmt builds for a
// conditional break at the top of a loop body.
func TestLoopWrapsInBlockLoop(t *testing.T) {
	_, fn, _ := newTestFn()

	header := ir.NewBasicBlock()
	body := ir.NewBasicBlock()
	after := ir.NewBasicBlock()

	fn.EntryBB.AddBranch(nil, header)

	cond := ast.NewLit(int32(1), ast.Meta{Type: types.Int32}, diagPos())
	header.AddBranch(cond, after)
	header.AddBranch(nil, body)

	body.AddBranch(nil, header) // back edge: continue

	after.AddBranch(nil, fn.ExitBB)

	fn.AddBasicBlock(header)
	fn.AddBasicBlock(body)
	fn.AddBasicBlock(after)

	out := buildFunctionBody(fn, NewResolver())

	require.Len(t, out, 2) // the wrapped loop, then "after"'s straight-line code
	block, ok := out[0].(wasmenc.Block)
	require.True(t, ok, "a loop header must be wrapped in an outer Block")
	require.Len(t, block.Body, 1)
	_, ok = block.Body[0].(wasmenc.Loop)
	require.True(t, ok, "the Block's body must be a Loop")
}

func diagPos() diag.Position { return diag.Position{Line: 1, Col: 1} }
