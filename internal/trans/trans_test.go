package trans

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/types"
)

func pos() diag.Position { return diag.Position{Line: 1, Col: 1} }

func int32Meta() ast.Meta { return ast.Meta{Type: types.Int32, Storage: ast.StorageLocal} }

func TestE1Assignment(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}

	a := ast.NewIdentifier("a", ast.ModLocal, int32Meta(), pos())
	b := ast.NewIdentifier("b", ast.ModLocal, int32Meta(), pos())

	rhs := ast.NewBinary(ast.Add, ast.NewIdentExpr(b, pos()), ast.NewLit(int32(1), int32Meta(), pos()), int32Meta(), pos())
	assign := ast.NewAssign(ast.NewIdentExpr(a, pos()), rhs, pos())
	f.Blk.Add(assign)

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)

	require.False(t, diags.HasErrors())
	require.Len(t, fn.EntryBB.Stmts, 1)

	got, ok := fn.EntryBB.Stmts[0].(*ast.AssignStmt)
	require.True(t, ok)

	lref, ok := got.LExp.(*ast.LocalRefExpr)
	require.True(t, ok)
	require.Equal(t, a.Idx, lref.Idx)

	bin, ok := got.RExp.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.Add, bin.Op)

	bref, ok := bin.LHS.(*ast.LocalRefExpr)
	require.True(t, ok)
	require.Equal(t, b.Idx, bref.Idx)
}

func TestE2IfElse(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}

	x := ast.NewIdentifier("x", ast.ModLocal, int32Meta(), pos())
	y := ast.NewIdentifier("y", ast.ModLocal, int32Meta(), pos())

	ifBlk := ast.NewBlock()
	ifBlk.Add(ast.NewAssign(ast.NewIdentExpr(y, pos()), ast.NewLit(int32(1), int32Meta(), pos()), pos()))
	elseBlk := ast.NewBlock()
	elseBlk.Add(ast.NewAssign(ast.NewIdentExpr(y, pos()), ast.NewLit(int32(2), int32Meta(), pos()), pos()))

	ifStmt := ast.NewIf(ast.NewIdentExpr(x, pos()), ifBlk, nil, elseBlk, pos())
	f.Blk.Add(ifStmt)

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)
	require.False(t, diags.HasErrors())

	prev := fn.EntryBB
	require.Len(t, prev.Branches, 2)
	require.NotNil(t, prev.Branches[0].Guard)
	require.Nil(t, prev.Branches[1].Guard)

	thenBB := prev.Branches[0].Target
	elseBB := prev.Branches[1].Target
	require.Len(t, thenBB.Stmts, 1)
	require.Len(t, elseBB.Stmts, 1)

	require.True(t, thenBB.IsUnconditional())
	require.True(t, elseBB.IsUnconditional())
	require.Equal(t, thenBB.Branches[0].Target, elseBB.Branches[0].Target)
}

func TestE3ForLoopWithBreak(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}

	c := ast.NewIdentifier("c", ast.ModLocal, int32Meta(), pos())

	loopBlk := ast.NewBlock()
	breakStmt := ast.NewBreak(nil, pos())
	ifBlk := ast.NewBlock()
	ifBlk.Add(breakStmt)
	loopBlk.Add(ast.NewIf(ast.NewIdentExpr(c, pos()), ifBlk, nil, nil, pos()))

	loop := ast.NewForLoop(nil, loopBlk, pos())
	f.Blk.Add(loop)

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)
	require.False(t, diags.HasErrors())

	require.True(t, fn.EntryBB.IsUnconditional())
	headerBB := fn.EntryBB.Branches[0].Target
	require.Len(t, headerBB.Branches, 2)
	require.NotNil(t, headerBB.Branches[0].Guard)
	require.Nil(t, headerBB.Branches[1].Guard)

	// headerBB.Branches[0] leads into the if-statement's then-arm, which
	// holds the break and exits the loop; headerBB.Branches[1] is the
	// if-statement's implicit join, which closes the loop body and
	// branches back to the header.
	thenBB := headerBB.Branches[0].Target
	joinBB := headerBB.Branches[1].Target

	require.True(t, thenBB.IsUnconditional())
	loopExitBB := thenBB.Branches[0].Target
	require.NotEqual(t, loopExitBB, headerBB)
	require.NotEqual(t, loopExitBB, joinBB)

	require.True(t, joinBB.IsUnconditional())
	require.Equal(t, headerBB, joinBB.Branches[0].Target)
}

func TestE4ReturnFromMiddle(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Returns: []*ast.Identifier{
		ast.NewIdentifier("r", ast.ModLocal, int32Meta(), pos()),
	}, Blk: ast.NewBlock()}

	x := ast.NewIdentifier("x", ast.ModLocal, int32Meta(), pos())
	y := ast.NewIdentifier("y", ast.ModLocal, int32Meta(), pos())

	ifBlk := ast.NewBlock()
	ifBlk.Add(ast.NewReturn(ast.NewLit(int32(0), int32Meta(), pos()), pos()))

	f.Blk.Add(ast.NewIf(ast.NewIdentExpr(x, pos()), ifBlk, nil, nil, pos()))
	f.Blk.Add(ast.NewAssign(ast.NewIdentExpr(y, pos()), ast.NewLit(int32(1), int32Meta(), pos()), pos()))

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)
	require.False(t, diags.HasErrors())

	thenBB := fn.EntryBB.Branches[0].Target
	require.Len(t, thenBB.Stmts, 1)
	_, ok := thenBB.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	require.True(t, thenBB.IsUnconditional())
	require.Equal(t, fn.ExitBB, thenBB.Branches[0].Target)

	joinBB := fn.EntryBB.Branches[1].Target
	require.Len(t, joinBB.Stmts, 1)
	_, ok = joinBB.Stmts[0].(*ast.AssignStmt)
	require.True(t, ok)
}

func TestE6MapAssign(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}

	m := ast.NewIdentifier("m", ast.ModLocal, ast.Meta{Type: types.Map, Storage: ast.StorageLocal}, pos())
	k := ast.NewIdentifier("k", ast.ModLocal, int32Meta(), pos())
	v := ast.NewIdentifier("v", ast.ModLocal, int32Meta(), pos())

	access := ast.NewAccess(ast.NewIdentExpr(m, pos()), ast.NewIdentExpr(k, pos()), int32Meta(), pos())
	assign := ast.NewAssign(access, ast.NewIdentExpr(v, pos()), pos())
	f.Blk.Add(assign)

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)
	require.False(t, diags.HasErrors())

	require.Len(t, fn.EntryBB.Stmts, 1)
	expStmt, ok := fn.EntryBB.Stmts[0].(*ast.ExpStmt)
	require.True(t, ok)

	call, ok := expStmt.Exp.(*ast.CallExpr)
	require.True(t, ok)
	require.Equal(t, hostMapSet, call.Callee.Name)
	require.Len(t, call.Args, 3)
}

func TestContinueOutsideLoopIsFatal(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}
	f.Blk.Add(ast.NewContinue(pos()))

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	require.Panics(t, func() { Lower(fn, f, diags) })
}

func TestArrayLoopReportsNotSupported(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}
	f.Blk.Add(ast.NewArrayLoop(ast.NewBlock(), pos()))

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)

	require.True(t, diags.HasErrors())
	errs := diags.Errors()
	require.Len(t, errs, 1)
	uerr, ok := errs[0].(*diag.UserError)
	require.True(t, ok)
	require.Equal(t, diag.KindNotSupported, uerr.Kind)
}

func TestTupleAssignArityMatch(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}

	a := ast.NewIdentifier("a", ast.ModLocal, int32Meta(), pos())
	b := ast.NewIdentifier("b", ast.ModLocal, int32Meta(), pos())
	va := ast.NewIdentifier("va", ast.ModLocal, int32Meta(), pos())
	vb := ast.NewIdentifier("vb", ast.ModLocal, int32Meta(), pos())

	lhs := ast.NewTuple([]ast.Expr{ast.NewIdentExpr(a, pos()), ast.NewIdentExpr(b, pos())}, ast.Meta{Type: types.Tuple, ElemCount: 2}, pos())
	rhs := ast.NewTuple([]ast.Expr{ast.NewIdentExpr(va, pos()), ast.NewIdentExpr(vb, pos())}, ast.Meta{Type: types.Tuple, ElemCount: 2}, pos())

	f.Blk.Add(ast.NewAssign(lhs, rhs, pos()))

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)
	require.False(t, diags.HasErrors())
	require.Len(t, fn.EntryBB.Stmts, 2)
}

func TestE5TupleReturningCall(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}

	a := ast.NewIdentifier("a", ast.ModLocal, int32Meta(), pos())
	b := ast.NewIdentifier("b", ast.ModLocal, int32Meta(), pos())
	c := ast.NewIdentifier("c", ast.ModLocal, int32Meta(), pos())
	callee := ast.NewIdentifier("g", ast.ModGlobal, ast.Meta{}, pos())

	tupleMeta := ast.Meta{Type: types.Tuple, ElemCount: 3}
	lhs := ast.NewTuple([]ast.Expr{
		ast.NewIdentExpr(a, pos()), ast.NewIdentExpr(b, pos()), ast.NewIdentExpr(c, pos()),
	}, tupleMeta, pos())
	call := ast.NewCall(callee, nil, tupleMeta, pos())

	f.Blk.Add(ast.NewAssign(lhs, call, pos()))

	fn := ir.NewFn(mod, f)
	diags := &diag.Bag{}
	Lower(fn, f, diags)
	require.False(t, diags.HasErrors())

	require.Len(t, fn.EntryBB.Stmts, 4)

	callStmt, ok := fn.EntryBB.Stmts[0].(*ast.ExpStmt)
	require.True(t, ok)
	callExp, ok := callStmt.Exp.(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, callExp.Args, 1) // trailing return-buffer pointer only

	ptr, ok := callExp.Args[0].(*ast.StackRefExpr)
	require.True(t, ok)
	require.Equal(t, fn.StackIdx, ptr.BaseIdx)

	for i := 1; i <= 3; i++ {
		_, ok := fn.EntryBB.Stmts[i].(*ast.AssignStmt)
		require.True(t, ok)
	}
	require.EqualValues(t, 12, fn.StackUsage)
}
