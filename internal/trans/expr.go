package trans

import (
	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/types"
)

// Host import names referenced by the emitted module's "env" module
// (spec.md §6.2). internal/abi/env.go declares the matching import
// descriptors under these same literal names; the two packages share no
// Go symbol to avoid trans depending on the host ABI layer.
const (
	hostMapGet = "map.get"
	hostMapSet = "map.set"

	hostBigintAdd = "bigint.add"
	hostBigintSub = "bigint.sub"
	hostBigintMul = "bigint.mul"
	hostBigintDiv = "bigint.div"
	hostBigintMod = "bigint.mod"
)

// tupleSlotSize is the width trans reserves per element of a caller-owned
// scratch buffer when a tuple-returning call is lowered to return-by-pointer
// (spec.md §8 E5). Every element is addressed through its own by-address
// pointer width; a future resolver that exposes per-element widths could
// tighten this, tracked in DESIGN.md.
const tupleSlotSize = 4

// allocate lazily assigns id a concrete storage location the first time
// trans references it, caching the result on id.Idx. Parameters already
// have Idx set by ir.newABI and are left untouched.
func (c *ctx) allocate(id *ast.Identifier) {
	if id.Idx != -1 {
		return
	}

	switch id.Meta.Storage {
	case ast.StorageGlobal:
		c.fn.AddGlobal(id.Name, id.Meta)
		id.Idx = 0 // globals are addressed by name, not index

	case ast.StorageLocal:
		id.Idx = c.fn.AddRegister(id.Meta)

	case ast.StorageHeap:
		id.Idx = int(c.fn.AddHeap(slotSize(id.Meta), id.Meta))

	case ast.StorageStack:
		id.Idx = int(c.fn.AddStack(slotSize(id.Meta), id.Meta))

	case ast.StorageReturn:
		id.Idx = c.fn.RetIdx

	default:
		diag.Fatal("trans: identifier %q has unresolved storage kind", id.Name)
	}
}

func slotSize(m ast.Meta) uint32 {
	n := m.ElemCount
	if n < 1 {
		n = 1
	}
	return uint32(n * types.LinearSize(m.Type))
}

// refForm converts an already-allocated identifier into its synthesized
// lvalue form (spec.md §3.4). Both lvalue and rvalue identifier contexts
// resolve to the same address-carrying expression; gen decides whether to
// load or store based on statement position.
func (c *ctx) refForm(id *ast.Identifier, pos diag.Position) ast.Expr {
	switch id.Meta.Storage {
	case ast.StorageGlobal:
		return ast.NewGlobalRef(id.Name, id.Meta, pos)
	case ast.StorageLocal:
		return ast.NewLocalRef(id.Idx, id.Meta, pos)
	case ast.StorageHeap:
		return ast.NewStackRef(c.fn.HeapIdx, 0, id.Idx, id.Meta, pos)
	case ast.StorageStack:
		return ast.NewStackRef(c.fn.StackIdx, 0, id.Idx, id.Meta, pos)
	case ast.StorageReturn:
		return ast.NewReturnLocal(id.Idx, id.Meta, pos)
	default:
		diag.Fatal("trans: identifier %q has unresolved storage kind", id.Name)
		return nil
	}
}

// exprToLval converts e into one of the address-carrying forms an
// assignment target must be (spec.md §3.4). Non-identifier, non-tuple,
// non-access expressions pass through exprToRval unchanged — they appear on
// the left only as call expressions with a retained side effect (spec.md
// §4.F.1's STMT_EXP handling).
func (c *ctx) exprToLval(e ast.Expr) ast.Expr {
	c.isLval = true
	defer func() { c.isLval = false }()

	switch v := e.(type) {
	case *ast.IdentExpr:
		c.allocate(v.Id)
		return c.refForm(v.Id, v.Pos())

	case *ast.AccessExpr:
		if v.Object.Meta().IsMap() {
			// Left as an AccessExpr of (lowered object, lowered index):
			// assignStmt recognizes this shape and rewrites the whole
			// statement into a map.set call rather than a Store.
			return ast.NewAccess(c.exprToRval(v.Object), c.exprToRval(v.Index), *v.Meta(), v.Pos())
		}
		return c.lowerAccess(v, true)

	case *ast.TupleExpr:
		elems := make([]ast.Expr, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = c.exprToLval(el)
		}
		return ast.NewTuple(elems, *v.Meta(), v.Pos())

	case *ast.GlobalRefExpr, *ast.LocalRefExpr, *ast.StackRefExpr, *ast.ReturnLocalExpr:
		return v

	default:
		return c.exprToRval(e)
	}
}

// exprToRval lowers e for use as a value: identifier reads resolve to the
// same address forms as exprToLval (gen loads from them); calls, map
// accesses, and arbitrary-precision arithmetic are rewritten into host
// primitive calls (spec.md §4.F.2).
func (c *ctx) exprToRval(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.IdentExpr:
		c.allocate(v.Id)
		return c.refForm(v.Id, v.Pos())

	case *ast.LitExpr:
		return v

	case *ast.BinaryExpr:
		return c.lowerBinary(v)

	case *ast.UnaryExpr:
		return ast.NewUnary(v.Op, c.exprToRval(v.Operand), *v.Meta(), v.Pos())

	case *ast.CallExpr:
		return c.lowerCall(v)

	case *ast.AccessExpr:
		if v.Object.Meta().IsMap() {
			return c.lowerMapGet(v)
		}
		return c.lowerAccess(v, false)

	case *ast.TupleExpr:
		elems := make([]ast.Expr, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = c.exprToRval(el)
		}
		return ast.NewTuple(elems, *v.Meta(), v.Pos())

	default:
		return e
	}
}

// lowerBinary rewrites arithmetic on arbitrary-precision integers into host
// primitive calls (spec.md §4.F.2); every other binary op lowers its
// operands and keeps its native WebAssembly form.
func (c *ctx) lowerBinary(v *ast.BinaryExpr) ast.Expr {
	lhs := c.exprToRval(v.LHS)
	rhs := c.exprToRval(v.RHS)

	if isBigInt(v.LHS.Meta().Type) {
		name, ok := bigintHostName(v.Op)
		if ok {
			return c.hostCall(name, []ast.Expr{lhs, rhs}, *v.Meta(), v.Pos())
		}
	}

	return ast.NewBinary(v.Op, lhs, rhs, *v.Meta(), v.Pos())
}

func isBigInt(t types.Tag) bool {
	return t == types.Int128 || t == types.Int256
}

func bigintHostName(op ast.BinOp) (string, bool) {
	switch op {
	case ast.Add:
		return hostBigintAdd, true
	case ast.Sub:
		return hostBigintSub, true
	case ast.Mul:
		return hostBigintMul, true
	case ast.Div:
		return hostBigintDiv, true
	case ast.Mod:
		return hostBigintMod, true
	default:
		return "", false
	}
}

// lowerAccess handles array-element addressing: the base address (object
// address plus the runtime index scaled by the element's linear-memory
// size) is computed into a fresh register via a piggyback assignment, then
// addressed as a stack-ref with that register as base (spec.md §3.4: "array
// element with runtime-computed index, handled through stack-ref after the
// index expression is lowered").
func (c *ctx) lowerAccess(v *ast.AccessExpr, lval bool) ast.Expr {
	var base ast.Expr
	if lval {
		base = c.exprToLval(v.Object)
	} else {
		base = c.exprToRval(v.Object)
	}
	index := c.exprToRval(v.Index)

	elemSize := types.LinearSize(v.Meta().Type)
	scaled := ast.NewBinary(ast.Mul, index, ast.NewLit(int32(elemSize), ast.Meta{Type: types.Int32}, v.Pos()), ast.Meta{Type: types.Int32}, v.Pos())
	addr := ast.NewBinary(ast.Add, base, scaled, ast.Meta{Type: types.Int32}, v.Pos())

	tmp := c.fn.AddRegister(ast.Meta{Type: types.Int32})
	c.bb.AddPiggyback(ast.NewAssign(ast.NewLocalRef(tmp, ast.Meta{Type: types.Int32}, v.Pos()), addr, v.Pos()))

	return ast.NewStackRef(tmp, 0, 0, *v.Meta(), v.Pos())
}

// lowerMapGet rewrites a map read into a call to the host's map.get
// primitive (spec.md §8 E6 describes the symmetric map.set write).
func (c *ctx) lowerMapGet(v *ast.AccessExpr) ast.Expr {
	mapRef := c.exprToRval(v.Object)
	key := c.exprToRval(v.Index)
	return c.hostCall(hostMapGet, []ast.Expr{mapRef, key}, *v.Meta(), v.Pos())
}

// hostCall synthesizes a call to an "env" module primitive. The callee
// identifier carries no storage kind of its own; internal/gen resolves it
// to an imported function index by name (internal/abi/env.go) rather than
// by compiled ir.Fn.
func (c *ctx) hostCall(name string, args []ast.Expr, m ast.Meta, pos diag.Position) ast.Expr {
	callee := ast.NewIdentifier(name, ast.ModGlobal, m, pos)
	return ast.NewCall(callee, args, m, pos)
}

// lowerCall lowers a call's arguments and, when the callee returns more
// than one value, rewrites it to return-by-pointer: the caller allocates a
// scratch buffer on its stack, passes its address as the trailing argument,
// records the call itself as a piggyback statement, and the call
// expression's value becomes a tuple of reads back out of that buffer
// (spec.md §8 E5).
func (c *ctx) lowerCall(v *ast.CallExpr) ast.Expr {
	args := make([]ast.Expr, len(v.Args))
	for i, a := range v.Args {
		args[i] = c.exprToRval(a)
	}

	if !v.Meta().IsTuple() || v.Meta().ElemCount <= 1 {
		return ast.NewCall(v.Callee, args, *v.Meta(), v.Pos())
	}

	n := v.Meta().ElemCount
	base := c.fn.AddStack(uint32(n*tupleSlotSize), ast.Meta{Type: types.Int32})
	ptr := ast.NewStackRef(c.fn.StackIdx, 0, int(base), ast.Meta{Type: types.Int32}, v.Pos())

	call := ast.NewCall(v.Callee, append(args, ptr), ast.Meta{Type: types.Void}, v.Pos())
	c.bb.AddPiggyback(ast.NewExpStmt(call, v.Pos()))

	elemMeta := ast.Meta{Type: types.Int32}
	elems := make([]ast.Expr, n)
	for i := 0; i < n; i++ {
		elems[i] = ast.NewStackRef(c.fn.StackIdx, 0, int(base)+i*tupleSlotSize, elemMeta, v.Pos())
	}
	return ast.NewTuple(elems, *v.Meta(), v.Pos())
}
