package trans

import (
	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
)

// assignStmt lowers one assignment, expanding a tuple-destructuring target
// into one plain assignment per element (spec.md §4.F.1, §9). A map-typed
// scalar target is rewritten into a single call to the host's map.set
// primitive instead of a Store (spec.md §8 E6).
func (c *ctx) assignStmt(stmt *ast.AssignStmt) {
	lexp := c.exprToLval(stmt.LExp)
	rexp := c.exprToRval(stmt.RExp)

	if c.bb.HasPiggyback() {
		c.bb.FlushPiggybacks()
	}

	if access, ok := lexp.(*ast.AccessExpr); ok && access.Object.Meta().IsMap() {
		c.emitMapSet(access, rexp, stmt.Pos())
		return
	}

	if !ast.IsTupleExpr(lexp) {
		c.bb.AddStmt(ast.NewAssign(lexp, rexp, stmt.Pos()))
		return
	}

	lhsTuple, ok := lexp.(*ast.TupleExpr)
	if !ok {
		diag.Fatal("trans: tuple lvalue lowered to non-tuple expression %T", lexp)
	}
	rhsTuple, ok := rexp.(*ast.TupleExpr)
	if !ok {
		diag.Fatal("trans: tuple assignment rhs did not lower to a tuple expression")
	}

	c.destructureTuple(lhsTuple.Elems, rhsTuple.Elems, stmt.Pos())
}

// destructureTuple pairs lhs slots with rhs values. When the counts match,
// pairing is positional. When lhs has more slots than rhs, each rhs tuple
// element is flattened one level and consumed element-for-element until lhs
// is exhausted; every other rhs element consumes exactly one lhs slot.
//
// The original source advances its lhs cursor twice for a non-tuple rhs
// element in the mismatched-arity branch (var_idx++ used once to fetch the
// element then discarded, and again to actually store into); spec.md §9
// resolves this as unintended. This implementation advances the lhs cursor
// exactly once per rhs value consumed.
func (c *ctx) destructureTuple(lhs, rhs []ast.Expr, pos diag.Position) {
	if len(lhs) == len(rhs) {
		for i := range rhs {
			c.bb.AddStmt(ast.NewAssign(lhs[i], rhs[i], pos))
		}
		return
	}

	if len(lhs) < len(rhs) {
		diag.Fatal("trans: tuple assignment has more rhs values (%d) than lhs slots (%d)", len(rhs), len(lhs))
	}

	varIdx := 0
	for _, val := range rhs {
		if val.Meta().IsTuple() {
			flat, ok := val.(*ast.TupleExpr)
			if !ok {
				diag.Fatal("trans: tuple-typed rhs element lowered to non-tuple expression %T", val)
			}
			for _, elem := range flat.Elems {
				if varIdx >= len(lhs) {
					c.diags.Append(diag.KindTupleArityMismatch, pos, "tuple assignment: rhs has more elements than lhs slots")
					return
				}
				c.bb.AddStmt(ast.NewAssign(lhs[varIdx], elem, pos))
				varIdx++
			}
		} else {
			if varIdx >= len(lhs) {
				c.diags.Append(diag.KindTupleArityMismatch, pos, "tuple assignment: rhs has more elements than lhs slots")
				return
			}
			c.bb.AddStmt(ast.NewAssign(lhs[varIdx], val, pos))
			varIdx++
		}
	}

	if varIdx != len(lhs) {
		c.diags.Append(diag.KindTupleArityMismatch, pos, "tuple assignment: %d lhs slots left unassigned", len(lhs)-varIdx)
	}
}

func (c *ctx) emitMapSet(access *ast.AccessExpr, value ast.Expr, pos diag.Position) {
	call := c.hostCall(hostMapSet, []ast.Expr{access.Object, access.Index, value}, ast.Meta{}, pos)
	c.bb.AddStmt(ast.NewExpStmt(call, pos))
}
