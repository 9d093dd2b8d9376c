package gen

import (
	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/types"
	"github.com/dilcheck/aergo/internal/wasmenc"
)

// stmtsFor lowers one basic block's straight-line statements. By spec.md
// §3.5's invariant, only ExpStmt, AssignStmt, ReturnStmt, and DDLStmt ever
// reach this point — trans.Lower fully resolves everything else (if, loop,
// switch, break, continue, goto) into basic blocks and branches. This
// mirrors the original's gen_stmt.c stmt_gen switch.
func (g *funcGen) stmtsFor(b *ir.BasicBlock) []wasmenc.Expr {
	var out []wasmenc.Expr
	for _, s := range b.Stmts {
		out = append(out, g.stmtGen(s)...)
	}
	return out
}

func (g *funcGen) stmtGen(s ast.Stmt) []wasmenc.Expr {
	switch v := s.(type) {
	case *ast.ExpStmt:
		return g.expStmtGen(v)
	case *ast.AssignStmt:
		return []wasmenc.Expr{g.assignGen(v)}
	case *ast.ReturnStmt:
		return []wasmenc.Expr{g.returnGen(v)}
	case *ast.DDLStmt:
		// Data-definition statements are a documented no-op (spec.md §9
		// open question); nothing to emit.
		return nil
	default:
		diag.Fatal("gen: unhandled statement kind %T reached code generation", s)
		return nil
	}
}

// expStmtGen lowers a bare call statement. trans only ever leaves a call
// expression in this position (internal/trans's expStmt keeps ExpStmt only
// for ast.IsCall results); whether the call's result needs dropping is
// decided from the resolved callee's real signature, not from the call
// node's own Meta, since a host call synthesized with a zero-value Meta
// (map.set, for instance) carries no reliable type tag of its own.
func (g *funcGen) expStmtGen(stmt *ast.ExpStmt) []wasmenc.Expr {
	call, ok := stmt.Exp.(*ast.CallExpr)
	if !ok {
		diag.Fatal("gen: expression statement is not a call (%T)", stmt.Exp)
	}
	e := g.exprGen(call)
	if g.resolver.HasResult(call.Callee.Name) {
		return []wasmenc.Expr{wasmenc.Drop{Value: e}}
	}
	return []wasmenc.Expr{e}
}

func (g *funcGen) returnGen(stmt *ast.ReturnStmt) wasmenc.Expr {
	if stmt.ArgExp == nil {
		return wasmenc.Return{}
	}
	return wasmenc.Return{Value: g.exprGen(stmt.ArgExp)}
}

// assignGen dispatches on the lowered assignment target, mirroring
// gen_stmt.c's stmt_gen_assign. A map-typed target never reaches here: trans
// rewrites it into a map.set call before the statement is added to a basic
// block (internal/trans/assign.go's emitMapSet).
func (g *funcGen) assignGen(stmt *ast.AssignStmt) wasmenc.Expr {
	value := g.exprGen(stmt.RExp)

	switch l := stmt.LExp.(type) {
	case *ast.GlobalRefExpr:
		return wasmenc.SetGlobal{Name: l.Name, Value: value}

	case *ast.LocalRefExpr:
		return wasmenc.SetLocal{Idx: wasmenc.Index(l.Idx), Value: value}

	case *ast.ReturnLocalExpr:
		t := types.ToValueType(stmt.RExp.Meta().Type)
		size := types.LinearSize(stmt.RExp.Meta().Type)
		addr := wasmenc.Expr(wasmenc.GetLocal{Idx: wasmenc.Index(l.Idx)})
		return wasmenc.Store(t, size, addr, value, wasmenc.MemArg{Align: alignLog2(size)})

	case *ast.StackRefExpr:
		t := types.ToValueType(l.Meta().Type)
		size := types.LinearSize(l.Meta().Type)
		addr := g.stackAddr(l)
		return wasmenc.Store(t, size, addr, value, wasmenc.MemArg{Align: alignLog2(size), Offset: uint32(l.Offset)})

	default:
		diag.Fatal("gen: assignment target lowered to unexpected expression %T", stmt.LExp)
		return nil
	}
}
