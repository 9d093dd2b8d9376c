// Package trans lowers a function's typed, resolved AST body into a
// per-function Control-Flow Graph of basic blocks with terminator branches
// (spec.md §4.F). It is the only package that constructs ir.BasicBlock
// branches and statement lists; everything downstream (internal/gen) treats
// the CFG as read-only.
package trans

import (
	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/ir"
)

// ctx mirrors the fields the original trans_t context carries: the function
// under construction, the current basic block (nil immediately after a
// terminator), the enclosing loop's continue/break targets, and the
// expression-lowering mode.
type ctx struct {
	fn      *ir.Fn
	bb      *ir.BasicBlock
	contBB  *ir.BasicBlock
	breakBB *ir.BasicBlock
	isLval  bool
	diags   *diag.Bag
}

// Lower runs trans over f's body into fn's CFG, appending to fn's existing
// entry block and finishing with an unconditional branch from whatever
// block is current when the body ends into fn.ExitBB (the function's
// implicit epilogue fallthrough).
func Lower(fn *ir.Fn, f *ast.Function, diags *diag.Bag) {
	c := &ctx{fn: fn, bb: fn.EntryBB, diags: diags}
	c.block(f.Blk)

	if c.bb != nil {
		c.bb.AddBranch(nil, fn.ExitBB)
		fn.AddBasicBlock(c.bb)
	}
}

func (c *ctx) block(blk *ast.Block) {
	if blk == nil {
		return
	}
	c.stmtList(blk.Stmts)
}

func (c *ctx) stmtList(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.stmt(s)
	}
}

// stmt lowers one statement, handling the label-entry protocol common to
// every statement kind before dispatching on its concrete type.
func (c *ctx) stmt(s ast.Stmt) {
	if raw := ast.LabelBB(s); raw != nil {
		labelBB, ok := raw.(*ir.BasicBlock)
		if !ok {
			diag.Fatal("trans: label block has unexpected type %T", raw)
		}
		if c.bb != nil {
			c.bb.AddBranch(nil, labelBB)
			c.fn.AddBasicBlock(c.bb)
		}
		c.bb = labelBB
	} else if c.bb == nil {
		c.bb = ir.NewBasicBlock()
	}

	switch v := s.(type) {
	case *ast.NullStmt:
		// no-op

	case *ast.ExpStmt:
		c.expStmt(v)

	case *ast.AssignStmt:
		c.assignStmt(v)

	case *ast.IfStmt:
		c.ifStmt(v)

	case *ast.LoopStmt:
		c.loopStmt(v)

	case *ast.SwitchStmt:
		c.switchStmt(v)

	case *ast.CaseStmt:
		// reached only if a case arm appears outside a switch's block,
		// which the resolver never produces; kept as a no-op for parity
		// with the original's exhaustive dispatch.

	case *ast.ReturnStmt:
		c.returnStmt(v)

	case *ast.ContinueStmt:
		c.continueStmt(v)

	case *ast.BreakStmt:
		c.breakStmt(v)

	case *ast.GotoStmt:
		c.gotoStmt(v)

	case *ast.DDLStmt:
		c.bb.AddStmt(v)

	case *ast.BlkStmt:
		if v.Blk != nil {
			c.block(v.Blk)
		}

	default:
		diag.Fatal("trans: unhandled statement kind %T", s)
	}
}

func (c *ctx) expStmt(stmt *ast.ExpStmt) {
	lowered := c.exprToLval(stmt.Exp)
	c.isLval = false

	// Side effects produced while lowering the expression (e.g. a
	// computed array address) must execute before the statement itself,
	// so piggybacks are flushed first regardless of whether the
	// top-level expression is kept.
	if c.bb.HasPiggyback() {
		c.bb.FlushPiggybacks()
	}

	if ast.IsCall(lowered) {
		c.bb.AddStmt(ast.NewExpStmt(lowered, stmt.Pos()))
	}
}

func (c *ctx) ifStmt(stmt *ast.IfStmt) {
	prevBB := c.bb
	nextBB := ir.NewBasicBlock()

	c.fn.AddBasicBlock(prevBB)

	c.bb = ir.NewBasicBlock()
	cond := c.exprToRval(stmt.CondExp)
	prevBB.AddBranch(cond, c.bb)

	if stmt.IfBlk != nil {
		c.block(stmt.IfBlk)
	}
	if c.bb != nil {
		c.bb.AddBranch(nil, nextBB)
		c.fn.AddBasicBlock(c.bb)
	}

	for _, elif := range stmt.ElifStmts {
		c.bb = ir.NewBasicBlock()
		elifCond := c.exprToRval(elif.CondExp)
		prevBB.AddBranch(elifCond, c.bb)

		if elif.IfBlk != nil {
			c.block(elif.IfBlk)
		}
		if c.bb != nil {
			c.bb.AddBranch(nil, nextBB)
			c.fn.AddBasicBlock(c.bb)
		}
	}

	if stmt.ElseBlk != nil {
		c.bb = ir.NewBasicBlock()
		prevBB.AddBranch(nil, c.bb)

		c.block(stmt.ElseBlk)
		if c.bb != nil {
			c.bb.AddBranch(nil, nextBB)
			c.fn.AddBasicBlock(c.bb)
		}
	} else {
		prevBB.AddBranch(nil, nextBB)
	}

	c.bb = nextBB
}

func (c *ctx) loopStmt(stmt *ast.LoopStmt) {
	switch stmt.Kind {
	case ast.LoopFor:
		c.forLoop(stmt)
	case ast.LoopArray:
		c.diags.Append(diag.KindNotSupported, stmt.Pos(), "array-loop statements are not supported")
	default:
		diag.Fatal("trans: invalid loop kind %d", stmt.Kind)
	}
}

func (c *ctx) forLoop(stmt *ast.LoopStmt) {
	prevBB := c.bb
	condBB := ir.NewBasicBlock()
	nextBB := ir.NewBasicBlock()

	if stmt.InitStmt != nil {
		c.stmt(stmt.InitStmt)
		prevBB = c.bb
	}

	prevBB.AddBranch(nil, condBB)
	c.fn.AddBasicBlock(prevBB)

	c.bb = condBB
	savedCont, savedBreak := c.contBB, c.breakBB
	c.contBB = condBB
	c.breakBB = nextBB

	c.block(stmt.Blk)

	c.contBB, c.breakBB = savedCont, savedBreak

	if c.bb != nil {
		c.bb.AddBranch(nil, condBB)
		c.fn.AddBasicBlock(c.bb)
	} else {
		condBB.AddBranch(nil, condBB)
	}

	c.bb = nextBB
}

func (c *ctx) switchStmt(stmt *ast.SwitchStmt) {
	prevBB := c.bb
	nextBB := ir.NewBasicBlock()

	c.fn.AddBasicBlock(prevBB)

	savedCont := c.contBB
	c.contBB = nil
	savedBreak := c.breakBB
	c.breakBB = nextBB

	cases := stmt.Blk.Stmts
	c.bb = ir.NewBasicBlock()

	for i, raw := range cases {
		caseStmt, ok := raw.(*ast.CaseStmt)
		if !ok {
			diag.Fatal("trans: switch block contains non-case statement %T", raw)
		}

		var guard ast.Expr
		if caseStmt.ValExp != nil {
			guard = c.exprToRval(caseStmt.ValExp)
		}
		prevBB.AddBranch(guard, c.bb)

		c.stmtList(caseStmt.Stmts)

		last := i == len(cases)-1
		if c.bb != nil {
			if last {
				c.bb.AddBranch(nil, nextBB)
				c.fn.AddBasicBlock(c.bb)
			} else {
				caseBB := ir.NewBasicBlock()
				c.bb.AddBranch(nil, caseBB)
				c.fn.AddBasicBlock(c.bb)
				c.bb = caseBB
			}
		} else if !last {
			c.bb = ir.NewBasicBlock()
		}
	}

	if !stmt.HasDflt {
		prevBB.AddBranch(nil, nextBB)
	}

	c.contBB = savedCont
	c.breakBB = savedBreak
	c.bb = nextBB
}

// returnStmt lowers a return statement. A function with more than one
// return value, or a single by-address return value, was given a
// caller-owned return buffer instead of a WebAssembly result (ir.newABI's
// ReturnByPointer); its return value(s) are stored into that buffer ahead
// of a bare return rather than carried as the ReturnStmt's own argument,
// since gen never needs to encode a multi-value result expression.
func (c *ctx) returnStmt(stmt *ast.ReturnStmt) {
	if c.fn.Abi.ReturnByPointer {
		c.returnByPointer(stmt)
	} else {
		var arg ast.Expr
		if stmt.ArgExp != nil {
			arg = c.exprToRval(stmt.ArgExp)
		}
		c.bb.AddStmt(ast.NewReturn(arg, stmt.Pos()))
	}

	c.bb.AddBranch(nil, c.fn.ExitBB)
	c.fn.AddBasicBlock(c.bb)

	c.bb = nil
}

// returnByPointer stores every returned value at its tupleSlotSize-wide slot
// in the buffer the caller passed at fn.RetIdx, then emits a valueless
// return.
func (c *ctx) returnByPointer(stmt *ast.ReturnStmt) {
	var elems []ast.Expr
	switch v := stmt.ArgExp.(type) {
	case nil:
	case *ast.TupleExpr:
		elems = v.Elems
	default:
		elems = []ast.Expr{v}
	}

	offset := 0
	for _, el := range elems {
		val := c.exprToRval(el)
		target := ast.NewStackRef(c.fn.RetIdx, 0, offset, *val.Meta(), stmt.Pos())
		c.bb.AddStmt(ast.NewAssign(target, val, stmt.Pos()))
		offset += tupleSlotSize
	}

	c.bb.AddStmt(ast.NewReturn(nil, stmt.Pos()))
}

func (c *ctx) continueStmt(stmt *ast.ContinueStmt) {
	if c.contBB == nil {
		diag.Fatal("trans: continue statement outside a loop")
	}

	c.bb.AddBranch(nil, c.contBB)
	c.fn.AddBasicBlock(c.bb)
	c.bb = nil
}

func (c *ctx) breakStmt(stmt *ast.BreakStmt) {
	if c.breakBB == nil {
		diag.Fatal("trans: break statement outside a loop or switch")
	}

	if stmt.CondExp != nil {
		cond := c.exprToRval(stmt.CondExp)
		nextBB := ir.NewBasicBlock()

		c.bb.AddBranch(cond, c.breakBB)
		c.bb.AddBranch(nil, nextBB)
		c.fn.AddBasicBlock(c.bb)

		c.bb = nextBB
	} else {
		c.bb.AddBranch(nil, c.breakBB)
		c.fn.AddBasicBlock(c.bb)
		c.bb = nil
	}
}

func (c *ctx) gotoStmt(stmt *ast.GotoStmt) {
	raw := ast.LabelBB(stmt.Target)
	labelBB, ok := raw.(*ir.BasicBlock)
	if !ok || labelBB == nil {
		diag.Fatal("trans: goto target has no pre-allocated label block")
	}

	c.bb.AddBranch(nil, labelBB)
	c.fn.AddBasicBlock(c.bb)
	c.bb = nil
}
