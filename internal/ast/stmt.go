package ast

import "github.com/dilcheck/aergo/internal/diag"

// LoopKind distinguishes the two loop statement forms the source grammar
// recognizes. Only LoopFor is implemented; LoopArray is a named non-goal
// (spec.md §4.F.1, §9).
type LoopKind int

const (
	LoopFor LoopKind = iota
	LoopArray
)

// Stmt is the sum type of all statement kinds trans consumes. After trans
// has run, only ExpStmt, AssignStmt, ReturnStmt, and DDLStmt may remain in a
// basic block (spec.md §3.5 invariant).
type Stmt interface {
	stmtNode()
	Pos() diag.Position
}

// stmtBase is embedded by every concrete statement. LabelBB, when non-nil,
// is the pre-allocated basic block a resolver-created goto target must
// branch into; its concrete type is *ir.BasicBlock, but ast cannot import
// ir without a cycle, so it is carried as an opaque reference exactly like
// wazero's api package decouples its interfaces from internal
// implementations.
type stmtBase struct {
	PosV    diag.Position
	LabelBB interface{}
}

func (s *stmtBase) stmtNode()          {}
func (s *stmtBase) Pos() diag.Position { return s.PosV }

type NullStmt struct{ stmtBase }

type ExpStmt struct {
	stmtBase
	Exp Expr
}

type AssignStmt struct {
	stmtBase
	LExp, RExp Expr
}

type IfStmt struct {
	stmtBase
	CondExp   Expr
	IfBlk     *Block
	ElifStmts []*IfStmt
	ElseBlk   *Block
}

type LoopStmt struct {
	stmtBase
	Kind     LoopKind
	InitStmt Stmt
	Blk      *Block
}

type SwitchStmt struct {
	stmtBase
	Blk     *Block
	HasDflt bool
}

// CaseStmt is a sibling arm of a SwitchStmt's Blk. ValExp is nil for the
// default arm.
type CaseStmt struct {
	stmtBase
	ValExp Expr
	Stmts  []Stmt
}

type ReturnStmt struct {
	stmtBase
	ArgExp Expr
}

type ContinueStmt struct{ stmtBase }

// BreakStmt supports the conditional-break form: when CondExp is non-nil the
// break is guarded and control falls through to a fresh continuation block
// otherwise (spec.md §4.F.1).
type BreakStmt struct {
	stmtBase
	CondExp Expr
}

// GotoStmt's Target is the labeled statement; its LabelBB was pre-allocated
// by the resolver.
type GotoStmt struct {
	stmtBase
	Target Stmt
}

// DDLStmt is a pass-through data-definition statement; the back end handles
// it (currently a documented no-op, spec.md §9 open question).
type DDLStmt struct {
	stmtBase
	Raw string
}

// BlkStmt wraps a nested block.
type BlkStmt struct {
	stmtBase
	Blk *Block
}

func NewNull(pos diag.Position) *NullStmt { return &NullStmt{stmtBase{PosV: pos}} }

func NewExpStmt(exp Expr, pos diag.Position) *ExpStmt {
	return &ExpStmt{stmtBase: stmtBase{PosV: pos}, Exp: exp}
}

func NewAssign(lexp, rexp Expr, pos diag.Position) *AssignStmt {
	return &AssignStmt{stmtBase: stmtBase{PosV: pos}, LExp: lexp, RExp: rexp}
}

func NewIf(cond Expr, ifBlk *Block, elifs []*IfStmt, elseBlk *Block, pos diag.Position) *IfStmt {
	return &IfStmt{stmtBase: stmtBase{PosV: pos}, CondExp: cond, IfBlk: ifBlk, ElifStmts: elifs, ElseBlk: elseBlk}
}

func NewForLoop(init Stmt, blk *Block, pos diag.Position) *LoopStmt {
	return &LoopStmt{stmtBase: stmtBase{PosV: pos}, Kind: LoopFor, InitStmt: init, Blk: blk}
}

func NewArrayLoop(blk *Block, pos diag.Position) *LoopStmt {
	return &LoopStmt{stmtBase: stmtBase{PosV: pos}, Kind: LoopArray, Blk: blk}
}

func NewSwitch(blk *Block, hasDflt bool, pos diag.Position) *SwitchStmt {
	return &SwitchStmt{stmtBase: stmtBase{PosV: pos}, Blk: blk, HasDflt: hasDflt}
}

func NewCase(valExp Expr, stmts []Stmt, pos diag.Position) *CaseStmt {
	return &CaseStmt{stmtBase: stmtBase{PosV: pos}, ValExp: valExp, Stmts: stmts}
}

func NewReturn(argExp Expr, pos diag.Position) *ReturnStmt {
	return &ReturnStmt{stmtBase: stmtBase{PosV: pos}, ArgExp: argExp}
}

func NewContinue(pos diag.Position) *ContinueStmt { return &ContinueStmt{stmtBase{PosV: pos}} }

func NewBreak(cond Expr, pos diag.Position) *BreakStmt {
	return &BreakStmt{stmtBase: stmtBase{PosV: pos}, CondExp: cond}
}

func NewGoto(target Stmt, pos diag.Position) *GotoStmt {
	return &GotoStmt{stmtBase: stmtBase{PosV: pos}, Target: target}
}

func NewDDL(raw string, pos diag.Position) *DDLStmt {
	return &DDLStmt{stmtBase: stmtBase{PosV: pos}, Raw: raw}
}

func NewBlkStmt(blk *Block, pos diag.Position) *BlkStmt {
	return &BlkStmt{stmtBase: stmtBase{PosV: pos}, Blk: blk}
}

// SetLabelBB attaches the resolver-allocated label block to a statement.
func SetLabelBB(s Stmt, bb interface{}) {
	switch v := s.(type) {
	case *NullStmt:
		v.LabelBB = bb
	case *ExpStmt:
		v.LabelBB = bb
	case *AssignStmt:
		v.LabelBB = bb
	case *IfStmt:
		v.LabelBB = bb
	case *LoopStmt:
		v.LabelBB = bb
	case *SwitchStmt:
		v.LabelBB = bb
	case *CaseStmt:
		v.LabelBB = bb
	case *ReturnStmt:
		v.LabelBB = bb
	case *ContinueStmt:
		v.LabelBB = bb
	case *BreakStmt:
		v.LabelBB = bb
	case *GotoStmt:
		v.LabelBB = bb
	case *DDLStmt:
		v.LabelBB = bb
	case *BlkStmt:
		v.LabelBB = bb
	default:
		panic("ast: SetLabelBB: unhandled statement kind")
	}
}

// LabelBB returns the resolver-allocated label block attached to s, if any.
func LabelBB(s Stmt) interface{} {
	switch v := s.(type) {
	case *NullStmt:
		return v.LabelBB
	case *ExpStmt:
		return v.LabelBB
	case *AssignStmt:
		return v.LabelBB
	case *IfStmt:
		return v.LabelBB
	case *LoopStmt:
		return v.LabelBB
	case *SwitchStmt:
		return v.LabelBB
	case *CaseStmt:
		return v.LabelBB
	case *ReturnStmt:
		return v.LabelBB
	case *ContinueStmt:
		return v.LabelBB
	case *BreakStmt:
		return v.LabelBB
	case *GotoStmt:
		return v.LabelBB
	case *DDLStmt:
		return v.LabelBB
	case *BlkStmt:
		return v.LabelBB
	default:
		panic("ast: LabelBB: unhandled statement kind")
	}
}
