package ast

import "github.com/dilcheck/aergo/internal/diag"

// BinOp enumerates binary operators the resolver may produce.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
)

// UnOp enumerates unary operators the resolver may produce.
type UnOp int

const (
	Neg UnOp = iota
	Not
	BitNot
)

// Expr is the sum type of all expression kinds. The unexported exprNode
// marker method seals the interface to this package's types. Consumers type
// switch on the concrete kind and end in a default case that reports an
// unhandled kind as an internal error; Go does not check those switches for
// exhaustiveness, so a kind a switch misses surfaces there at run time.
type Expr interface {
	exprNode()
	Meta() *Meta
	Pos() diag.Position
}

type exprBase struct {
	MetaV Meta
	PosV  diag.Position
}

func (e *exprBase) exprNode()        {}
func (e *exprBase) Meta() *Meta      { return &e.MetaV }
func (e *exprBase) Pos() diag.Position { return e.PosV }

// LitExpr is a literal constant.
type LitExpr struct {
	exprBase
	Value interface{}
}

// IdentExpr references a declared identifier by name.
type IdentExpr struct {
	exprBase
	Id *Identifier
}

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	exprBase
	Op       BinOp
	LHS, RHS Expr
}

// UnaryExpr is a unary operator application.
type UnaryExpr struct {
	exprBase
	Op      UnOp
	Operand Expr
}

// CallExpr invokes a function identifier with arguments.
type CallExpr struct {
	exprBase
	Callee *Identifier
	Args   []Expr
}

// AccessExpr indexes into an array or map-typed expression.
type AccessExpr struct {
	exprBase
	Object Expr
	Index  Expr
}

// TupleExpr groups several expressions, used both as an rvalue (a call's
// multi-value result) and as an lvalue (the left side of a destructuring
// assignment).
type TupleExpr struct {
	exprBase
	Elems []Expr
}

// The following four kinds are synthesized by trans (spec.md §3.4): every
// identifier reference on the left of an assignment or dereference is
// rewritten into exactly one of them before gen ever runs.

// GlobalRefExpr addresses a value by its exported WebAssembly global name.
type GlobalRefExpr struct {
	exprBase
	Name string
}

// LocalRefExpr addresses a value by WebAssembly local index.
type LocalRefExpr struct {
	exprBase
	Idx int
}

// StackRefExpr addresses a value in linear memory relative to a base local,
// an optional compile-time addend, and a byte offset.
type StackRefExpr struct {
	exprBase
	BaseIdx int
	Addend  int
	Offset  int
}

// ReturnLocalExpr addresses the function's return area by local index.
type ReturnLocalExpr struct {
	exprBase
	Idx int
}

func NewLit(v interface{}, m Meta, pos diag.Position) *LitExpr {
	return &LitExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Value: v}
}

func NewIdentExpr(id *Identifier, pos diag.Position) *IdentExpr {
	return &IdentExpr{exprBase: exprBase{MetaV: id.Meta, PosV: pos}, Id: id}
}

func NewBinary(op BinOp, lhs, rhs Expr, m Meta, pos diag.Position) *BinaryExpr {
	return &BinaryExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Op: op, LHS: lhs, RHS: rhs}
}

func NewUnary(op UnOp, operand Expr, m Meta, pos diag.Position) *UnaryExpr {
	return &UnaryExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Op: op, Operand: operand}
}

func NewCall(callee *Identifier, args []Expr, m Meta, pos diag.Position) *CallExpr {
	return &CallExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Callee: callee, Args: args}
}

func NewAccess(object, index Expr, m Meta, pos diag.Position) *AccessExpr {
	return &AccessExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Object: object, Index: index}
}

func NewTuple(elems []Expr, m Meta, pos diag.Position) *TupleExpr {
	return &TupleExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Elems: elems}
}

func NewGlobalRef(name string, m Meta, pos diag.Position) *GlobalRefExpr {
	return &GlobalRefExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Name: name}
}

func NewLocalRef(idx int, m Meta, pos diag.Position) *LocalRefExpr {
	return &LocalRefExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Idx: idx}
}

func NewStackRef(baseIdx, addend, offset int, m Meta, pos diag.Position) *StackRefExpr {
	return &StackRefExpr{exprBase: exprBase{MetaV: m, PosV: pos}, BaseIdx: baseIdx, Addend: addend, Offset: offset}
}

func NewReturnLocal(idx int, m Meta, pos diag.Position) *ReturnLocalExpr {
	return &ReturnLocalExpr{exprBase: exprBase{MetaV: m, PosV: pos}, Idx: idx}
}

// IsCall reports whether e is a call expression (the only rvalue expression
// kind whose side effects are retained verbatim in the IR, spec.md §4.F.1).
func IsCall(e Expr) bool {
	_, ok := e.(*CallExpr)
	return ok
}

// IsTupleExpr reports whether e is a tuple expression.
func IsTupleExpr(e Expr) bool {
	_, ok := e.(*TupleExpr)
	return ok
}
