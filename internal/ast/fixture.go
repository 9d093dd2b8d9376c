package ast

import (
	"encoding/json"
	"fmt"

	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/types"
)

// This file decodes the JSON fixture format cmd/aergowasmc accepts in place
// of a real parser and resolver (out of scope for this compiler core). A
// fixture already carries everything the resolver would otherwise compute:
// each identifier's type and storage kind. The one construct a fixture
// cannot express is goto/label, since wiring a label's pre-allocated
// ir.BasicBlock would require this package to import internal/ir, which
// would cycle back against ir's own dependency on ast; a real resolver runs
// in a build that can see both packages and is not under this constraint.

// FixtureProgram is the top-level decoded unit: every function of one
// compilation unit.
type FixtureProgram struct {
	Functions []fnFixture `json:"functions"`
}

type fnFixture struct {
	Contract string      `json:"contract"`
	Name     string      `json:"name"`
	Public   bool        `json:"public"`
	Params   []identSpec `json:"params"`
	Returns  []identSpec `json:"returns"`
	Body     []stmtSpec  `json:"body"`
}

type identSpec struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	ElemCount int    `json:"elemCount"`
	Storage   string `json:"storage"`
}

type stmtSpec struct {
	Kind string `json:"kind"`

	Exp  *exprSpec `json:"exp,omitempty"`
	LExp *exprSpec `json:"lexp,omitempty"`
	RExp *exprSpec `json:"rexp,omitempty"`
	Arg  *exprSpec `json:"arg,omitempty"`
	Args []exprSpec `json:"args,omitempty"`
	Raw  string    `json:"raw,omitempty"`

	Cond    *exprSpec  `json:"cond,omitempty"`
	Then    []stmtSpec `json:"then,omitempty"`
	Elifs   []elifSpec `json:"elifs,omitempty"`
	Else    []stmtSpec `json:"else,omitempty"`

	Init *stmtSpec  `json:"init,omitempty"`
	Body []stmtSpec `json:"body,omitempty"`

	Cases   []caseSpec `json:"cases,omitempty"`
	HasDflt bool       `json:"hasDefault,omitempty"`

	Var *identSpec `json:"var,omitempty"`
}

type elifSpec struct {
	Cond exprSpec   `json:"cond"`
	Then []stmtSpec `json:"then"`
}

type caseSpec struct {
	Val   *exprSpec  `json:"val,omitempty"`
	Stmts []stmtSpec `json:"stmts"`
}

type exprSpec struct {
	Kind string `json:"kind"`

	// lit
	Value json.RawMessage `json:"value,omitempty"`
	Type  string          `json:"type,omitempty"`

	// ident
	Name string `json:"name,omitempty"`

	// binary/unary
	Op   string    `json:"op,omitempty"`
	LHS  *exprSpec `json:"lhs,omitempty"`
	RHS  *exprSpec `json:"rhs,omitempty"`
	Expr *exprSpec `json:"expr,omitempty"`

	// call
	Callee string     `json:"callee,omitempty"`
	Args   []exprSpec `json:"args,omitempty"`

	// access
	Object *exprSpec `json:"object,omitempty"`
	Index  *exprSpec `json:"index,omitempty"`

	// tuple
	Elems []exprSpec `json:"elems,omitempty"`
}

// fixtureScope resolves identifiers by name within one function, falling
// back to the program-wide global table so two functions referencing the
// same global name share one *Identifier (ir.Fn.AddGlobal allows a given
// global to be declared exactly once; trans.allocate only runs it the first
// time a given *Identifier is seen, so reuse of the pointer is what keeps a
// second reference from tripping that check).
type fixtureScope struct {
	globals map[string]*Identifier
	locals  map[string]*Identifier
}

func newFixtureScope(globals map[string]*Identifier) *fixtureScope {
	return &fixtureScope{globals: globals, locals: map[string]*Identifier{}}
}

func (s *fixtureScope) declare(spec identSpec, defaultStorage StorageKind) (*Identifier, error) {
	storage := defaultStorage
	if spec.Storage != "" {
		k, ok := parseStorage(spec.Storage)
		if !ok {
			return nil, fmt.Errorf("fixture: identifier %q: unknown storage kind %q", spec.Name, spec.Storage)
		}
		storage = k
	}

	tag, ok := types.ParseTag(spec.Type)
	if !ok {
		return nil, fmt.Errorf("fixture: identifier %q: unknown type %q", spec.Name, spec.Type)
	}

	id := NewIdentifier(spec.Name, ModGlobal, Meta{Type: tag, ElemCount: spec.ElemCount, Storage: storage}, diag.Position{})

	if storage == StorageGlobal {
		if existing, ok := s.globals[spec.Name]; ok {
			return existing, nil
		}
		s.globals[spec.Name] = id
		return id, nil
	}

	s.locals[spec.Name] = id
	return id, nil
}

func (s *fixtureScope) lookup(name string) (*Identifier, error) {
	if id, ok := s.locals[name]; ok {
		return id, nil
	}
	if id, ok := s.globals[name]; ok {
		return id, nil
	}
	return nil, fmt.Errorf("fixture: reference to undeclared identifier %q", name)
}

func parseStorage(s string) (StorageKind, bool) {
	switch s {
	case "global":
		return StorageGlobal, true
	case "local":
		return StorageLocal, true
	case "heap":
		return StorageHeap, true
	case "stack":
		return StorageStack, true
	default:
		return StorageUnresolved, false
	}
}

// DecodeFixture parses a JSON fixture into the Function list Compile
// expects. Every identifier not explicitly given a storage kind defaults to
// "local"; parameters always resolve to StorageLocal regardless (their
// WebAssembly local index is assigned by ir.newABI, not by trans).
func DecodeFixture(data []byte) ([]*Function, error) {
	var prog FixtureProgram
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("fixture: invalid JSON: %w", err)
	}

	globals := map[string]*Identifier{}
	fns := make([]*Function, 0, len(prog.Functions))

	for _, ff := range prog.Functions {
		fn, err := buildFunction(ff, globals)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func buildFunction(ff fnFixture, globals map[string]*Identifier) (*Function, error) {
	scope := newFixtureScope(globals)

	f := &Function{Contract: ff.Contract, Name: ff.Name}
	if !ff.Public {
		f.Mod = ModLocal
	}

	for _, p := range ff.Params {
		p.Storage = "local" // a parameter's WebAssembly local index comes from ir.newABI, not trans
		id, err := scope.declare(p, StorageLocal)
		if err != nil {
			return nil, err
		}
		id.IsParam = true
		f.Params = append(f.Params, id)
	}

	for _, r := range ff.Returns {
		id, err := scope.declare(r, StorageLocal)
		if err != nil {
			return nil, err
		}
		f.Returns = append(f.Returns, id)
	}

	body, err := buildStmts(ff.Body, scope)
	if err != nil {
		return nil, err
	}
	f.Blk = NewBlock()
	f.Blk.Stmts = body

	return f, nil
}

func buildBlock(stmts []stmtSpec, scope *fixtureScope) (*Block, error) {
	built, err := buildStmts(stmts, scope)
	if err != nil {
		return nil, err
	}
	blk := NewBlock()
	blk.Stmts = built
	return blk, nil
}

func buildStmts(specs []stmtSpec, scope *fixtureScope) ([]Stmt, error) {
	out := make([]Stmt, 0, len(specs))
	for _, sp := range specs {
		s, err := buildStmt(sp, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

var zeroPos diag.Position

func buildStmt(sp stmtSpec, scope *fixtureScope) (Stmt, error) {
	switch sp.Kind {
	case "null":
		return NewNull(zeroPos), nil

	case "var":
		if sp.Var == nil {
			return nil, fmt.Errorf("fixture: var statement missing \"var\"")
		}
		if _, err := scope.declare(*sp.Var, StorageLocal); err != nil {
			return nil, err
		}
		return NewNull(zeroPos), nil

	case "exp":
		e, err := buildExpr(sp.Exp, scope)
		if err != nil {
			return nil, err
		}
		return NewExpStmt(e, zeroPos), nil

	case "assign":
		l, err := buildExpr(sp.LExp, scope)
		if err != nil {
			return nil, err
		}
		r, err := buildExpr(sp.RExp, scope)
		if err != nil {
			return nil, err
		}
		return NewAssign(l, r, zeroPos), nil

	case "if":
		cond, err := buildExpr(sp.Cond, scope)
		if err != nil {
			return nil, err
		}
		ifBlk, err := buildBlock(sp.Then, scope)
		if err != nil {
			return nil, err
		}
		var elifs []*IfStmt
		for _, el := range sp.Elifs {
			elifCond, err := buildExpr(&el.Cond, scope)
			if err != nil {
				return nil, err
			}
			elifBlk, err := buildBlock(el.Then, scope)
			if err != nil {
				return nil, err
			}
			elifs = append(elifs, NewIf(elifCond, elifBlk, nil, nil, zeroPos))
		}
		var elseBlk *Block
		if sp.Else != nil {
			elseBlk, err = buildBlock(sp.Else, scope)
			if err != nil {
				return nil, err
			}
		}
		return NewIf(cond, ifBlk, elifs, elseBlk, zeroPos), nil

	case "for":
		var init Stmt
		if sp.Init != nil {
			var err error
			init, err = buildStmt(*sp.Init, scope)
			if err != nil {
				return nil, err
			}
		}
		blk, err := buildBlock(sp.Body, scope)
		if err != nil {
			return nil, err
		}
		return NewForLoop(init, blk, zeroPos), nil

	case "switch":
		var stmts []Stmt
		for _, cs := range sp.Cases {
			var val Expr
			if cs.Val != nil {
				var err error
				val, err = buildExpr(cs.Val, scope)
				if err != nil {
					return nil, err
				}
			}
			caseBody, err := buildStmts(cs.Stmts, scope)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, NewCase(val, caseBody, zeroPos))
		}
		blk := NewBlock()
		blk.Stmts = stmts
		return NewSwitch(blk, sp.HasDflt, zeroPos), nil

	case "return":
		var arg Expr
		if sp.Arg != nil {
			var err error
			arg, err = buildExpr(sp.Arg, scope)
			if err != nil {
				return nil, err
			}
		} else if len(sp.Args) > 0 {
			elems := make([]Expr, len(sp.Args))
			for i := range sp.Args {
				e, err := buildExpr(&sp.Args[i], scope)
				if err != nil {
					return nil, err
				}
				elems[i] = e
			}
			arg = NewTuple(elems, Meta{Type: types.Tuple}, zeroPos)
		}
		return NewReturn(arg, zeroPos), nil

	case "continue":
		return NewContinue(zeroPos), nil

	case "break":
		var cond Expr
		if sp.Cond != nil {
			var err error
			cond, err = buildExpr(sp.Cond, scope)
			if err != nil {
				return nil, err
			}
		}
		return NewBreak(cond, zeroPos), nil

	case "ddl":
		return NewDDL(sp.Raw, zeroPos), nil

	case "block":
		blk, err := buildBlock(sp.Body, scope)
		if err != nil {
			return nil, err
		}
		return NewBlkStmt(blk, zeroPos), nil

	default:
		return nil, fmt.Errorf("fixture: unknown statement kind %q", sp.Kind)
	}
}

var binOps = map[string]BinOp{
	"+": Add, "-": Sub, "*": Mul, "/": Div, "%": Mod,
	"==": Eq, "!=": Ne, "<": Lt, "<=": Le, ">": Gt, ">=": Ge,
	"&&": And, "||": Or, "&": BitAnd, "|": BitOr, "^": BitXor,
	"<<": Shl, ">>": Shr,
}

var unOps = map[string]UnOp{"-": Neg, "!": Not, "~": BitNot}

func buildExpr(sp *exprSpec, scope *fixtureScope) (Expr, error) {
	if sp == nil {
		return nil, fmt.Errorf("fixture: missing expression")
	}

	switch sp.Kind {
	case "lit":
		tag, ok := types.ParseTag(sp.Type)
		if !ok {
			return nil, fmt.Errorf("fixture: literal has unknown type %q", sp.Type)
		}
		v, err := decodeLitValue(tag, sp.Value)
		if err != nil {
			return nil, err
		}
		return NewLit(v, Meta{Type: tag}, zeroPos), nil

	case "ident":
		id, err := scope.lookup(sp.Name)
		if err != nil {
			return nil, err
		}
		return NewIdentExpr(id, zeroPos), nil

	case "binary":
		op, ok := binOps[sp.Op]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown binary operator %q", sp.Op)
		}
		lhs, err := buildExpr(sp.LHS, scope)
		if err != nil {
			return nil, err
		}
		rhs, err := buildExpr(sp.RHS, scope)
		if err != nil {
			return nil, err
		}
		return NewBinary(op, lhs, rhs, *lhs.Meta(), zeroPos), nil

	case "unary":
		op, ok := unOps[sp.Op]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown unary operator %q", sp.Op)
		}
		operand, err := buildExpr(sp.Expr, scope)
		if err != nil {
			return nil, err
		}
		return NewUnary(op, operand, *operand.Meta(), zeroPos), nil

	case "call":
		// A callee is a function reference, not a declared variable, so it
		// is synthesized fresh rather than resolved through scope — exactly
		// how trans itself builds a host-primitive call (internal/trans's
		// hostCall). Its result type comes from the call site, not from any
		// prior declaration.
		resultType := types.Void
		if sp.Type != "" {
			var ok bool
			resultType, ok = types.ParseTag(sp.Type)
			if !ok {
				return nil, fmt.Errorf("fixture: call to %q has unknown result type %q", sp.Callee, sp.Type)
			}
		}
		meta := Meta{Type: resultType}
		callee := NewIdentifier(sp.Callee, ModGlobal, meta, zeroPos)

		args := make([]Expr, len(sp.Args))
		for i := range sp.Args {
			a, err := buildExpr(&sp.Args[i], scope)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return NewCall(callee, args, meta, zeroPos), nil

	case "access":
		obj, err := buildExpr(sp.Object, scope)
		if err != nil {
			return nil, err
		}
		idx, err := buildExpr(sp.Index, scope)
		if err != nil {
			return nil, err
		}
		return NewAccess(obj, idx, *obj.Meta(), zeroPos), nil

	case "tuple":
		elems := make([]Expr, len(sp.Elems))
		for i := range sp.Elems {
			e, err := buildExpr(&sp.Elems[i], scope)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return NewTuple(elems, Meta{Type: types.Tuple}, zeroPos), nil

	default:
		return nil, fmt.Errorf("fixture: unknown expression kind %q", sp.Kind)
	}
}

func decodeLitValue(tag types.Tag, raw json.RawMessage) (interface{}, error) {
	switch tag {
	case types.Bool:
		var v bool
		err := json.Unmarshal(raw, &v)
		return v, err
	case types.Int32, types.Int8, types.Int16, types.Byte:
		var v int32
		err := json.Unmarshal(raw, &v)
		return v, err
	case types.Int64:
		var v int64
		err := json.Unmarshal(raw, &v)
		return v, err
	case types.Float:
		var v float32
		err := json.Unmarshal(raw, &v)
		return v, err
	case types.Double:
		var v float64
		err := json.Unmarshal(raw, &v)
		return v, err
	default:
		return nil, fmt.Errorf("fixture: literals of type %q are not supported", types.Name(tag))
	}
}
