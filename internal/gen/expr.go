package gen

import (
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/types"
	"github.com/dilcheck/aergo/internal/wasmenc"
)

// exprGen lowers one rvalue expression into its WebAssembly instruction
// tree. By the time gen sees it, every identifier reference has already
// been rewritten by trans into one of GlobalRefExpr/LocalRefExpr/
// StackRefExpr/ReturnLocalExpr (spec.md §3.4), so this switch never needs to
// consult a symbol table.
func (g *funcGen) exprGen(e ast.Expr) wasmenc.Expr {
	switch v := e.(type) {
	case *ast.LitExpr:
		return litConst(v)

	case *ast.GlobalRefExpr:
		return wasmenc.GetGlobal{Name: v.Name}

	case *ast.LocalRefExpr:
		return wasmenc.GetLocal{Idx: wasmenc.Index(v.Idx)}

	case *ast.ReturnLocalExpr:
		return wasmenc.GetLocal{Idx: wasmenc.Index(v.Idx)}

	case *ast.StackRefExpr:
		t := types.ToValueType(v.Meta().Type)
		size := types.LinearSize(v.Meta().Type)
		return wasmenc.Load(t, size, true, g.stackAddr(v), wasmenc.MemArg{Align: alignLog2(size), Offset: uint32(v.Offset)})

	case *ast.BinaryExpr:
		return g.binaryGen(v)

	case *ast.UnaryExpr:
		return g.unaryGen(v)

	case *ast.CallExpr:
		return g.callGen(v)

	default:
		diag.Fatal("gen: unhandled expression kind %T reached code generation", e)
		return nil
	}
}

// stackAddr computes a StackRefExpr's base address. Addend is a compile-time
// constant folded in at lowering time (unused by trans today, but the field
// exists because the original source's u_stk.addr carries one); Offset
// travels as the load/store's own MemArg.Offset instead of being folded into
// the address expression.
func (g *funcGen) stackAddr(ref *ast.StackRefExpr) wasmenc.Expr {
	addr := wasmenc.Expr(wasmenc.GetLocal{Idx: wasmenc.Index(ref.BaseIdx)})
	if ref.Addend != 0 {
		addr = wasmenc.Binary{Type: api.ValueTypeI32, Op: wasmenc.OpAdd, LHS: addr, RHS: wasmenc.ConstI32{Value: int32(ref.Addend)}}
	}
	return addr
}

func alignLog2(size int) uint32 {
	switch size {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		diag.Fatal("gen: unsupported memory access size %d", size)
		return 0
	}
}

func (g *funcGen) binaryGen(v *ast.BinaryExpr) wasmenc.Expr {
	opType := types.ToValueType(v.LHS.Meta().Type)
	lhs := g.exprGen(v.LHS)
	rhs := g.exprGen(v.RHS)
	return wasmenc.Binary{Type: opType, Op: binOp(v.Op, v.LHS.Meta().Type), LHS: lhs, RHS: rhs}
}

func isFloatType(t types.Tag) bool { return t == types.Float || t == types.Double }

func binOp(op ast.BinOp, t types.Tag) wasmenc.BinOp {
	isFloat := isFloatType(t)
	unsigned := t == types.Byte

	switch op {
	case ast.Add:
		if isFloat {
			return wasmenc.OpAddF
		}
		return wasmenc.OpAdd
	case ast.Sub:
		if isFloat {
			return wasmenc.OpSubF
		}
		return wasmenc.OpSub
	case ast.Mul:
		if isFloat {
			return wasmenc.OpMulF
		}
		return wasmenc.OpMul
	case ast.Div:
		if isFloat {
			return wasmenc.OpDivF
		}
		if unsigned {
			return wasmenc.OpDivU
		}
		return wasmenc.OpDivS
	case ast.Mod:
		if unsigned {
			return wasmenc.OpRemU
		}
		return wasmenc.OpRemS
	case ast.Eq:
		return wasmenc.OpEq
	case ast.Ne:
		return wasmenc.OpNe
	case ast.Lt:
		if unsigned {
			return wasmenc.OpLtU
		}
		return wasmenc.OpLtS
	case ast.Le:
		if unsigned {
			return wasmenc.OpLeU
		}
		return wasmenc.OpLeS
	case ast.Gt:
		if unsigned {
			return wasmenc.OpGtU
		}
		return wasmenc.OpGtS
	case ast.Ge:
		if unsigned {
			return wasmenc.OpGeU
		}
		return wasmenc.OpGeS
	case ast.And, ast.BitAnd:
		return wasmenc.OpAnd
	case ast.Or, ast.BitOr:
		return wasmenc.OpOr
	case ast.BitXor:
		return wasmenc.OpXor
	case ast.Shl:
		return wasmenc.OpShl
	case ast.Shr:
		if unsigned {
			return wasmenc.OpShrU
		}
		return wasmenc.OpShrS
	default:
		diag.Fatal("gen: unhandled binary operator %v", op)
		return 0
	}
}

func (g *funcGen) unaryGen(v *ast.UnaryExpr) wasmenc.Expr {
	t := types.ToValueType(v.Operand.Meta().Type)
	operand := g.exprGen(v.Operand)

	switch v.Op {
	case ast.Not:
		return wasmenc.Unary{Type: t, Op: wasmenc.OpEqz, Operand: operand}

	case ast.Neg:
		if isFloatType(v.Operand.Meta().Type) {
			return wasmenc.Unary{Type: t, Op: wasmenc.OpNeg, Operand: operand}
		}
		return wasmenc.Binary{Type: t, Op: wasmenc.OpSub, LHS: zeroConst(t), RHS: operand}

	case ast.BitNot:
		return wasmenc.Binary{Type: t, Op: wasmenc.OpXor, LHS: operand, RHS: allOnesConst(t)}

	default:
		diag.Fatal("gen: unhandled unary operator %v", v.Op)
		return nil
	}
}

func zeroConst(t api.ValueType) wasmenc.Expr {
	if t == api.ValueTypeI64 {
		return wasmenc.ConstI64{}
	}
	return wasmenc.ConstI32{}
}

func allOnesConst(t api.ValueType) wasmenc.Expr {
	if t == api.ValueTypeI64 {
		return wasmenc.ConstI64{Value: -1}
	}
	return wasmenc.ConstI32{Value: -1}
}

func (g *funcGen) callGen(v *ast.CallExpr) wasmenc.Expr {
	args := make([]wasmenc.Expr, len(v.Args))
	for i, a := range v.Args {
		args[i] = g.exprGen(a)
	}
	return wasmenc.Call{FuncIdx: g.resolver.Index(v.Callee.Name), Args: args}
}

func litConst(v *ast.LitExpr) wasmenc.Expr {
	switch val := v.Value.(type) {
	case bool:
		if val {
			return wasmenc.ConstI32{Value: 1}
		}
		return wasmenc.ConstI32{Value: 0}
	case int32:
		return wasmenc.ConstI32{Value: val}
	case int64:
		return wasmenc.ConstI64{Value: val}
	case float32:
		return wasmenc.ConstF32{Value: math.Float32bits(val)}
	case float64:
		return wasmenc.ConstF64{Value: math.Float64bits(val)}
	default:
		diag.Fatal("gen: literal of unsupported host type %T", v.Value)
		return nil
	}
}
