package ir

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/types"
)

// Abi is the WebAssembly-level signature and import/export metadata for a
// function: module name (left empty by newABI; host imports are described
// by internal/abi/env.go's Import instead), function name, the full ordered parameter type list
// — four reserved system params first, then the source parameters, then an
// optional trailing return-buffer pointer — and a single result type.
type Abi struct {
	Module string
	Name   string

	Params   []api.ValueType
	HasResult bool
	Result   api.ValueType

	// ReturnByPointer is true when the function has more than one return
	// value or a single by-address return value; callers must then supply a
	// caller-owned buffer as the trailing argument.
	ReturnByPointer bool
}

// newABI builds fn's ABI descriptor from the resolved function identifier
// and wires fn.RetIdx when a return-by-pointer slot is needed.
func newABI(fn *Fn, f *ast.Function) *Abi {
	abi := &Abi{Name: fn.Name}

	// Reserved system parameters occupy local indices 0..3.
	abi.Params = append(abi.Params, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32)

	for _, p := range f.Params {
		p.Idx = len(abi.Params)
		abi.Params = append(abi.Params, types.ToValueType(p.Meta.Type))
	}

	switch {
	case len(f.Returns) == 0:
		abi.HasResult = false

	case len(f.Returns) == 1 && !types.ByAddress(f.Returns[0].Meta.Type):
		abi.HasResult = true
		abi.Result = types.ToValueType(f.Returns[0].Meta.Type)

	default:
		// Multiple return values, or a single by-address return value:
		// return-by-pointer, trailing i32 parameter.
		abi.ReturnByPointer = true
		fn.RetIdx = len(abi.Params)
		abi.Params = append(abi.Params, api.ValueTypeI32)
		abi.HasResult = false
	}

	fn.nextLocal = len(abi.Params)

	return abi
}
