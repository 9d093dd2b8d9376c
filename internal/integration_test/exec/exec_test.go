// Package exec runs a compiled module's bytes through wasmer-go, an
// execution engine independent of this repository's own wasmenc encoder, as
// an oracle that the bytes Compile produces are a well-formed, loadable
// WebAssembly module and behave the way the source fixture says they should.
package exec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"github.com/wasmerio/wasmer-go/wasmer"

	aergowasmc "github.com/dilcheck/aergo"
	"github.com/dilcheck/aergo/internal/abi"
	"github.com/dilcheck/aergo/internal/ast"
)

func wasmerValueTypes(ts []api.ValueType) []*wasmer.ValueType {
	kinds := make([]wasmer.ValueKind, len(ts))
	for i, t := range ts {
		switch t {
		case api.ValueTypeI64:
			kinds[i] = wasmer.I64
		case api.ValueTypeF32:
			kinds[i] = wasmer.F32
		case api.ValueTypeF64:
			kinds[i] = wasmer.F64
		default:
			kinds[i] = wasmer.I32
		}
	}
	return wasmer.NewValueTypes(kinds...)
}

func zeroValue(t api.ValueType) wasmer.Value {
	switch t {
	case api.ValueTypeI64:
		return wasmer.NewI64(int64(0))
	case api.ValueTypeF32:
		return wasmer.NewF32(float32(0))
	case api.ValueTypeF64:
		return wasmer.NewF64(float64(0))
	default:
		return wasmer.NewI32(int32(0))
	}
}

func compile(t *testing.T, fixtureJSON string) []byte {
	t.Helper()

	fns, err := ast.DecodeFixture([]byte(fixtureJSON))
	require.NoError(t, err)

	cfg := aergowasmc.NewCompilerConfig().WithInitialMemoryPages(1)
	res, err := aergowasmc.Compile(cfg, fns)
	require.NoError(t, err)
	require.False(t, res.Diags.HasErrors(), res.Diags.Err())

	return res.Wasm
}

func instantiate(t *testing.T, wasmBytes []byte) *wasmer.Instance {
	t.Helper()

	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)

	module, err := wasmer.NewModule(store, wasmBytes)
	require.NoError(t, err)

	imports := wasmer.NewImportObject()
	externs := map[string]wasmer.IntoExtern{
		"heap.alloc": wasmer.NewFunction(
			store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes(wasmer.I32)),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				return []wasmer.Value{wasmer.NewI32(0)}, nil
			},
		),
		"abort": wasmer.NewFunction(
			store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes()),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				return nil, nil
			},
		),
		"assert": wasmer.NewFunction(
			store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				return nil, nil
			},
		),
	}
	// The module imports every abi.Env primitive; each one not stubbed above
	// resolves to a function that returns zero values.
	for _, imp := range abi.Env {
		if _, ok := externs[imp.Name]; ok {
			continue
		}
		results := imp.Sig.Results
		externs[imp.Name] = wasmer.NewFunction(
			store,
			wasmer.NewFunctionType(wasmerValueTypes(imp.Sig.Params), wasmerValueTypes(results)),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				out := make([]wasmer.Value, len(results))
				for i, t := range results {
					out[i] = zeroValue(t)
				}
				return out, nil
			},
		)
	}
	imports.Register("env", externs)

	instance, err := wasmer.NewInstance(module, imports)
	require.NoError(t, err)
	return instance
}

// TestDoubleReturnsScaledValue compiles a one-function contract that returns
// its single int32 parameter multiplied by two, then calls the exported
// function through wasmer-go and checks the result.
func TestDoubleReturnsScaledValue(t *testing.T) {
	const fixtureJSON = `{
		"functions": [{
			"contract": "Sample",
			"name": "double",
			"public": true,
			"params": [{"name": "x", "type": "int32"}],
			"returns": [{"name": "result", "type": "int32"}],
			"body": [
				{
					"kind": "return",
					"arg": {
						"kind": "binary",
						"op": "*",
						"lhs": {"kind": "ident", "name": "x"},
						"rhs": {"kind": "lit", "type": "int32", "value": 2}
					}
				}
			]
		}]
	}`

	wasmBytes := compile(t, fixtureJSON)
	instance := instantiate(t, wasmBytes)

	double, err := instance.Exports.GetFunction("double")
	require.NoError(t, err)

	// The reserved system parameters (contract, heap base, stack base,
	// relooper variable) occupy the function's first four WebAssembly
	// parameters ahead of the contract's own "x" (internal/ir's newABI).
	result, err := double(0, 0, 0, 0, int32(21))
	require.NoError(t, err)
	require.EqualValues(t, 42, result)
}

// TestIfElseSelectsBranch compiles a function whose body is a guard chain
// (if/else) to exercise the relooper's nested If/Else cascade end to end,
// not just its straight-line path.
func TestIfElseSelectsBranch(t *testing.T) {
	const fixtureJSON = `{
		"functions": [{
			"contract": "Sample",
			"name": "abs",
			"public": true,
			"params": [{"name": "x", "type": "int32"}],
			"returns": [{"name": "result", "type": "int32"}],
			"body": [
				{
					"kind": "if",
					"cond": {
						"kind": "binary", "op": "<",
						"lhs": {"kind": "ident", "name": "x"},
						"rhs": {"kind": "lit", "type": "int32", "value": 0}
					},
					"then": [
						{
							"kind": "return",
							"arg": {
								"kind": "unary", "op": "-",
								"expr": {"kind": "ident", "name": "x"}
							}
						}
					],
					"else": [
						{"kind": "return", "arg": {"kind": "ident", "name": "x"}}
					]
				}
			]
		}]
	}`

	wasmBytes := compile(t, fixtureJSON)
	instance := instantiate(t, wasmBytes)

	abs, err := instance.Exports.GetFunction("abs")
	require.NoError(t, err)

	neg, err := abs(0, 0, 0, 0, int32(-7))
	require.NoError(t, err)
	require.EqualValues(t, 7, neg)

	pos, err := abs(0, 0, 0, 0, int32(7))
	require.NoError(t, err)
	require.EqualValues(t, 7, pos)
}

// TestForLoopAccumulates exercises the relooper's loop-header detection and
// Block{Loop{...}} wrapping by summing 1..n.
func TestForLoopAccumulates(t *testing.T) {
	const fixtureJSON = `{
		"functions": [{
			"contract": "Sample",
			"name": "sumTo",
			"public": true,
			"params": [{"name": "n", "type": "int32"}],
			"returns": [{"name": "total", "type": "int32"}],
			"body": [
				{"kind": "var", "var": {"name": "total", "type": "int32"}},
				{"kind": "var", "var": {"name": "i", "type": "int32"}},
				{
					"kind": "assign",
					"lexp": {"kind": "ident", "name": "total"},
					"rexp": {"kind": "lit", "type": "int32", "value": 0}
				},
				{
					"kind": "assign",
					"lexp": {"kind": "ident", "name": "i"},
					"rexp": {"kind": "lit", "type": "int32", "value": 1}
				},
				{
					"kind": "for",
					"body": [
						{
							"kind": "break",
							"cond": {
								"kind": "binary", "op": ">",
								"lhs": {"kind": "ident", "name": "i"},
								"rhs": {"kind": "ident", "name": "n"}
							}
						},
						{
							"kind": "assign",
							"lexp": {"kind": "ident", "name": "total"},
							"rexp": {
								"kind": "binary", "op": "+",
								"lhs": {"kind": "ident", "name": "total"},
								"rhs": {"kind": "ident", "name": "i"}
							}
						},
						{
							"kind": "assign",
							"lexp": {"kind": "ident", "name": "i"},
							"rexp": {
								"kind": "binary", "op": "+",
								"lhs": {"kind": "ident", "name": "i"},
								"rhs": {"kind": "lit", "type": "int32", "value": 1}
							}
						}
					]
				},
				{"kind": "return", "arg": {"kind": "ident", "name": "total"}}
			]
		}]
	}`

	wasmBytes := compile(t, fixtureJSON)
	instance := instantiate(t, wasmBytes)

	sumTo, err := instance.Exports.GetFunction("sumTo")
	require.NoError(t, err)

	result, err := sumTo(0, 0, 0, 0, int32(5))
	require.NoError(t, err)
	require.EqualValues(t, 15, result)
}
