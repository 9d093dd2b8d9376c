// Package abi declares the host import surface the compiled module links
// against: every name trans (internal/trans) is allowed to synthesize a call
// to, and the WebAssembly signature gen (internal/gen) must emit for it.
// These are the only legal callees a compiled unit may reference by name
// that are not a contract function of its own; a call to anything else is a
// programmer bug in trans, not a user error.
package abi

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/dilcheck/aergo/internal/wasmenc"
)

// HostModule is the import module name every descriptor below is registered
// under (spec.md §6.2).
const HostModule = "env"

// Import is one importable host function: its name within HostModule and
// its WebAssembly signature.
type Import struct {
	Name string
	Sig  wasmenc.FunctionType
}

func i32(n int) []api.ValueType {
	v := make([]api.ValueType, n)
	for i := range v {
		v[i] = api.ValueTypeI32
	}
	return v
}

// Env lists every host primitive (map.*, bigint.*, account.*, heap.alloc,
// abort, assert) a compiled contract may import. Map handles occupy a
// WebAssembly i64 (types.Map's linear size); every pointer into linear
// memory — keys, values, bigint operands/results, strings, account handles
// — is passed as an opaque i32 address, since the compiler itself does not
// carry enough per-call type information to specialize these signatures by
// element type (the same simplification trans.lowerCall documents for
// tuple-returning calls; recorded in DESIGN.md).
var Env = []Import{
	{Name: "map.new", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI64}}},
	{Name: "map.get", Sig: wasmenc.FunctionType{Params: []api.ValueType{api.ValueTypeI64, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "map.set", Sig: wasmenc.FunctionType{Params: []api.ValueType{api.ValueTypeI64, api.ValueTypeI32, api.ValueTypeI32}}},
	{Name: "map.del", Sig: wasmenc.FunctionType{Params: []api.ValueType{api.ValueTypeI64, api.ValueTypeI32}}},

	{Name: "bigint.add", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "bigint.sub", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "bigint.mul", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "bigint.div", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "bigint.mod", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "bigint.cmp", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "bigint.from_str", Sig: wasmenc.FunctionType{Params: i32(1), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "bigint.to_str", Sig: wasmenc.FunctionType{Params: i32(1), Results: []api.ValueType{api.ValueTypeI32}}},

	{Name: "account.balance", Sig: wasmenc.FunctionType{Params: i32(1), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "account.transfer", Sig: wasmenc.FunctionType{Params: i32(2), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "account.address", Sig: wasmenc.FunctionType{Params: i32(1), Results: []api.ValueType{api.ValueTypeI32}}},

	{Name: "heap.alloc", Sig: wasmenc.FunctionType{Params: i32(1), Results: []api.ValueType{api.ValueTypeI32}}},
	{Name: "abort", Sig: wasmenc.FunctionType{Params: i32(1)}},
	{Name: "assert", Sig: wasmenc.FunctionType{Params: i32(2)}},
}

// ByName looks up a host import descriptor. gen calls this to tell a
// synthesized host call apart from a call to another compiled function: a
// callee name found here always resolves to an env import, never to a
// function defined in the module being compiled.
func ByName(name string) (Import, bool) {
	for _, imp := range Env {
		if imp.Name == name {
			return imp, true
		}
	}
	return Import{}, false
}
