// Package wasmenc is a small, portable WebAssembly expression-builder IR and
// binary module serializer. It exists to fill the role spec.md assumes a
// third-party library plays ("a third-party library is assumed to provide
// IR builders for WebAssembly expressions and the module serializer"):
// tetratelabs/wazero's own equivalent lives under its internal/wasm package
// and cannot be imported across a module boundary, so this package
// reimplements the same small surface, following wazero's binary-format
// layout, as an importable library of its own.
package wasmenc

import "github.com/tetratelabs/wazero/api"

// Index is a position in one of the module's index spaces (functions,
// globals, types, ...).
type Index = uint32

// FunctionType is a WebAssembly function signature.
type FunctionType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

func (ft FunctionType) equal(other FunctionType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i := range ft.Params {
		if ft.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if ft.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}
