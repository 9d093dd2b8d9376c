package gen

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/wasmenc"
)

// Resolver maps a call's callee name to its index in the module's combined
// function index space and reports whether the callee leaves a value on the
// stack. trans never tells gen whether a synthesized call targets a host
// import or a compiled function (internal/trans/expr.go's hostCall and
// lowerCall both just produce an *ast.CallExpr); module.go populates one
// Resolver up front, covering both namespaces, so gen's expression and
// statement codegen never has to care which one it is.
type Resolver struct {
	index     map[string]wasmenc.Index
	hasResult map[string]bool
}

func NewResolver() *Resolver {
	return &Resolver{index: map[string]wasmenc.Index{}, hasResult: map[string]bool{}}
}

// Declare registers name's index and result arity. Called once per host
// import and once per compiled function while module.go builds the combined
// index space.
func (r *Resolver) Declare(name string, idx wasmenc.Index, hasResult bool) {
	r.index[name] = idx
	r.hasResult[name] = hasResult
}

// Index returns name's function index. A miss is a programmer bug: trans is
// only allowed to synthesize calls to names this Resolver was built from
// (internal/abi/env.go's host names, or a module's own mangled Fn.Name).
func (r *Resolver) Index(name string) wasmenc.Index {
	idx, ok := r.index[name]
	if !ok {
		diag.Fatal("gen: call to unresolved function %q", name)
	}
	return idx
}

// HasResult reports whether a call to name leaves a value on the stack.
func (r *Resolver) HasResult(name string) bool {
	v, ok := r.hasResult[name]
	if !ok {
		diag.Fatal("gen: call to unresolved function %q", name)
	}
	return v
}

// Signature builds the WebAssembly function type fn.Abi describes.
func Signature(fn *ir.Fn) wasmenc.FunctionType {
	sig := wasmenc.FunctionType{Params: fn.Abi.Params}
	if fn.Abi.HasResult {
		sig.Results = []api.ValueType{fn.Abi.Result}
	}
	return sig
}
