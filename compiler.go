package aergowasmc

import (
	"fmt"

	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/gen"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/trans"
)

// MemoryExportName is the name the compiled module's linear memory is
// exported under, matching what internal/abi's host imports assume they can
// address (spec.md §6.2).
const MemoryExportName = "memory"

// Result is one compilation's output: the encoded WebAssembly binary and
// the user diagnostics gathered along the way. Wasm is nil whenever Diags
// holds any diagnostic.
type Result struct {
	Wasm  []byte
	Diags *diag.Bag
}

// Compile runs the full pipeline (spec.md §5) over fns — every function of
// one contract — under cfg: trans lowers each function's body to a CFG, gen
// reassembles every function's CFG into structured WebAssembly control
// flow, and wasmenc serializes the result. Compilation continues past a
// user diagnostic to gather as many as possible (spec.md §7.1); Result.Diags
// reports them all. An internal invariant violation (diag.Fatal, anywhere in
// the pipeline) is recovered here and returned as a plain error instead of
// propagating as a panic — the one place in this package a panic is
// expected and handled rather than left to crash the caller.
func Compile(cfg CompilerConfig, fns []*ast.Function) (res *Result, err error) {
	c, ok := cfg.(*compilerConfig)
	if !ok {
		return nil, fmt.Errorf("aergowasmc: unsupported CompilerConfig implementation: %T", cfg)
	}

	defer func() {
		if r := recover(); r != nil {
			if internal, ok := r.(*diag.Internal); ok {
				err = fmt.Errorf("aergowasmc: internal error: %s", internal.Msg)
				return
			}
			panic(r)
		}
	}()

	diags := &diag.Bag{}
	mod := ir.NewModule()

	for _, f := range fns {
		fn := ir.NewFn(mod, f)
		trans.Lower(fn, f, diags)
	}

	if diags.HasErrors() {
		return &Result{Diags: diags}, nil
	}

	// c.initialMemoryPages is a floor, not the final size: gen.Generate
	// grows it to cover every function's own heap/stack usage plus a
	// runtime allowance (spec.md §6.2).
	mb, err := gen.Generate(mod, c.initialMemoryPages, MemoryExportName)
	if err != nil {
		return nil, fmt.Errorf("aergowasmc: code generation: %w", err)
	}

	wasmBytes, err := mb.Encode()
	if err != nil {
		return nil, fmt.Errorf("aergowasmc: encoding: %w", err)
	}

	return &Result{Wasm: wasmBytes, Diags: diags}, nil
}
