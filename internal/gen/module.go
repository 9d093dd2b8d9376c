// Package gen lowers the ir package's basic-block functions into a
// WebAssembly module via wasmenc (spec.md §4.G). Generate is the package's
// single entry point; relooper.go, expr.go, stmt.go, and abi.go are its
// internal machinery.
package gen

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/dilcheck/aergo/internal/abi"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/wasmenc"
)

const (
	// wasmPageSize is WebAssembly's fixed linear-memory page granularity
	// (spec.md §6.2).
	wasmPageSize = 64 * 1024

	// runtimeAllowanceBytes is headroom reserved beyond every function's own
	// heap_usage + stack_usage: bump-allocator bookkeeping and scratch space
	// the env.* host primitives need that no ir.Fn ever accounts for in its
	// own counters.
	runtimeAllowanceBytes = wasmPageSize

	// heapPtrGlobalName is the bump allocator's cursor (spec.md §6.2). The
	// binary format's export name carries no WAT "$" sigil; "$heap_ptr"
	// names the identifier in textual WebAssembly, this is its export name.
	heapPtrGlobalName = "heap_ptr"
)

// Generate builds a complete WebAssembly module for mod: the env host
// imports, one function per ir.Fn, the module's globals, the exported
// $heap_ptr bump-allocator cursor, and a linear memory exported under
// memoryExportName (no export when memoryExportName is empty). The memory's
// initial size is the sum of every function's heap_usage + stack_usage plus
// a runtime allowance, rounded up to whole pages, never smaller than
// minPages (spec.md §6.2).
//
// Function indices must be known before any function body is built, since a
// call may target a function declared later in mod.Fns (mutual recursion,
// or simply forward reference) or itself. Generate therefore runs in two
// passes: the first declares every host import and every ir.Fn's combined
// index into one Resolver; the second builds each function's body against
// that fully-populated Resolver and hands it to the builder in the same
// order the indices were reserved in.
func Generate(mod *ir.Module, minPages uint32, memoryExportName string) (*wasmenc.ModuleBuilder, error) {
	mb := wasmenc.NewModuleBuilder()
	r := NewResolver()

	for _, imp := range abi.Env {
		idx := mb.AddImportFunc(abi.HostModule, imp.Name, imp.Sig)
		r.Declare(imp.Name, idx, len(imp.Sig.Results) > 0)
	}

	for i, fn := range mod.Fns {
		idx := wasmenc.Index(len(abi.Env) + i)
		r.Declare(fn.Name, idx, fn.Abi.HasResult)
	}

	for _, fn := range mod.Fns {
		fn.Finalize()
		body := buildFunctionBody(fn, r)
		idx := mb.AddFunction(fn.Name, Signature(fn), fn.Types, body)
		if fn.ExpName != "" {
			mb.SetExportName(idx, fn.ExpName)
		}
	}

	// Every source global is given a bare zero-init constant rather than a
	// synthetic constructor function: the value set trans ever assigns a
	// GlobalSlot is limited to the zero values api.ValueType already
	// expresses directly, so a constructor would run once to compute
	// constants the global declaration can already hold (see DESIGN.md).
	for _, slot := range mod.Globals {
		mb.AddGlobal(slot.Name, slot.Type, true, nil)
	}

	heapPtrIdx := mb.AddGlobal(heapPtrGlobalName, api.ValueTypeI32, true, wasmenc.ConstI32{Value: 0})
	mb.SetGlobalExportName(heapPtrIdx, heapPtrGlobalName)

	pages := requiredPages(mod, minPages)
	mb.SetMemory(pages)
	if memoryExportName != "" {
		mb.ExportMemory(memoryExportName)
	}

	return mb, nil
}

// requiredPages sums every function's heap_usage + stack_usage, adds the
// runtime allowance, and rounds up to whole 64 KiB pages, never returning
// fewer than floor pages.
func requiredPages(mod *ir.Module, floor uint32) uint32 {
	var bytes uint64
	for _, fn := range mod.Fns {
		bytes += uint64(fn.HeapUsage) + uint64(fn.StackUsage)
	}
	bytes += runtimeAllowanceBytes

	pages := uint32((bytes + wasmPageSize - 1) / wasmPageSize)
	if pages < floor {
		return floor
	}
	return pages
}
