package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dilcheck/aergo/internal/abi"
	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/types"
)

// TestGenerateExportsPublicFunction checks that a public source function
// keeps its own name as the WebAssembly export name and that the module
// encodes without error.
func TestGenerateExportsPublicFunction(t *testing.T) {
	mod := ir.NewModule()

	f := &ast.Function{
		Contract: "Sample",
		Name:     "get",
		Blk:      ast.NewBlock(),
		Returns:  []*ast.Identifier{{Name: "result", Meta: ast.Meta{Type: types.Int32}}},
	}
	fn := ir.NewFn(mod, f)
	require.True(t, f.IsPublic())

	pos := diag.Position{Line: 1, Col: 1}
	lit := ast.NewLit(int32(7), ast.Meta{Type: types.Int32}, pos)
	fn.EntryBB.AddStmt(ast.NewReturn(lit, pos))
	fn.EntryBB.AddBranch(nil, fn.ExitBB)

	mb, err := Generate(mod, 1, "memory")
	require.NoError(t, err)

	wasmBytes, err := mb.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, wasmBytes)
	require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d}, wasmBytes[:4], "must start with the wasm magic number")
	// Export entry: name "get", kind func, index of the first defined function.
	require.Contains(t, string(wasmBytes), string([]byte{3, 'g', 'e', 't', 0x00, byte(len(abi.Env))}))
}

// TestGenerateDeclaresHostImportsBeforeFunctions checks that the combined
// function index space reserves the low indices for env.* host imports, so
// a call synthesized against abi.Env resolves to the same index module.go
// assigns when it builds the import section.
func TestGenerateDeclaresHostImportsBeforeFunctions(t *testing.T) {
	mod := ir.NewModule()

	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}
	fn := ir.NewFn(mod, f)
	fn.EntryBB.AddBranch(nil, fn.ExitBB)

	mb, err := Generate(mod, 0, "")
	require.NoError(t, err)

	wasmBytes, err := mb.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, wasmBytes)
	// "f" is exported at the first index after every abi.Env import.
	require.Contains(t, string(wasmBytes), string([]byte{1, 'f', 0x00, byte(len(abi.Env))}))
}

// TestGenerateSizesMemoryFromHeapAndStackUsage checks that a function's
// recorded heap/stack usage grows the module's linear memory past a
// floor that is too small to hold it.
func TestGenerateSizesMemoryFromHeapAndStackUsage(t *testing.T) {
	mod := ir.NewModule()

	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}
	fn := ir.NewFn(mod, f)
	fn.AddHeap(wasmPageSize, ast.Meta{Type: types.Int32})
	fn.AddStack(wasmPageSize, ast.Meta{Type: types.Int32})
	fn.EntryBB.AddBranch(nil, fn.ExitBB)

	mbSmallFloor, err := Generate(mod, 1, "memory")
	require.NoError(t, err)
	require.Greater(t, mbSmallFloor.MemoryPages(), uint32(1))

	mbBigFloor, err := Generate(mod, 100, "memory")
	require.NoError(t, err)
	require.Equal(t, uint32(100), mbBigFloor.MemoryPages())
}

// TestGenerateExportsHeapPtrGlobal checks that every module carries the
// bump allocator's exported cursor regardless of what source globals exist.
func TestGenerateExportsHeapPtrGlobal(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{Contract: "c", Name: "f", Blk: ast.NewBlock()}
	fn := ir.NewFn(mod, f)
	fn.EntryBB.AddBranch(nil, fn.ExitBB)

	mb, err := Generate(mod, 1, "memory")
	require.NoError(t, err)
	wasmBytes, err := mb.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, wasmBytes)
	// Export entry: name "heap_ptr", kind global, global index 0.
	require.Contains(t, string(wasmBytes), "\x08heap_ptr\x03\x00")
}
