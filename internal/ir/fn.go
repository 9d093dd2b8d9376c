package ir

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/types"
)

// NameMaxLen bounds a mangled internal function name's length, matching the
// original's NAME_MAX_LEN-derived truncation.
const NameMaxLen = 64

// GlobalSlot is a module-level WebAssembly global allocated for one source
// global identifier.
type GlobalSlot struct {
	Name string
	Type api.ValueType
}

// Module owns the symbol tables shared across every function compiled for
// one contract: the module-wide global namespace (spec.md §3.5: "globally
// unique per module; enforced by the resolver" — Module.AddGlobal still
// defends that invariant for anything that reaches it directly) and the
// collected list of functions.
type Module struct {
	Globals map[string]*GlobalSlot
	Fns     []*Fn
}

func NewModule() *Module {
	return &Module{Globals: make(map[string]*GlobalSlot)}
}

// AddGlobal allocates a module-level global slot named after the source
// identifier. Fatal on a name collision: the resolver is supposed to
// guarantee uniqueness, so seeing one here is a programmer bug.
func (m *Module) AddGlobal(name string, meta ast.Meta) *GlobalSlot {
	if _, exists := m.Globals[name]; exists {
		diag.Fatal("duplicate global %q", name)
	}
	slot := &GlobalSlot{Name: name, Type: types.ToValueType(meta.Type)}
	m.Globals[name] = slot
	return slot
}

// Fn is the per-function frame: register vector, basic-block list,
// entry/exit, and slot counters (spec.md §3.3).
type Fn struct {
	mod *Module

	Name    string // mangled "<contract>$<function>"
	ExpName string // export name, set only for public source functions

	Abi *Abi

	// Types holds one WebAssembly value type per allocated local beyond the
	// four reserved system locals and the function's own parameters/return
	// pointer — i.e. the registers AddRegister hands out.
	Types []api.ValueType

	Bbs      []*BasicBlock
	bbSeen   map[uint64]bool
	EntryBB  *BasicBlock
	ExitBB   *BasicBlock

	ContIdx   int // local index of contract address
	HeapIdx   int // local index of heap base address
	StackIdx  int // local index of stack base address
	ReloopIdx int // local index of relooper variable
	RetIdx    int // local index of return-by-pointer area, or -1

	nextLocal int

	HeapUsage  uint32
	StackUsage uint32

	finalized bool
}

// mangle builds "<contract>$<function>" truncated to NameMaxLen.
func mangle(contract, fn string) string {
	name := contract + "$" + fn
	if len(name) > NameMaxLen {
		return name[:NameMaxLen]
	}
	return name
}

// NewFn constructs an empty function for f: an entry and exit block, the
// four reserved system local indices (0..3), and — via abi.go — the
// WebAssembly parameter/result shape for f's own parameters and returns.
func NewFn(mod *Module, f *ast.Function) *Fn {
	fn := &Fn{
		mod:       mod,
		Name:      mangle(f.Contract, f.Name),
		bbSeen:    make(map[uint64]bool),
		ContIdx:   0,
		HeapIdx:   1,
		StackIdx:  2,
		ReloopIdx: 3,
		RetIdx:    -1,
		nextLocal: 4,
	}
	if f.IsPublic() {
		fn.ExpName = f.Name
	}

	fn.EntryBB = NewBasicBlock()
	fn.ExitBB = NewBasicBlock()
	fn.addBasicBlockLocked(fn.EntryBB)
	fn.addBasicBlockLocked(fn.ExitBB)

	fn.Abi = newABI(fn, f)

	mod.Fns = append(mod.Fns, fn)
	return fn
}

// AddRegister appends a register whose WebAssembly type is derived from
// meta's register width and returns its new local index. Reserved locals
// (0..3) are never returned here.
func (fn *Fn) AddRegister(meta ast.Meta) int {
	if fn.finalized {
		diag.Fatal("fn %s: AddRegister called after gen started", fn.Name)
	}
	idx := fn.nextLocal
	fn.nextLocal++
	fn.Types = append(fn.Types, types.ToValueType(meta.Type))
	return idx
}

// AddGlobal delegates to the owning Module; kept as an Fn method because
// source identifiers are discovered while lowering a specific function.
func (fn *Fn) AddGlobal(name string, meta ast.Meta) *GlobalSlot {
	return fn.mod.AddGlobal(name, meta)
}

// alignOf returns the alignment (4 or 8) a value of meta's type requires in
// linear memory.
func alignOf(meta ast.Meta) uint32 {
	switch types.RegisterWidthOf(meta.Type) {
	case types.WidthI64, types.WidthF64:
		return 8
	default:
		return 4
	}
}

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}

// AddHeap advances HeapUsage by size rounded up to meta's alignment and
// returns the pre-increment offset.
func (fn *Fn) AddHeap(size uint32, meta ast.Meta) uint32 {
	base := alignUp(fn.HeapUsage, alignOf(meta))
	fn.HeapUsage = base + size
	return base
}

// AddStack follows the same policy as AddHeap, against StackUsage. Stack
// memory is reclaimed at function exit by resetting the stack-base register
// to its value on entry.
func (fn *Fn) AddStack(size uint32, meta ast.Meta) uint32 {
	base := alignUp(fn.StackUsage, alignOf(meta))
	fn.StackUsage = base + size
	return base
}

// AddBasicBlock appends bb to the function; idempotent by id.
func (fn *Fn) AddBasicBlock(bb *BasicBlock) {
	fn.addBasicBlockLocked(bb)
}

func (fn *Fn) addBasicBlockLocked(bb *BasicBlock) {
	if fn.bbSeen[bb.ID()] {
		return
	}
	fn.bbSeen[bb.ID()] = true
	fn.Bbs = append(fn.Bbs, bb)
}

// Finalize marks the function's register set closed; gen may now run.
func (fn *Fn) Finalize() { fn.finalized = true }

// String is handy in diagnostics and tests.
func (fn *Fn) String() string {
	return fmt.Sprintf("%s(blocks=%d, heap=%d, stack=%d)", fn.Name, len(fn.Bbs), fn.HeapUsage, fn.StackUsage)
}
