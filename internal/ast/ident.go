// Package ast holds the read-only input to the compiler: the typed,
// resolved Abstract Syntax Tree produced by the (external) parser and
// resolver. Nothing in this package is mutated by trans or gen; both stages
// only read identifier metadata that the resolver has already filled in.
package ast

import (
	"github.com/dilcheck/aergo/internal/diag"
	"github.com/dilcheck/aergo/internal/types"
)

// Modifier is a bit-set over the source modifiers a declaration can carry.
type Modifier uint8

const (
	ModGlobal   Modifier = 0
	ModLocal    Modifier = 1 << 0
	ModShared   Modifier = 1 << 1
	ModTransfer Modifier = 1 << 2
	ModReadonly Modifier = 1 << 3
)

func (m Modifier) Has(f Modifier) bool { return m&f == f }

// StorageKind classifies where an identifier's value lives at runtime. It is
// assigned by the external resolver before trans runs (spec.md §3.5
// invariant: exactly one storage kind per identifier before gen runs).
type StorageKind int

const (
	StorageUnresolved StorageKind = iota
	StorageGlobal
	StorageLocal
	StorageHeap
	StorageStack
	StorageReturn
)

// Meta carries everything trans/gen need to know about a value's type
// without re-deriving it from source text.
type Meta struct {
	Type      types.Tag
	ElemCount int   // for tuples/arrays
	ArrayDims []int // array dimensions, outermost first
	Storage   StorageKind
}

// IsTuple reports whether m describes a tuple-typed value.
func (m *Meta) IsTuple() bool { return m.Type == types.Tuple }

// IsArray reports whether m describes an array (ArrayDims non-empty).
func (m *Meta) IsArray() bool { return len(m.ArrayDims) > 0 }

// IsMap reports whether m describes a map-typed value.
func (m *Meta) IsMap() bool { return m.Type == types.Map }

// Equal reports whether two metas describe the same element type and shape,
// the comparison trans_stmt.c performs with meta_cmp before pairing a tuple
// element assignment.
func (m *Meta) Equal(other *Meta) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Type != other.Type || m.ElemCount != other.ElemCount {
		return false
	}
	if len(m.ArrayDims) != len(other.ArrayDims) {
		return false
	}
	for i, d := range m.ArrayDims {
		if other.ArrayDims[i] != d {
			return false
		}
	}
	return true
}

// Identifier names a variable, parameter, function, label, contract, or
// struct field. Its Meta is fully populated and its Storage assigned by the
// external resolver by the time trans sees it.
type Identifier struct {
	Name       string
	Mod        Modifier
	Meta       Meta
	IsParam    bool
	IsExported bool

	// Idx is -1 until the identifier is laid out. ir.newABI sets it to a
	// parameter's local index; trans's allocate sets it on first use, to a
	// register index from ir.Fn.AddRegister or to a heap/stack byte offset.
	Idx int

	// LabelStmt is non-nil when this identifier names a goto label; it
	// points at the labeled statement, whose LabelBB the resolver has
	// already pre-allocated.
	LabelStmt Stmt

	Pos diag.Position
}

func NewIdentifier(name string, mod Modifier, meta Meta, pos diag.Position) *Identifier {
	return &Identifier{Name: name, Mod: mod, Meta: meta, Idx: -1, Pos: pos}
}
