// Package types holds the closed tag universe of intrinsic contract types
// and their size tables, mirroring contract/native/enum.c of the original
// compiler.
package types

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Tag identifies one of the intrinsic types a contract value can have.
type Tag int

const (
	None Tag = iota
	Bool
	Byte
	Int8
	Int16
	Int32
	Int64
	Int128
	Int256
	Float
	Double
	String
	Account
	Struct
	Map
	Object
	Cursor
	Void
	Tuple

	numTags
)

// RegisterWidth is the WebAssembly local/parameter width a type occupies.
// ByAddress means the value is passed as an i32 pointer into linear memory.
type RegisterWidth int

const (
	WidthNone RegisterWidth = iota
	WidthI32
	WidthI64
	WidthF32
	WidthF64
	WidthByAddress
)

const (
	i32 = 4
	i64 = 8
	f32 = 4
	f64 = 8
	// addr is the size of a linear-memory pointer used for pass-by-address types.
	addr = 4
)

var names = [numTags]string{
	None:    "none",
	Bool:    "bool",
	Byte:    "byte",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Int128:  "int128",
	Int256:  "int256",
	Float:   "float",
	Double:  "double",
	String:  "string",
	Account: "account",
	Struct:  "struct",
	Map:     "map",
	Object:  "object",
	Cursor:  "cursor",
	Void:    "void",
	Tuple:   "tuple",
}

// linearSizes is the number of bytes a value of the tag occupies when stored
// in WebAssembly linear memory. This is "type_sizes_" in the original.
var linearSizes = [numTags]int{
	None:    0,
	Bool:    i32,
	Byte:    i32,
	Int8:    i32,
	Int16:   i32,
	Int32:   i32,
	Int64:   i64,
	Int128:  addr,
	Int256:  addr,
	Float:   f32,
	Double:  f64,
	String:  addr,
	Account: addr,
	Struct:  addr,
	Map:     i64,
	Object:  addr,
	Cursor:  addr,
	Void:    0,
	Tuple:   addr,
}

// hostSizes is the number of bytes the compiler's own in-process
// representation of the tag occupies. This is "type_bytes_" in the original
// and is deliberately distinct from linearSizes (e.g. TYPE_MAP is 8 bytes in
// linear memory but the compiler only ever carries a 4-byte handle for it).
var hostSizes = [numTags]int{
	None:    0,
	Bool:    1,
	Byte:    1,
	Int8:    1,
	Int16:   2,
	Int32:   4,
	Int64:   8,
	Int128:  4,
	Int256:  4,
	Float:   4,
	Double:  8,
	String:  4,
	Account: 4,
	Struct:  4,
	Map:     4,
	Object:  4,
	Cursor:  4,
	Void:    0,
	Tuple:   0,
}

var widths = [numTags]RegisterWidth{
	None:    WidthNone,
	Bool:    WidthI32,
	Byte:    WidthI32,
	Int8:    WidthI32,
	Int16:   WidthI32,
	Int32:   WidthI32,
	Int64:   WidthI64,
	Int128:  WidthByAddress,
	Int256:  WidthByAddress,
	Float:   WidthF32,
	Double:  WidthF64,
	String:  WidthByAddress,
	Account: WidthByAddress,
	Struct:  WidthByAddress,
	Map:     WidthI64,
	Object:  WidthByAddress,
	Cursor:  WidthByAddress,
	Void:    WidthNone,
	Tuple:   WidthByAddress,
}

func checkTag(t Tag) {
	if t < 0 || t >= numTags {
		panic(fmt.Sprintf("types: undefined type tag %d", t))
	}
}

// Name returns the display name of t. Indexing with an undefined tag is a
// programmer bug and panics.
func Name(t Tag) string {
	checkTag(t)
	return names[t]
}

// ParseTag looks up the tag named name (as returned by Name), for use by
// text-based front ends such as a JSON test fixture decoder.
func ParseTag(name string) (Tag, bool) {
	for t, n := range names {
		if n == name {
			return Tag(t), true
		}
	}
	return None, false
}

// LinearSize returns the number of bytes t occupies in WebAssembly linear
// memory.
func LinearSize(t Tag) int {
	checkTag(t)
	return linearSizes[t]
}

// HostSize returns the number of bytes t occupies in the compiler's own
// in-memory representation.
func HostSize(t Tag) int {
	checkTag(t)
	return hostSizes[t]
}

// RegisterWidthOf returns the WebAssembly register width used to pass or
// hold a value of tag t.
func RegisterWidthOf(t Tag) RegisterWidth {
	checkTag(t)
	return widths[t]
}

// ByAddress reports whether values of tag t are always passed by a linear
// memory pointer rather than in a native WebAssembly register.
func ByAddress(t Tag) bool {
	return RegisterWidthOf(t) == WidthByAddress
}

// ToValueType maps a type tag to the WebAssembly value type used to hold it
// in a local or pass it as a parameter. Pass-by-address types (scalars over
// 64 bits and all aggregates) map to ValueTypeI32, the pointer width.
func ToValueType(t Tag) api.ValueType {
	switch RegisterWidthOf(t) {
	case WidthI32, WidthByAddress:
		return api.ValueTypeI32
	case WidthI64:
		return api.ValueTypeI64
	case WidthF32:
		return api.ValueTypeF32
	case WidthF64:
		return api.ValueTypeF64
	default:
		panic(fmt.Sprintf("types: %s has no register representation", Name(t)))
	}
}
