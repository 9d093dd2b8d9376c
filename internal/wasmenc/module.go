package wasmenc

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

const (
	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionGlobal   = 6
	sectionExport   = 7
	sectionCode     = 10

	externKindFunc   = 0x00
	externKindMemory = 0x02
	externKindGlobal = 0x03

	valtypeFuncref = 0x70 // unused placeholder kept for readability of func type encoding
)

type importFunc struct {
	Module, Name string
	Sig          FunctionType
}

type function struct {
	Name       string
	ExportName string
	Sig        FunctionType
	Locals     []api.ValueType
	Body       []Expr
}

type globalDef struct {
	Name       string
	Type       api.ValueType
	Mutable    bool
	Init       Expr
	ExportName string
}

// ModuleBuilder accumulates a WebAssembly module's imports, functions,
// globals, and memory, then serializes them to the binary format with
// Encode. All mutation happens through the methods below; there is no
// process-wide cursor or other global mutable state (spec.md §9 design
// note on "Global mutable state" — gen.Generate creates one builder per
// module, and internal/gen's emitters return Expr values rather than
// writing to shared state).
type ModuleBuilder struct {
	imports []importFunc
	funcs   []function
	globals []globalDef

	memoryPages      uint32
	memoryExportName string
}

func NewModuleBuilder() *ModuleBuilder { return &ModuleBuilder{} }

// AddImportFunc declares an imported function and returns its index in the
// combined function index space (imports occupy the low indices).
func (m *ModuleBuilder) AddImportFunc(module, name string, sig FunctionType) Index {
	m.imports = append(m.imports, importFunc{Module: module, Name: name, Sig: sig})
	return Index(len(m.imports) - 1)
}

// AddFunction declares a defined function body and returns its index in the
// combined function index space.
func (m *ModuleBuilder) AddFunction(name string, sig FunctionType, locals []api.ValueType, body []Expr) Index {
	m.funcs = append(m.funcs, function{Name: name, Sig: sig, Locals: locals, Body: body})
	return Index(len(m.imports) + len(m.funcs) - 1)
}

// SetExportName exports the function at fnIndex under name. fnIndex must
// name a defined (non-imported) function.
func (m *ModuleBuilder) SetExportName(fnIndex Index, name string) {
	local := int(fnIndex) - len(m.imports)
	if local < 0 || local >= len(m.funcs) {
		panic(fmt.Sprintf("wasmenc: SetExportName: index %d is not a defined function", fnIndex))
	}
	m.funcs[local].ExportName = name
}

// AddGlobal declares a module-level global and returns its index.
func (m *ModuleBuilder) AddGlobal(name string, t api.ValueType, mutable bool, init Expr) Index {
	m.globals = append(m.globals, globalDef{Name: name, Type: t, Mutable: mutable, Init: init})
	return Index(len(m.globals) - 1)
}

// SetGlobalExportName exports the global at globalIndex under name.
func (m *ModuleBuilder) SetGlobalExportName(globalIndex Index, name string) {
	idx := int(globalIndex)
	if idx < 0 || idx >= len(m.globals) {
		panic(fmt.Sprintf("wasmenc: SetGlobalExportName: index %d is not a declared global", globalIndex))
	}
	m.globals[idx].ExportName = name
}

// SetMemory declares the module's single linear memory with the given
// initial page count (64 KiB pages).
func (m *ModuleBuilder) SetMemory(minPages uint32) { m.memoryPages = minPages }

// MemoryPages reports the page count SetMemory was last called with.
func (m *ModuleBuilder) MemoryPages() uint32 { return m.memoryPages }

// ExportMemory exports the module's memory under name.
func (m *ModuleBuilder) ExportMemory(name string) { m.memoryExportName = name }

func (m *ModuleBuilder) globalIndex() map[string]Index {
	idx := make(map[string]Index, len(m.globals))
	for i, g := range m.globals {
		idx[g.Name] = Index(i)
	}
	return idx
}

// Encode serializes the accumulated module to WebAssembly binary format.
func (m *ModuleBuilder) Encode() ([]byte, error) {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00} // magic + version

	types, typeIdx := m.collectTypes()

	out = append(out, encodeSection(sectionType, m.encodeTypeSection(types))...)
	out = append(out, encodeSection(sectionImport, m.encodeImportSection(typeIdx))...)
	out = append(out, encodeSection(sectionFunction, m.encodeFunctionSection(typeIdx))...)
	if m.memoryPages > 0 {
		out = append(out, encodeSection(sectionMemory, m.encodeMemorySection())...)
	}
	out = append(out, encodeSection(sectionGlobal, m.encodeGlobalSection())...)
	out = append(out, encodeSection(sectionExport, m.encodeExportSection())...)
	code, err := m.encodeCodeSection()
	if err != nil {
		return nil, err
	}
	out = append(out, encodeSection(sectionCode, code)...)

	return out, nil
}

func encodeSection(id byte, body []byte) []byte {
	out := []byte{id}
	out = putUvarint32(out, uint32(len(body)))
	return append(out, body...)
}

// collectTypes deduplicates function signatures across imports and defined
// functions, returning the type table and a per-function type index.
func (m *ModuleBuilder) collectTypes() ([]FunctionType, []Index) {
	var types []FunctionType
	idx := make([]Index, len(m.imports)+len(m.funcs))

	find := func(sig FunctionType) Index {
		for i, t := range types {
			if t.equal(sig) {
				return Index(i)
			}
		}
		types = append(types, sig)
		return Index(len(types) - 1)
	}

	for i, im := range m.imports {
		idx[i] = find(im.Sig)
	}
	for i, f := range m.funcs {
		idx[len(m.imports)+i] = find(f.Sig)
	}
	return types, idx
}

func (m *ModuleBuilder) encodeTypeSection(types []FunctionType) []byte {
	var body []byte
	body = putUvarint32(body, uint32(len(types)))
	for _, t := range types {
		body = append(body, 0x60) // func type tag
		body = putUvarint32(body, uint32(len(t.Params)))
		body = append(body, t.Params...)
		body = putUvarint32(body, uint32(len(t.Results)))
		body = append(body, t.Results...)
	}
	return body
}

func (m *ModuleBuilder) encodeImportSection(typeIdx []Index) []byte {
	var body []byte
	body = putUvarint32(body, uint32(len(m.imports)))
	for i, im := range m.imports {
		body = appendName(body, im.Module)
		body = appendName(body, im.Name)
		body = append(body, externKindFunc)
		body = putUvarint32(body, typeIdx[i])
	}
	return body
}

func (m *ModuleBuilder) encodeFunctionSection(typeIdx []Index) []byte {
	var body []byte
	body = putUvarint32(body, uint32(len(m.funcs)))
	for i := range m.funcs {
		body = putUvarint32(body, typeIdx[len(m.imports)+i])
	}
	return body
}

func (m *ModuleBuilder) encodeMemorySection() []byte {
	var body []byte
	body = putUvarint32(body, 1) // one memory
	body = append(body, 0x00)    // flags: no maximum
	body = putUvarint32(body, m.memoryPages)
	return body
}

func (m *ModuleBuilder) encodeGlobalSection() []byte {
	gIdx := m.globalIndex()
	var body []byte
	body = putUvarint32(body, uint32(len(m.globals)))
	for _, g := range m.globals {
		body = append(body, g.Type)
		if g.Mutable {
			body = append(body, 0x01)
		} else {
			body = append(body, 0x00)
		}
		b := &bytesBuilder{globalIdx: gIdx}
		if g.Init != nil {
			g.Init.encode(b)
		} else {
			zeroValue(g.Type).encode(b)
		}
		b.byte(opEnd)
		body = append(body, b.buf...)
	}
	return body
}

func zeroValue(t api.ValueType) Expr {
	switch t {
	case api.ValueTypeI32:
		return ConstI32{}
	case api.ValueTypeI64:
		return ConstI64{}
	case api.ValueTypeF32:
		return ConstF32{}
	case api.ValueTypeF64:
		return ConstF64{}
	default:
		panic("wasmenc: no zero value for value type")
	}
}

func (m *ModuleBuilder) encodeExportSection() []byte {
	var names []string
	exports := map[string]struct {
		kind byte
		idx  Index
	}{}
	for i, f := range m.funcs {
		if f.ExportName != "" {
			names = append(names, f.ExportName)
			exports[f.ExportName] = struct {
				kind byte
				idx  Index
			}{externKindFunc, Index(len(m.imports) + i)}
		}
	}
	if m.memoryExportName != "" {
		names = append(names, m.memoryExportName)
		exports[m.memoryExportName] = struct {
			kind byte
			idx  Index
		}{externKindMemory, 0}
	}
	for i, g := range m.globals {
		if g.ExportName != "" {
			names = append(names, g.ExportName)
			exports[g.ExportName] = struct {
				kind byte
				idx  Index
			}{externKindGlobal, Index(i)}
		}
	}

	var body []byte
	body = putUvarint32(body, uint32(len(names)))
	for _, name := range names {
		e := exports[name]
		body = appendName(body, name)
		body = append(body, e.kind)
		body = putUvarint32(body, e.idx)
	}
	return body
}

func (m *ModuleBuilder) encodeCodeSection() ([]byte, error) {
	gIdx := m.globalIndex()

	var body []byte
	body = putUvarint32(body, uint32(len(m.funcs)))
	for _, f := range m.funcs {
		fnBody, err := encodeFunctionBody(f, gIdx)
		if err != nil {
			return nil, fmt.Errorf("encoding function %q: %w", f.Name, err)
		}
		body = putUvarint32(body, uint32(len(fnBody)))
		body = append(body, fnBody...)
	}
	return body, nil
}

func encodeFunctionBody(f function, gIdx map[string]Index) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	runs := compressLocals(f.Locals)
	out = putUvarint32(out, uint32(len(runs)))
	for _, r := range runs {
		out = putUvarint32(out, r.count)
		out = append(out, r.t)
	}

	b := &bytesBuilder{globalIdx: gIdx}
	b.emit(f.Body)
	b.byte(opEnd)
	out = append(out, b.buf...)
	return out, nil
}

type localRun struct {
	count uint32
	t     api.ValueType
}

// compressLocals groups consecutive identical local types into runs, the
// encoding the binary format prefers.
func compressLocals(locals []api.ValueType) []localRun {
	var runs []localRun
	for _, t := range locals {
		if n := len(runs); n > 0 && runs[n-1].t == t {
			runs[n-1].count++
			continue
		}
		runs = append(runs, localRun{count: 1, t: t})
	}
	return runs
}

func appendName(buf []byte, s string) []byte {
	buf = putUvarint32(buf, uint32(len(s)))
	return append(buf, s...)
}
