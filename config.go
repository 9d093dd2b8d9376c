// Package aergowasmc compiles a resolved contract AST (internal/ast) into a
// WebAssembly module (spec.md §1). CompilerConfig controls the knobs the
// pipeline exposes; Compile (compiler.go) runs it.
package aergowasmc

// CompilerConfig controls compilation behavior, with the default
// implementation as NewCompilerConfig.
//
// Ex. To raise the default memory grant:
//	cfg = aergowasmc.NewCompilerConfig().WithInitialMemoryPages(4)
//
// Compile reads only the initial memory page count; the other settings are
// recorded on the config and have no effect on the compiled module.
//
// Note: CompilerConfig is immutable. Each WithXXX function returns a new
// instance including the corresponding change.
type CompilerConfig interface {
	// WithMaxNameLength records a bound on a mangled internal function
	// name's length (spec.md §3.3's "<contract>$<function>" mangling).
	// Defaults to 64, the value of ir.NameMaxLen. Compile does not read it:
	// ir always truncates mangled names at ir.NameMaxLen.
	WithMaxNameLength(int) CompilerConfig

	// WithInitialMemoryPages sets a floor on the compiled module's linear
	// memory size, in 64 KiB pages: gen.Generate sizes memory from the
	// compiled functions' own heap/stack usage plus a runtime allowance and
	// never goes below this floor. Defaults to 1.
	WithInitialMemoryPages(uint32) CompilerConfig

	// WithArrayLoopSupport records whether source-level array loops are
	// enabled. Defaults to false. Compile does not read it: trans reports
	// every array loop as not supported whatever this setting is.
	WithArrayLoopSupport(bool) CompilerConfig

	// WithBoundsChecking records whether memory accesses are bounds
	// checked. Defaults to false. Compile does not read it, and gen emits no
	// bounds checks.
	WithBoundsChecking(bool) CompilerConfig
}

type compilerConfig struct {
	maxNameLength      int
	initialMemoryPages uint32
	arrayLoopSupport   bool
	boundsChecking     bool
}

// NewCompilerConfig returns the default CompilerConfig.
func NewCompilerConfig() CompilerConfig {
	return &compilerConfig{
		maxNameLength:      64,
		initialMemoryPages: 1,
	}
}

// WithMaxNameLength implements CompilerConfig.WithMaxNameLength
func (c *compilerConfig) WithMaxNameLength(n int) CompilerConfig {
	ret := *c // copy
	ret.maxNameLength = n
	return &ret
}

// WithInitialMemoryPages implements CompilerConfig.WithInitialMemoryPages
func (c *compilerConfig) WithInitialMemoryPages(pages uint32) CompilerConfig {
	ret := *c // copy
	ret.initialMemoryPages = pages
	return &ret
}

// WithArrayLoopSupport implements CompilerConfig.WithArrayLoopSupport
func (c *compilerConfig) WithArrayLoopSupport(enabled bool) CompilerConfig {
	ret := *c // copy
	ret.arrayLoopSupport = enabled
	return &ret
}

// WithBoundsChecking implements CompilerConfig.WithBoundsChecking
func (c *compilerConfig) WithBoundsChecking(enabled bool) CompilerConfig {
	ret := *c // copy
	ret.boundsChecking = enabled
	return &ret
}
