package aergowasmc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCompilerConfigDefaults checks the documented defaults: 64-byte mangled
// names and one 64 KiB memory page, with array-loop support and bounds
// checking off.
func TestCompilerConfigDefaults(t *testing.T) {
	cfg := NewCompilerConfig().(*compilerConfig)

	require.Equal(t, 64, cfg.maxNameLength)
	require.EqualValues(t, 1, cfg.initialMemoryPages)
	require.False(t, cfg.arrayLoopSupport)
	require.False(t, cfg.boundsChecking)
}

// TestWithMethodsReturnIndependentCopies checks that every With* method
// returns a new value rather than mutating the receiver, so a shared base
// config can be specialized differently by more than one caller.
func TestWithMethodsReturnIndependentCopies(t *testing.T) {
	base := NewCompilerConfig()

	a := base.WithInitialMemoryPages(4).(*compilerConfig)
	b := base.WithInitialMemoryPages(8).(*compilerConfig)

	require.EqualValues(t, 4, a.initialMemoryPages)
	require.EqualValues(t, 8, b.initialMemoryPages)
	require.EqualValues(t, 1, base.(*compilerConfig).initialMemoryPages, "base must stay unchanged")

	withArrayLoop := base.WithArrayLoopSupport(true).(*compilerConfig)
	require.True(t, withArrayLoop.arrayLoopSupport)
	require.False(t, base.(*compilerConfig).arrayLoopSupport)

	withBounds := base.WithBoundsChecking(true).(*compilerConfig)
	require.True(t, withBounds.boundsChecking)
	require.False(t, base.(*compilerConfig).boundsChecking)

	withName := base.WithMaxNameLength(32).(*compilerConfig)
	require.Equal(t, 32, withName.maxNameLength)
	require.Equal(t, 64, base.(*compilerConfig).maxNameLength)
}

// TestWithMethodsChain checks that With* calls compose, matching the
// fluent-builder usage documented on CompilerConfig.
func TestWithMethodsChain(t *testing.T) {
	cfg := NewCompilerConfig().
		WithInitialMemoryPages(4).
		WithBoundsChecking(true).(*compilerConfig)

	require.EqualValues(t, 4, cfg.initialMemoryPages)
	require.True(t, cfg.boundsChecking)
}
