package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotality(t *testing.T) {
	for tag := None; tag < numTags; tag++ {
		require.NotPanics(t, func() { Name(tag) })
		require.NotPanics(t, func() { LinearSize(tag) })
		require.NotPanics(t, func() { HostSize(tag) })
		require.NotPanics(t, func() { RegisterWidthOf(tag) })
	}
}

func TestStableAcrossCalls(t *testing.T) {
	require.Equal(t, Name(Int32), Name(Int32))
	require.Equal(t, LinearSize(Int128), LinearSize(Int128))
}

func TestUndefinedTagPanics(t *testing.T) {
	require.Panics(t, func() { Name(numTags) })
	require.Panics(t, func() { Name(-1) })
}

func TestBitExactSizes(t *testing.T) {
	cases := []struct {
		tag  Tag
		size int
	}{
		{Bool, 4}, {Byte, 4}, {Int8, 4}, {Int16, 4}, {Int32, 4},
		{Int64, 8}, {Map, 8},
		{Float, 4}, {Double, 8},
		{Int128, 4}, {Int256, 4}, {String, 4}, {Account, 4},
		{Struct, 4}, {Object, 4}, {Cursor, 4}, {Tuple, 4},
		{Void, 0}, {None, 0},
	}
	for _, c := range cases {
		require.Equal(t, c.size, LinearSize(c.tag), Name(c.tag))
	}
}

func TestByAddress(t *testing.T) {
	for _, tag := range []Tag{Int128, Int256, String, Account, Struct, Object, Cursor, Tuple} {
		require.True(t, ByAddress(tag), Name(tag))
	}
	for _, tag := range []Tag{Bool, Byte, Int8, Int16, Int32, Int64, Float, Double, Map} {
		require.False(t, ByAddress(tag), Name(tag))
	}
}
