package gen

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/ir"
	"github.com/dilcheck/aergo/internal/types"
	"github.com/dilcheck/aergo/internal/wasmenc"
)

func TestResolverRoundTripsDeclaredNames(t *testing.T) {
	r := NewResolver()
	r.Declare("env.heap.alloc", wasmenc.Index(0), true)
	r.Declare("c$f", wasmenc.Index(1), false)

	require.Equal(t, wasmenc.Index(0), r.Index("env.heap.alloc"))
	require.True(t, r.HasResult("env.heap.alloc"))

	require.Equal(t, wasmenc.Index(1), r.Index("c$f"))
	require.False(t, r.HasResult("c$f"))
}

func TestSignatureReflectsFnAbi(t *testing.T) {
	mod := ir.NewModule()
	f := &ast.Function{
		Contract: "c",
		Name:     "f",
		Blk:      ast.NewBlock(),
		Params:   []*ast.Identifier{{Name: "x", Meta: ast.Meta{Type: types.Int32}, IsParam: true}},
		Returns:  []*ast.Identifier{{Name: "result", Meta: ast.Meta{Type: types.Int32}}},
	}
	fn := ir.NewFn(mod, f)

	sig := Signature(fn)

	require.True(t, fn.Abi.HasResult)
	require.Len(t, sig.Results, 1)
	require.Equal(t, api.ValueTypeI32, sig.Results[0])
	require.Equal(t, fn.Abi.Params, sig.Params)
}
