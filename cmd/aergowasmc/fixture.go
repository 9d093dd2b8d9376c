package main

import (
	"fmt"
	"os"

	"github.com/dilcheck/aergo"
	"github.com/dilcheck/aergo/internal/ast"
	"github.com/dilcheck/aergo/internal/diag"
)

type compileResult struct {
	wasm  []byte
	diags *diag.Bag
}

func compileFixture(path string, memoryPages uint32) (*compileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	fns, err := ast.DecodeFixture(data)
	if err != nil {
		return nil, err
	}

	cfg := aergowasmc.NewCompilerConfig().WithInitialMemoryPages(memoryPages)
	res, err := aergowasmc.Compile(cfg, fns)
	if err != nil {
		return nil, err
	}

	return &compileResult{wasm: res.Wasm, diags: res.Diags}, nil
}
