package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestTrimExt(t *testing.T) {
	require.Equal(t, "contract", trimExt("contract.json"))
	require.Equal(t, "dir/contract", trimExt("dir/contract.json"))
	require.Equal(t, "dir.with.dots/contract", trimExt("dir.with.dots/contract.json"))
	require.Equal(t, "no-extension", trimExt("no-extension"))
}

const sampleFixture = `{
	"functions": [{
		"contract": "Sample",
		"name": "double",
		"public": true,
		"params": [{"name": "x", "type": "int32"}],
		"returns": [{"name": "result", "type": "int32"}],
		"body": [
			{
				"kind": "return",
				"arg": {
					"kind": "binary", "op": "*",
					"lhs": {"kind": "ident", "name": "x"},
					"rhs": {"kind": "lit", "type": "int32", "value": 2}
				}
			}
		]
	}]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o644))
	return path
}

func TestCompileFixtureProducesWasmBytes(t *testing.T) {
	path := writeFixture(t)

	res, err := compileFixture(path, 1)
	require.NoError(t, err)
	require.False(t, res.diags.HasErrors())
	require.NotEmpty(t, res.wasm)
	require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d}, res.wasm[:4])
}

func TestCompileFixtureRejectsMissingFile(t *testing.T) {
	_, err := compileFixture(filepath.Join(t.TempDir(), "missing.json"), 1)
	require.Error(t, err)
}

func TestRunCompileWritesOutputFile(t *testing.T) {
	fixturePath := writeFixture(t)
	outPath := filepath.Join(t.TempDir(), "out.wasm")

	log := logrus.New()
	log.SetOutput(os.Stderr)

	err := runCompile(log, "test-build", outPath, 1, fixturePath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestRunEndToEndReturnsUserErrExitCodeOnBadFixture(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("not json"), 0o644))

	code := run([]string{"compile", badPath})
	require.Equal(t, exitUserErr, code)
}
