// Command aergowasmc compiles a pre-resolved contract AST fixture
// (internal/ast/fixture.go) into a WebAssembly module.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dilcheck/aergo/internal/diag"
)

// Exit codes: 0 success, 1 one or more user diagnostics recorded, 2 an
// internal invariant violation (spec.md §7.2).
const (
	exitOK       = 0
	exitUserErr  = 1
	exitInternal = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var buildID string
	var outPath string
	var memoryPages uint32

	log := logrus.New()

	root := &cobra.Command{
		Use:           "aergowasmc",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	compileCmd := &cobra.Command{
		Use:   "compile <fixture.json>",
		Short: "Compile a contract AST fixture to a WebAssembly module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(log, buildID, outPath, memoryPages, args[0])
		},
	}
	compileCmd.Flags().StringVar(&buildID, "build-id", uuid.NewString(), "correlates this run's log lines")
	compileCmd.Flags().StringVarP(&outPath, "output", "o", "", "output .wasm path (defaults to the fixture name with a .wasm extension)")
	compileCmd.Flags().Uint32Var(&memoryPages, "memory-pages", 1, "minimum initial linear memory size, in 64 KiB pages")

	root.AddCommand(compileCmd)
	root.SetArgs(args)

	exitCode := exitOK
	func() {
		defer func() {
			if r := recover(); r != nil {
				if internal, ok := r.(*diag.Internal); ok {
					log.WithField("build_id", buildID).Errorf("internal error: %s", internal.Msg)
					exitCode = exitInternal
					return
				}
				panic(r)
			}
		}()

		if err := root.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			exitCode = exitUserErr
		}
	}()

	return exitCode
}

func runCompile(log *logrus.Logger, buildID, outPath string, memoryPages uint32, fixturePath string) error {
	entry := log.WithField("build_id", buildID)

	if outPath == "" {
		outPath = trimExt(fixturePath) + ".wasm"
	}

	start := time.Now()
	result, err := compileFixture(fixturePath, memoryPages)
	entry.WithField("elapsed", time.Since(start)).Info("compile finished")
	if err != nil {
		return err
	}

	if result.diags.HasErrors() {
		return fmt.Errorf("compilation recorded diagnostics: %w", result.diags.Err())
	}

	if err := os.WriteFile(outPath, result.wasm, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	entry.WithField("output", outPath).Info("wrote module")
	return nil
}

func trimExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
