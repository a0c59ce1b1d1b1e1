package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	stacklang "github.com/stacklang-dev/stacklang"
	"github.com/stacklang-dev/stacklang/ast"
	"github.com/stacklang-dev/stacklang/llvmgen"
	"github.com/stacklang-dev/stacklang/manifest"
	"github.com/stacklang-dev/stacklang/vm"
)

var (
	noAST      bool
	noBytecode bool
	noExec     bool
	emitLLVM   bool
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Compile and execute a script (or every script in a .toml manifest)",
	Args:  cobra.MinimumNArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&noAST, "no-ast", false, "Skip printing the syntax tree")
	runCmd.Flags().BoolVar(&noBytecode, "no-bytecode", false, "Skip printing the bytecode listing")
	runCmd.Flags().BoolVar(&noExec, "no-exec", false, "Stop after code generation without executing")
	runCmd.Flags().BoolVar(&emitLLVM, "emit-llvm", false, "Emit LLVM IR for the straight-line subset instead of executing")
}

func runCommand(cmd *cobra.Command, args []string) {
	path := args[0]
	if filepath.Ext(path) == ".toml" {
		runManifest(path)
		return
	}
	if !runFile(path, !noAST, !noBytecode) {
		os.Exit(1)
	}
}

func runManifest(path string) {
	m, err := manifest.LoadFromFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load manifest")
	}
	names := make([]string, 0, len(m.Scripts))
	for name := range m.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	ok := true
	for _, name := range names {
		script := m.Scripts[name]
		fmt.Println(color.Cyan.Sprintf("== %s (%s)", name, script.File))
		if !runFile(script.File, orDefault(script.AST, !noAST), orDefault(script.Bytecode, !noBytecode)) {
			ok = false
		}
	}
	if !ok {
		os.Exit(1)
	}
}

func orDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// runFile takes one script through the pipeline, printing whatever
// the flags ask for. It reports whether the script succeeded.
func runFile(path string, withAST, withBytecode bool) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't open script")
	}
	defer f.Close()

	tree, err := stacklang.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		return false
	}
	if withAST {
		fmt.Print(ast.Dump(tree))
	}

	if err := stacklang.Analyze(tree); err != nil {
		var semErrs *stacklang.SemanticErrors
		if errors.As(err, &semErrs) {
			for _, e := range semErrs.Errors {
				fmt.Fprintln(os.Stderr, color.Red.Sprint(e.Error()))
			}
		} else {
			fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		}
		return false
	}

	if emitLLVM {
		ir, err := llvmgen.Emit(tree)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
			return false
		}
		fmt.Print(ir)
		return true
	}

	prog, err := vm.Compile(tree)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		return false
	}
	if withBytecode {
		fmt.Print(prog.Listing())
	}
	if noExec {
		return true
	}

	bindings, err := stacklang.Execute(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		return false
	}
	fmt.Print(stacklang.FormatBindings(bindings))
	return true
}
