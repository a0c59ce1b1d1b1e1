// Package stacklang wires the compilation stages into one pipeline:
// source text in, final variable bindings out. The CLI and the
// integration tests both drive it through this surface.
package stacklang

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/stacklang-dev/stacklang/ast"
	"github.com/stacklang-dev/stacklang/interp"
	"github.com/stacklang-dev/stacklang/lexer"
	"github.com/stacklang-dev/stacklang/parser"
	"github.com/stacklang-dev/stacklang/sem"
	"github.com/stacklang-dev/stacklang/vm"
)

// SemanticErrors carries every diagnostic the analyzer produced for
// one source unit.
type SemanticErrors struct {
	Errors []sem.Error
}

func (e *SemanticErrors) Error() string {
	lines := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// Parse runs the lexer and parser over src.
func Parse(src io.Reader) (*ast.Program, error) {
	p := parser.New(lexer.New(src))
	return p.Parse()
}

// ParseString is Parse over a source string.
func ParseString(src string) (*ast.Program, error) {
	return Parse(strings.NewReader(src))
}

// Analyze type-checks the program, wrapping any diagnostics in a
// single SemanticErrors value.
func Analyze(prog *ast.Program) error {
	if errs := sem.Check(prog); len(errs) > 0 {
		return &SemanticErrors{Errors: errs}
	}
	return nil
}

// Compile takes source through parsing, analysis and code generation.
func Compile(src io.Reader) (*vm.Program, error) {
	tree, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if err := Analyze(tree); err != nil {
		return nil, err
	}
	return vm.Compile(tree)
}

// CompileString is Compile over a source string.
func CompileString(src string) (*vm.Program, error) {
	return Compile(strings.NewReader(src))
}

// Execute runs a compiled program and returns its global bindings.
func Execute(prog *vm.Program) (map[string]vm.Value, error) {
	m, err := interp.NewMachine(prog)
	if err != nil {
		return nil, err
	}
	return m.Run()
}

// RunString takes source all the way to final bindings.
func RunString(src string) (map[string]vm.Value, error) {
	prog, err := CompileString(src)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("ops", len(prog.Ops)).Msg("pipeline: executing")
	return Execute(prog)
}

// FormatBindings renders bindings as "name = value" lines sorted by
// name, the shape run and exec print on success.
func FormatBindings(bindings map[string]vm.Value) string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s = %s\n", name, vm.FormatValue(bindings[name]))
	}
	return b.String()
}
