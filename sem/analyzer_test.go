package sem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklang-dev/stacklang/parser"
)

func check(t *testing.T, src string) []Error {
	t.Helper()
	prog, err := parser.ParseString(src)
	require.NoError(t, err)
	return Check(prog)
}

func TestAnalyzerAcceptsValidPrograms(t *testing.T) {
	cases := []string{
		"x = 10 + 5;",
		"x = 1; y = x * 2.5;",
		`greeting = "hello" + " " + "world";`,
		"flag = true && !false;",
		"x = 1; x = \"now a string\"; y = x + \"!\";",
		`func add(a, b) { return a + b; }
result = add(3, 4);`,
		`func fact(n) {
    if (n <= 1) { return 1; }
    return n * fact(n - 1);
}
f = fact(5);`,
		`total = 0;
for (i = 0; i < 10; i = i + 1) {
    if (i % 2 == 0) { continue; }
    total = total + i;
}`,
		`x = 0;
while (x < 3) {
    x = x + 1;
    if (x == 2) { break; }
}`,
		"mixed = 1 + 2.5;",
		"cmp = 1 < 2.5;",
		// Forward reference: defined below its first call.
		`v = later(1);
func later(n) { return n; }`,
	}

	for _, src := range cases {
		assert.Empty(t, check(t, src), src)
	}
}

func TestAnalyzerKinds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind Kind
		line int
	}{
		{
			name: "undefined variable",
			src:  "x = y + 1;",
			kind: UndefinedVariable,
			line: 1,
		},
		{
			name: "undefined variable in condition",
			src:  "x = 1;\nif (missing > 0) { x = 2; }",
			kind: UndefinedVariable,
			line: 2,
		},
		{
			name: "undefined function",
			src:  "x = nope(1, 2);",
			kind: UndefinedFunction,
			line: 1,
		},
		{
			name: "calling a variable",
			src:  "f = 3;\nx = f(1);",
			kind: UndefinedFunction,
			line: 2,
		},
		{
			name: "arity mismatch",
			src:  "func add(a, b) { return a + b; }\nx = add(1);",
			kind: ArityMismatch,
			line: 2,
		},
		{
			name: "string plus int",
			src:  `x = "a" + 1;`,
			kind: TypeMismatch,
			line: 1,
		},
		{
			name: "modulo on floats",
			src:  "x = 5.0 % 2;",
			kind: TypeMismatch,
			line: 1,
		},
		{
			name: "ordering bool operands",
			src:  "x = true < false;",
			kind: TypeMismatch,
			line: 1,
		},
		{
			name: "logical on ints",
			src:  "x = 1 && 2;",
			kind: TypeMismatch,
			line: 1,
		},
		{
			name: "negating a string",
			src:  `x = -"oops";`,
			kind: TypeMismatch,
			line: 1,
		},
		{
			name: "comparing string with int",
			src:  `x = "a" == 1;`,
			kind: TypeMismatch,
			line: 1,
		},
		{
			name: "break outside loop",
			src:  "x = 1;\nbreak;",
			kind: IllegalBreakOrContinue,
			line: 2,
		},
		{
			name: "continue outside loop",
			src:  "continue;",
			kind: IllegalBreakOrContinue,
			line: 1,
		},
		{
			name: "break in function inside loop",
			src: `while (true) {
    func inner() {
        break;
    }
}`,
			kind: IllegalBreakOrContinue,
			line: 3,
		},
		{
			name: "return at top level",
			src:  "return 5;",
			kind: IllegalReturn,
			line: 1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			errs := check(t, c.src)
			require.NotEmpty(t, errs)
			assert.Equal(t, c.kind, errs[0].Kind)
			assert.Equal(t, c.line, errs[0].Line)
		})
	}
}

// Parameters have no declared types; they adopt one from how the body
// uses them.
func TestAnalyzerParameterAdoption(t *testing.T) {
	errs := check(t, `
func scale(n, factor) {
    return n * factor;
}
x = scale(2, 3);`)
	assert.Empty(t, errs)

	// A parameter used as a number and then as a bool trips the
	// checker once the adopted type conflicts.
	errs = check(t, `
func odd(n) {
    return (n * 2) && true;
}`)
	require.NotEmpty(t, errs)
	assert.Equal(t, TypeMismatch, errs[0].Kind)
}

func TestAnalyzerCollectsMultipleErrors(t *testing.T) {
	errs := check(t, "a = missing1;\nb = missing2;\nbreak;")
	require.Len(t, errs, 3)
	assert.Equal(t, UndefinedVariable, errs[0].Kind)
	assert.Equal(t, UndefinedVariable, errs[1].Kind)
	assert.Equal(t, IllegalBreakOrContinue, errs[2].Kind)
}

func TestAnalyzerBlockScoping(t *testing.T) {
	// Names introduced inside a block die with it.
	errs := check(t, `
x = 1;
if (x > 0) {
    inner = 2;
}
y = inner;`)
	require.NotEmpty(t, errs)
	assert.Equal(t, UndefinedVariable, errs[0].Kind)
	assert.Equal(t, 6, errs[0].Line)
}

func TestErrorFormatting(t *testing.T) {
	errs := check(t, "x = y;")
	require.Len(t, errs, 1)
	assert.Equal(t, "line 1: UndefinedVariable: use of undefined variable 'y'", errs[0].Error())
}
