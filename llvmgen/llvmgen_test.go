package llvmgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklang-dev/stacklang/parser"
)

func emit(t *testing.T, src string) (string, error) {
	t.Helper()
	tree, err := parser.ParseString(src)
	require.NoError(t, err)
	return Emit(tree)
}

func TestEmitArithmetic(t *testing.T) {
	ir, err := emit(t, "x = 2 + 3 * 4;")
	require.NoError(t, err)

	assert.Contains(t, ir, "define i64 @main()")
	assert.Contains(t, ir, "mul")
	assert.Contains(t, ir, "add")
	assert.Contains(t, ir, "ret i64 0")
}

func TestEmitReusesBoundValues(t *testing.T) {
	ir, err := emit(t, "a = 1 + 2;\nb = a * a;")
	require.NoError(t, err)
	assert.Contains(t, ir, "mul")
}

func TestEmitFloatWidening(t *testing.T) {
	ir, err := emit(t, "x = 1 + 2.5;")
	require.NoError(t, err)

	assert.Contains(t, ir, "sitofp")
	assert.Contains(t, ir, "fadd")
}

func TestEmitIntegerDivisionAndModulo(t *testing.T) {
	ir, err := emit(t, "q = 7 / 2;\nr = 7 % 2;")
	require.NoError(t, err)

	assert.Contains(t, ir, "sdiv")
	assert.Contains(t, ir, "srem")
}

func TestEmitNegation(t *testing.T) {
	ir, err := emit(t, "x = -(1 + 2);")
	require.NoError(t, err)
	assert.Contains(t, ir, "sub")

	ir, err = emit(t, "x = -(1.5 + 2.0);")
	require.NoError(t, err)
	assert.Contains(t, ir, "fneg")
}

func TestEmitUnsupportedConstructs(t *testing.T) {
	cases := []string{
		"if (1 < 2) { x = 1; }",
		"while (true) { }",
		"for (;;) { }",
		"func f() { return 1; }",
		`s = "strings are out of scope";`,
		"x = !true;",
		"x = missing;",
	}

	for _, src := range cases {
		_, err := emit(t, src)
		require.Error(t, err, src)

		unsup, ok := err.(*UnsupportedError)
		require.True(t, ok, "want UnsupportedError for %q, got %T", src, err)
		assert.NotEmpty(t, unsup.Construct)
	}
}
