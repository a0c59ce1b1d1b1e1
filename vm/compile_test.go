package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklang-dev/stacklang/parser"
)

func compile(t *testing.T, src string) *Program {
	t.Helper()
	tree, err := parser.ParseString(src)
	require.NoError(t, err)
	prog, err := Compile(tree)
	require.NoError(t, err)
	return prog
}

func opStrings(p *Program) []string {
	out := make([]string, len(p.Ops))
	for i, op := range p.Ops {
		out[i] = op.String()
	}
	return out
}

func TestCompileArithmetic(t *testing.T) {
	prog := compile(t, "x = 10 + 5;")
	assert.Equal(t, []string{
		"PUSH 10",
		"PUSH 5",
		"ADD",
		"STORE x",
		"HALT",
	}, opStrings(prog))
}

func TestCompileOperators(t *testing.T) {
	cases := []struct {
		src string
		op  string
	}{
		{"x = 1 - 2;", "SUB"},
		{"x = 1 * 2;", "MUL"},
		{"x = 1 / 2;", "DIV"},
		{"x = 1 % 2;", "MOD"},
		{"x = 1 == 2;", "CMP_EQ"},
		{"x = 1 != 2;", "CMP_NE"},
		{"x = 1 < 2;", "CMP_LT"},
		{"x = 1 > 2;", "CMP_GT"},
		{"x = 1 <= 2;", "CMP_LE"},
		{"x = 1 >= 2;", "CMP_GE"},
		{"x = true && false;", "AND"},
		{"x = true || false;", "OR"},
		{"x = !true;", "NOT"},
		{"x = -1;", "NEG"},
	}

	for _, c := range cases {
		prog := compile(t, c.src)
		assert.Contains(t, opStrings(prog), c.op, c.src)
	}
}

func TestCompileIfElse(t *testing.T) {
	prog := compile(t, "x = 1;\nif (x > 0) { y = 1; } else { y = 2; }")
	assert.Equal(t, []string{
		"PUSH 1",
		"STORE x",
		"LOAD x",
		"PUSH 0",
		"CMP_GT",
		"JUMP_IF_FALSE L1",
		"PUSH 1",
		"STORE y",
		"JUMP L2",
		"LABEL L1",
		"PUSH 2",
		"STORE y",
		"LABEL L2",
		"HALT",
	}, opStrings(prog))
}

func TestCompileWhile(t *testing.T) {
	prog := compile(t, "x = 0;\nwhile (x < 3) { x = x + 1; }")
	assert.Equal(t, []string{
		"PUSH 0",
		"STORE x",
		"LABEL L1",
		"LOAD x",
		"PUSH 3",
		"CMP_LT",
		"JUMP_IF_FALSE L2",
		"LOAD x",
		"PUSH 1",
		"ADD",
		"STORE x",
		"JUMP L1",
		"LABEL L2",
		"HALT",
	}, opStrings(prog))
}

func TestCompileForLoopContinueTargetsUpdate(t *testing.T) {
	prog := compile(t, `
total = 0;
for (i = 0; i < 4; i = i + 1) {
    if (i == 2) { continue; }
    total = total + i;
}`)
	ops := opStrings(prog)

	// The update clause has its own label so continue re-runs it.
	assert.Contains(t, ops, "LABEL L2")
	assert.Contains(t, ops, "JUMP L2")
	// break would target L3, the loop end.
	assert.Contains(t, ops, "LABEL L3")
}

func TestCompileFunctionLayout(t *testing.T) {
	prog := compile(t, `
func add(a, b) { return a + b; }
result = add(3, 4);`)
	assert.Equal(t, []string{
		"PUSH 3",
		"PUSH 4",
		"CALL FUNC_add 2",
		"STORE result",
		"HALT",
		"LABEL FUNC_add",
		"STORE b",
		"STORE a",
		"LOAD a",
		"LOAD b",
		"ADD",
		"RETURN",
		"PUSH 0",
		"RETURN",
	}, opStrings(prog))
}

func TestCompileRejectsDuplicateFunctionNames(t *testing.T) {
	tree, err := parser.ParseString(`
func twice(n) { return n * 2; }
func twice(n) { return n + n; }
x = twice(3);`)
	require.NoError(t, err)

	_, err = Compile(tree)
	require.Error(t, err)

	cgErr, ok := err.(*CodegenError)
	require.True(t, ok, "got %T: %v", err, err)
	assert.Contains(t, cgErr.Msg, "twice")
}

func TestCompileFunctionBodiesFollowHalt(t *testing.T) {
	prog := compile(t, `
func f() { return 1; }
func g() { return 2; }
x = f() + g();`)
	ops := opStrings(prog)

	haltAt := -1
	for i, op := range ops {
		if op == "HALT" {
			haltAt = i
			break
		}
	}
	require.GreaterOrEqual(t, haltAt, 0)

	// All function code sits after the HALT.
	assert.Contains(t, ops[haltAt:], "LABEL FUNC_f")
	assert.Contains(t, ops[haltAt:], "LABEL FUNC_g")
	for _, op := range ops[:haltAt] {
		assert.NotContains(t, op, "LABEL FUNC_", op)
	}
}

func TestCompileExprStmtPopsResult(t *testing.T) {
	prog := compile(t, "func f() { return 1; }\nf();")
	ops := opStrings(prog)
	require.Contains(t, ops, "CALL FUNC_f 0")
	for i, op := range ops {
		if op == "CALL FUNC_f 0" {
			assert.Equal(t, "POP", ops[i+1])
		}
	}
}

func TestCompileLiterals(t *testing.T) {
	prog := compile(t, `a = 1; b = 2.5; c = true; d = "hi";`)
	ops := opStrings(prog)
	assert.Contains(t, ops, "PUSH 1")
	assert.Contains(t, ops, "PUSH 2.5")
	assert.Contains(t, ops, "PUSH true")
	assert.Contains(t, ops, `PUSH "hi"`)
}

func TestCompileListing(t *testing.T) {
	prog := compile(t, "x = 10 + 5;")
	assert.Equal(t, "000: PUSH 10\n001: PUSH 5\n002: ADD\n003: STORE x\n004: HALT\n", prog.Listing())
}

func TestSerializeRoundTrip(t *testing.T) {
	prog := compile(t, `
func fact(n) {
    if (n <= 1) { return 1; }
    return n * fact(n - 1);
}
f = fact(5.0);
s = "done";
ok = true;`)

	var buf bytes.Buffer
	require.NoError(t, prog.Serialize(&buf))

	var loaded Program
	require.NoError(t, loaded.Deserialize(&buf))
	assert.Equal(t, prog.Ops, loaded.Ops)
}

func TestFingerprintDetectsTampering(t *testing.T) {
	prog := compile(t, "x = 1;")
	fp1, err := prog.Fingerprint()
	require.NoError(t, err)

	other := compile(t, "x = 2;")
	fp2, err := other.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)

	var buf bytes.Buffer
	require.NoError(t, prog.Serialize(&buf))

	// Flip a byte somewhere in the payload and the load must fail.
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xff
	var loaded Program
	assert.Error(t, loaded.Deserialize(bytes.NewReader(raw)))
}
