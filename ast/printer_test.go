package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDump(t *testing.T) {
	tree := &Program{
		Meta: At(1),
		Statements: []Node{
			&Assignment{
				Meta:   At(1),
				Target: "x",
				Value: &BinaryOp{
					Meta:  At(1),
					Op:    "+",
					Left:  &Literal{Meta: At(1), Value: int64(10)},
					Right: &Literal{Meta: At(1), Value: int64(5)},
				},
			},
		},
	}

	assert.Equal(t, `<Program>
|   Stmt: <Assignment> x
|   |   Value: <BinaryOp> +
|   |   |   Left: <Literal> 10
|   |   |   Right: <Literal> 5
`, Dump(tree))
}

func TestFormatStatements(t *testing.T) {
	tree := &Program{
		Meta: At(1),
		Statements: []Node{
			&FunctionDef{
				Meta:   At(1),
				Name:   "clamp",
				Params: []string{"n", "hi"},
				Body: &Block{
					Meta: At(1),
					Statements: []Node{
						&If{
							Meta:      At(2),
							Condition: &BinaryOp{Meta: At(2), Op: ">", Left: &Identifier{Meta: At(2), Name: "n"}, Right: &Identifier{Meta: At(2), Name: "hi"}},
							Then: &Block{Meta: At(2), Statements: []Node{
								&Return{Meta: At(3), Value: &Identifier{Meta: At(3), Name: "hi"}},
							}},
						},
						&Return{Meta: At(5), Value: &Identifier{Meta: At(5), Name: "n"}},
					},
				},
			},
		},
	}

	assert.Equal(t, `func clamp(n, hi) {
    if ((n > hi)) {
        return hi;
    }
    return n;
}
`, Format(tree))
}

func TestFormatLiteral(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{int64(42), "42"},
		{float64(2.5), "2.5"},
		{float64(3), "3.0"},
		{true, "true"},
		{false, "false"},
		{"hi", `"hi"`},
		{`quote " inside`, `"quote \" inside"`},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, FormatLiteral(c.in))
	}
}
