package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	cases := []struct {
		data   string
		fail   bool
		expect []Token
	}{
		{
			"x = 10 + 5;",
			false,
			[]Token{
				{TokenIdentifier, "x", 1},
				{TokenAssign, "=", 1},
				{TokenNumber, "10", 1},
				{TokenPlus, "+", 1},
				{TokenNumber, "5", 1},
				{TokenSemicolon, ";", 1},
			},
		},
		{
			"func add(a, b) { return a + b; }",
			false,
			[]Token{
				{TokenFunc, "func", 1},
				{TokenIdentifier, "add", 1},
				{TokenOpenParen, "(", 1},
				{TokenIdentifier, "a", 1},
				{TokenComma, ",", 1},
				{TokenIdentifier, "b", 1},
				{TokenCloseParen, ")", 1},
				{TokenOpenBrace, "{", 1},
				{TokenReturn, "return", 1},
				{TokenIdentifier, "a", 1},
				{TokenPlus, "+", 1},
				{TokenIdentifier, "b", 1},
				{TokenSemicolon, ";", 1},
				{TokenCloseBrace, "}", 1},
			},
		},
		{
			"while (x <= 10) { x = x + 1; }",
			false,
			[]Token{
				{TokenWhile, "while", 1},
				{TokenOpenParen, "(", 1},
				{TokenIdentifier, "x", 1},
				{TokenLessEq, "<=", 1},
				{TokenNumber, "10", 1},
				{TokenCloseParen, ")", 1},
				{TokenOpenBrace, "{", 1},
				{TokenIdentifier, "x", 1},
				{TokenAssign, "=", 1},
				{TokenIdentifier, "x", 1},
				{TokenPlus, "+", 1},
				{TokenNumber, "1", 1},
				{TokenSemicolon, ";", 1},
				{TokenCloseBrace, "}", 1},
			},
		},
		{
			"a == b != c && d || !e",
			false,
			[]Token{
				{TokenIdentifier, "a", 1},
				{TokenEq, "==", 1},
				{TokenIdentifier, "b", 1},
				{TokenNotEq, "!=", 1},
				{TokenIdentifier, "c", 1},
				{TokenAnd, "&&", 1},
				{TokenIdentifier, "d", 1},
				{TokenOr, "||", 1},
				{TokenNot, "!", 1},
				{TokenIdentifier, "e", 1},
			},
		},
		{
			"pi = 3.14; half = 5e-1;",
			false,
			[]Token{
				{TokenIdentifier, "pi", 1},
				{TokenAssign, "=", 1},
				{TokenNumber, "3.14", 1},
				{TokenSemicolon, ";", 1},
				{TokenIdentifier, "half", 1},
				{TokenAssign, "=", 1},
				{TokenNumber, "5e-1", 1},
				{TokenSemicolon, ";", 1},
			},
		},
		{
			`msg = "hello \"world\"";`,
			false,
			[]Token{
				{TokenIdentifier, "msg", 1},
				{TokenAssign, "=", 1},
				{TokenString, `hello "world"`, 1},
				{TokenSemicolon, ";", 1},
			},
		},
		{
			"s = 'single';",
			false,
			[]Token{
				{TokenIdentifier, "s", 1},
				{TokenAssign, "=", 1},
				{TokenString, "single", 1},
				{TokenSemicolon, ";", 1},
			},
		},
		{
			"// a comment\nx = 1; /* block\ncomment */ y = 2;",
			false,
			[]Token{
				{TokenIdentifier, "x", 2},
				{TokenAssign, "=", 2},
				{TokenNumber, "1", 2},
				{TokenSemicolon, ";", 2},
				{TokenIdentifier, "y", 3},
				{TokenAssign, "=", 3},
				{TokenNumber, "2", 3},
				{TokenSemicolon, ";", 3},
			},
		},
		{
			"ok = true; bad = false;",
			false,
			[]Token{
				{TokenIdentifier, "ok", 1},
				{TokenAssign, "=", 1},
				{TokenTrue, "true", 1},
				{TokenSemicolon, ";", 1},
				{TokenIdentifier, "bad", 1},
				{TokenAssign, "=", 1},
				{TokenFalse, "false", 1},
				{TokenSemicolon, ";", 1},
			},
		},
		{
			"x = 1 @ 2;",
			true,
			nil,
		},
		{
			"s = \"unterminated\nnext;",
			true,
			nil,
		},
	}

	for _, c := range cases {
		tokens, err := FromString(c.data).RunBlocking()
		if c.fail {
			assert.Error(t, err, c.data)
			continue
		}
		require.NoError(t, err, c.data)
		assert.Equal(t, c.expect, tokens, c.data)
	}
}

func TestLexerTracksLines(t *testing.T) {
	tokens, err := FromString("a = 1;\nb = 2;\n\nc = 3;").RunBlocking()
	require.NoError(t, err)

	lines := map[string]int{}
	for _, tok := range tokens {
		if tok.Typ == TokenIdentifier {
			lines[tok.Value] = tok.Line
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 4}, lines)
}

func TestLexerIllegalCharacterReportsLine(t *testing.T) {
	_, err := FromString("x = 1;\ny = $;").RunBlocking()
	require.Error(t, err)

	lexErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, 2, lexErr.Line)
	assert.Equal(t, '$', lexErr.Char)
}
