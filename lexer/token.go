package lexer

import "strings"

type TokenType uint32

const (
	TokenError TokenType = iota
	TokenEOF

	TokenNumber
	TokenString
	TokenIdentifier

	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenFunc
	TokenReturn
	TokenBreak
	TokenContinue
	TokenTrue
	TokenFalse

	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenAnd
	TokenOr
	TokenEq
	TokenNotEq
	TokenLess
	TokenGreater
	TokenLessEq
	TokenGreaterEq
	TokenAssign
	TokenNot

	TokenSemicolon
	TokenComma
	TokenOpenParen
	TokenCloseParen
	TokenOpenBrace
	TokenCloseBrace
)

// Keywords are reserved and never lex as identifiers.
var keywordTable = map[string]TokenType{
	"if":       TokenIf,
	"else":     TokenElse,
	"while":    TokenWhile,
	"for":      TokenFor,
	"func":     TokenFunc,
	"return":   TokenReturn,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"true":     TokenTrue,
	"false":    TokenFalse,
}

var operatorTable = map[string]TokenType{
	"+":  TokenPlus,
	"-":  TokenMinus,
	"*":  TokenStar,
	"/":  TokenSlash,
	"%":  TokenPercent,
	"&&": TokenAnd,
	"||": TokenOr,
	"==": TokenEq,
	"!=": TokenNotEq,
	"<":  TokenLess,
	">":  TokenGreater,
	"<=": TokenLessEq,
	">=": TokenGreaterEq,
	"=":  TokenAssign,
	"!":  TokenNot,
	";":  TokenSemicolon,
	",":  TokenComma,
	"(":  TokenOpenParen,
	")":  TokenCloseParen,
	"{":  TokenOpenBrace,
	"}":  TokenCloseBrace,
}

type Token struct {
	Typ   TokenType
	Value string
	Line  int
}

func (t Token) IsValid() bool {
	return t.Typ != TokenError && t.Typ != TokenEOF
}

// IsFloat reports whether a number token carries a fractional or
// exponent part.
func (t Token) IsFloat() bool {
	return t.Typ == TokenNumber && strings.ContainsAny(t.Value, ".eE")
}

func (t TokenType) String() string {
	switch t {
	case TokenError:
		return "error"
	case TokenEOF:
		return "end of input"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenIdentifier:
		return "identifier"
	}

	for kw, typ := range keywordTable {
		if typ == t {
			return "'" + kw + "'"
		}
	}
	for op, typ := range operatorTable {
		if typ == t {
			return "'" + op + "'"
		}
	}

	return "unknown token"
}
