// Package parser builds the AST from the lexer's token stream using
// recursive descent with precedence climbing.
package parser

import (
	"fmt"
	"strconv"

	"github.com/stacklang-dev/stacklang/ast"
	"github.com/stacklang-dev/stacklang/lexer"
)

// SyntaxError points at the token that broke the grammar and names the
// construct the parser wanted instead.
type SyntaxError struct {
	Line int
	Got  lexer.Token
	Want string
}

func (e *SyntaxError) Error() string {
	if e.Got.Typ == lexer.TokenEOF {
		return fmt.Sprintf("line %d: unexpected end of input, expected %s", e.Line, e.Want)
	}
	return fmt.Sprintf("line %d: unexpected %s %q, expected %s", e.Line, e.Got.Typ, e.Got.Value, e.Want)
}

// Tokenizer is the parser's view of the lexer. Run feeds the stream,
// Chan delivers it.
type Tokenizer interface {
	Run()
	Chan() chan lexer.Token
}

type Parser struct {
	tokens  Tokenizer
	buf     *lexer.Token
	started bool
}

func New(tokens Tokenizer) *Parser {
	return &Parser{tokens: tokens}
}

// ParseString is the convenience entry point for one-shot inputs.
func ParseString(src string) (*ast.Program, error) {
	return New(lexer.FromString(src)).Parse()
}

// Parse consumes the entire token stream and returns the Program, or
// the first lexical or syntax error.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{Meta: ast.At(1)}

	for {
		tok := p.peek()
		if tok.Typ == lexer.TokenEOF {
			return prog, nil
		}
		if tok.Typ == lexer.TokenError {
			return nil, &lexer.Error{Line: tok.Line, Char: firstRune(tok.Value)}
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
}

func (p *Parser) peek() lexer.Token {
	if p.buf == nil {
		tok := p.pull()
		p.buf = &tok
	}

	return *p.buf
}

func (p *Parser) next() lexer.Token {
	if p.buf != nil {
		if !p.buf.IsValid() {
			// Error and EOF stay buffered; the stream is over.
			return *p.buf
		}

		tok := *p.buf
		p.buf = nil
		return tok
	}

	tok := p.pull()
	if !tok.IsValid() {
		p.buf = &tok
	}

	return tok
}

func (p *Parser) pull() lexer.Token {
	if !p.started {
		go p.tokens.Run()
		p.started = true
	}

	tok, ok := <-p.tokens.Chan()
	if !ok {
		return lexer.Token{Typ: lexer.TokenEOF}
	}

	return tok
}

func (p *Parser) expect(typ lexer.TokenType, want string) (lexer.Token, error) {
	tok := p.next()
	if tok.Typ == lexer.TokenError {
		return tok, &lexer.Error{Line: tok.Line, Char: firstRune(tok.Value)}
	}
	if tok.Typ != typ {
		return tok, &SyntaxError{Line: tok.Line, Got: tok, Want: want}
	}

	return tok, nil
}

func (p *Parser) errorf(tok lexer.Token, want string) error {
	return &SyntaxError{Line: tok.Line, Got: tok, Want: want}
}

func (p *Parser) statement() (ast.Node, error) {
	switch tok := p.peek(); tok.Typ {
	case lexer.TokenFunc:
		return p.funcDecl()
	case lexer.TokenIf:
		return p.ifStmt()
	case lexer.TokenWhile:
		return p.whileStmt()
	case lexer.TokenFor:
		return p.forStmt()
	case lexer.TokenReturn:
		return p.returnStmt()
	case lexer.TokenBreak:
		p.next()
		if _, err := p.expect(lexer.TokenSemicolon, "';' after break"); err != nil {
			return nil, err
		}
		return &ast.Break{Meta: ast.At(tok.Line)}, nil
	case lexer.TokenContinue:
		p.next()
		if _, err := p.expect(lexer.TokenSemicolon, "';' after continue"); err != nil {
			return nil, err
		}
		return &ast.Continue{Meta: ast.At(tok.Line)}, nil
	case lexer.TokenOpenBrace:
		return p.block()
	default:
		stmt, err := p.simpleStmt()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenSemicolon, "';' after statement"); err != nil {
			return nil, err
		}
		return stmt, nil
	}
}

// simpleStmt is an assignment or a bare expression, without the
// trailing semicolon. The for-header reuses it.
func (p *Parser) simpleStmt() (ast.Node, error) {
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}

	if id, ok := expr.(*ast.Identifier); ok && p.peek().Typ == lexer.TokenAssign {
		eq := p.next()
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Meta: ast.At(eq.Line), Target: id.Name, Value: value}, nil
	}

	return &ast.ExprStmt{Meta: ast.At(expr.Pos()), Expr: expr}, nil
}

func (p *Parser) block() (*ast.Block, error) {
	open, err := p.expect(lexer.TokenOpenBrace, "'{'")
	if err != nil {
		return nil, err
	}

	blk := &ast.Block{Meta: ast.At(open.Line)}
	for {
		tok := p.peek()
		switch tok.Typ {
		case lexer.TokenCloseBrace:
			p.next()
			return blk, nil
		case lexer.TokenEOF:
			return nil, p.errorf(tok, "'}' closing block")
		case lexer.TokenError:
			return nil, &lexer.Error{Line: tok.Line, Char: firstRune(tok.Value)}
		}

		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		blk.Statements = append(blk.Statements, stmt)
	}
}

func (p *Parser) funcDecl() (ast.Node, error) {
	kw := p.next() // func

	name, err := p.expect(lexer.TokenIdentifier, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenOpenParen, "'(' after function name"); err != nil {
		return nil, err
	}

	var params []string
	if p.peek().Typ != lexer.TokenCloseParen {
		for {
			param, err := p.expect(lexer.TokenIdentifier, "parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Value)

			if p.peek().Typ != lexer.TokenComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(lexer.TokenCloseParen, "')' after parameters"); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDef{Meta: ast.At(kw.Line), Name: name.Value, Params: params, Body: body}, nil
}

func (p *Parser) ifStmt() (ast.Node, error) {
	kw := p.next() // if

	if _, err := p.expect(lexer.TokenOpenParen, "'(' after if"); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenCloseParen, "')' after condition"); err != nil {
		return nil, err
	}

	then, err := p.block()
	if err != nil {
		return nil, err
	}

	stmt := &ast.If{Meta: ast.At(kw.Line), Condition: cond, Then: then}
	if p.peek().Typ == lexer.TokenElse {
		p.next()
		stmt.Else, err = p.block()
		if err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

func (p *Parser) whileStmt() (ast.Node, error) {
	kw := p.next() // while

	if _, err := p.expect(lexer.TokenOpenParen, "'(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenCloseParen, "')' after condition"); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.While{Meta: ast.At(kw.Line), Condition: cond, Body: body}, nil
}

func (p *Parser) forStmt() (ast.Node, error) {
	kw := p.next() // for

	if _, err := p.expect(lexer.TokenOpenParen, "'(' after for"); err != nil {
		return nil, err
	}

	stmt := &ast.For{Meta: ast.At(kw.Line)}
	var err error

	if p.peek().Typ != lexer.TokenSemicolon {
		stmt.Init, err = p.simpleStmt()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after loop init"); err != nil {
		return nil, err
	}

	if p.peek().Typ != lexer.TokenSemicolon {
		stmt.Condition, err = p.expr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon, "';' after loop condition"); err != nil {
		return nil, err
	}

	if p.peek().Typ != lexer.TokenCloseParen {
		stmt.Update, err = p.simpleStmt()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenCloseParen, "')' after loop header"); err != nil {
		return nil, err
	}

	stmt.Body, err = p.block()
	if err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) returnStmt() (ast.Node, error) {
	kw := p.next() // return

	stmt := &ast.Return{Meta: ast.At(kw.Line)}
	if p.peek().Typ != lexer.TokenSemicolon {
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}

	if _, err := p.expect(lexer.TokenSemicolon, "';' after return"); err != nil {
		return nil, err
	}

	return stmt, nil
}

// Binary operators are left-associative; each level loops instead of
// recursing so chains nest leftward.

func (p *Parser) expr() (ast.Node, error) {
	return p.orExpr()
}

func (p *Parser) orExpr() (ast.Node, error) {
	return p.binaryLevel(p.andExpr, lexer.TokenOr)
}

func (p *Parser) andExpr() (ast.Node, error) {
	return p.binaryLevel(p.equalityExpr, lexer.TokenAnd)
}

func (p *Parser) equalityExpr() (ast.Node, error) {
	return p.binaryLevel(p.relationalExpr, lexer.TokenEq, lexer.TokenNotEq)
}

func (p *Parser) relationalExpr() (ast.Node, error) {
	return p.binaryLevel(p.additiveExpr,
		lexer.TokenLess, lexer.TokenGreater, lexer.TokenLessEq, lexer.TokenGreaterEq)
}

func (p *Parser) additiveExpr() (ast.Node, error) {
	return p.binaryLevel(p.multiplicativeExpr, lexer.TokenPlus, lexer.TokenMinus)
}

func (p *Parser) multiplicativeExpr() (ast.Node, error) {
	return p.binaryLevel(p.unaryExpr, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent)
}

func (p *Parser) binaryLevel(operand func() (ast.Node, error), ops ...lexer.TokenType) (ast.Node, error) {
	lhs, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if !tokenIn(tok.Typ, ops) {
			return lhs, nil
		}
		p.next()

		rhs, err := operand()
		if err != nil {
			return nil, err
		}

		lhs = &ast.BinaryOp{Meta: ast.At(tok.Line), Op: tok.Value, Left: lhs, Right: rhs}
	}
}

func (p *Parser) unaryExpr() (ast.Node, error) {
	tok := p.peek()
	if tok.Typ == lexer.TokenMinus || tok.Typ == lexer.TokenNot {
		p.next()
		operand, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Meta: ast.At(tok.Line), Op: tok.Value, Operand: operand}, nil
	}

	return p.primary()
}

func (p *Parser) primary() (ast.Node, error) {
	switch tok := p.peek(); tok.Typ {
	case lexer.TokenOpenParen:
		p.next()
		expr, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenCloseParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.TokenIdentifier:
		p.next()
		if p.peek().Typ == lexer.TokenOpenParen {
			return p.call(tok)
		}
		return &ast.Identifier{Meta: ast.At(tok.Line), Name: tok.Value}, nil
	default:
		return p.literal()
	}
}

func (p *Parser) call(name lexer.Token) (ast.Node, error) {
	p.next() // (

	callExpr := &ast.Call{Meta: ast.At(name.Line), Callee: name.Value}
	if p.peek().Typ != lexer.TokenCloseParen {
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			callExpr.Args = append(callExpr.Args, arg)

			if p.peek().Typ != lexer.TokenComma {
				break
			}
			p.next()
		}
	}

	if _, err := p.expect(lexer.TokenCloseParen, "')' after arguments"); err != nil {
		return nil, err
	}

	return callExpr, nil
}

func (p *Parser) literal() (ast.Node, error) {
	switch tok := p.peek(); tok.Typ {
	case lexer.TokenNumber:
		p.next()
		if tok.IsFloat() {
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return nil, p.errorf(tok, "numeric literal")
			}
			return &ast.Literal{Meta: ast.At(tok.Line), Value: f}, nil
		}
		i, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "numeric literal")
		}
		return &ast.Literal{Meta: ast.At(tok.Line), Value: i}, nil
	case lexer.TokenString:
		p.next()
		return &ast.Literal{Meta: ast.At(tok.Line), Value: tok.Value}, nil
	case lexer.TokenTrue:
		p.next()
		return &ast.Literal{Meta: ast.At(tok.Line), Value: true}, nil
	case lexer.TokenFalse:
		p.next()
		return &ast.Literal{Meta: ast.At(tok.Line), Value: false}, nil
	case lexer.TokenError:
		return nil, &lexer.Error{Line: tok.Line, Char: firstRune(tok.Value)}
	default:
		return nil, p.errorf(tok, "expression")
	}
}

func tokenIn(typ lexer.TokenType, ops []lexer.TokenType) bool {
	for _, op := range ops {
		if typ == op {
			return true
		}
	}
	return false
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
