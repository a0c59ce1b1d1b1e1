package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof rune = 0

// Error is a lexical failure: a rune no rule matches. It aborts the
// token stream for the input.
type Error struct {
	Line int
	Char rune
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: illegal character %q", e.Line, e.Char)
}

type stateFunc func(l *Lexer) stateFunc

// Lexer turns source text into a lazy stream of Tokens, terminated by
// a TokenEOF (or a TokenError, after which nothing more is emitted).
type Lexer struct {
	reader *bufio.Reader
	line   int
	out    chan Token
}

func New(reader io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(reader),
		line:   1,
		out:    make(chan Token),
	}
}

func FromString(src string) *Lexer {
	return New(strings.NewReader(src))
}

func (l *Lexer) Chan() chan Token {
	return l.out
}

// Run drives the state machine until EOF or the first error. Meant to
// be called on its own goroutine; tokens arrive on Chan.
func (l *Lexer) Run() {
	for state := defaultState; state != nil; {
		state = state(l)
	}

	close(l.out)
}

// RunBlocking collects the whole token stream, excluding the EOF
// marker. A lexical failure surfaces as *Error.
func (l *Lexer) RunBlocking() ([]Token, error) {
	go l.Run()

	var tokens []Token
	for t := range l.out {
		switch t.Typ {
		case TokenEOF:
			return tokens, nil
		case TokenError:
			return nil, &Error{Line: t.Line, Char: []rune(t.Value)[0]}
		default:
			tokens = append(tokens, t)
		}
	}

	return tokens, nil
}

func defaultState(l *Lexer) stateFunc {
	for {
		switch r := l.peek(); {
		case r == eof:
			l.emit(TokenEOF, "")
			return nil
		case unicode.IsSpace(r):
			l.next()
		case '0' <= r && r <= '9':
			return numberState
		case r == '"' || r == '\'':
			return stringState
		case unicode.IsLetter(r) || r == '_':
			return identifierState
		default:
			return operatorState
		}
	}
}

func numberState(l *Lexer) stateFunc {
	var num strings.Builder
	for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
		num.WriteRune(l.next())
	}

	if l.peek() == '.' {
		num.WriteRune(l.next())
		for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
			num.WriteRune(l.next())
		}
	}

	if r := l.peek(); r == 'e' || r == 'E' {
		num.WriteRune(l.next())
		if r := l.peek(); r == '+' || r == '-' {
			num.WriteRune(l.next())
		}
		for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
			num.WriteRune(l.next())
		}
	}

	return l.emit(TokenNumber, num.String())
}

func stringState(l *Lexer) stateFunc {
	quote := l.next()
	line := l.line

	var str strings.Builder
	for {
		r := l.next()
		switch r {
		case quote:
			l.out <- Token{Typ: TokenString, Value: str.String(), Line: line}
			return defaultState
		case eof, '\n':
			return l.errorRune(quote)
		case '\\':
			// Basic backslash escape: the next rune stands for itself.
			str.WriteRune(l.next())
		default:
			str.WriteRune(r)
		}
	}
}

func identifierState(l *Lexer) stateFunc {
	var id strings.Builder
	for r := l.peek(); unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'; r = l.peek() {
		id.WriteRune(l.next())
	}

	if typ, ok := keywordTable[id.String()]; ok {
		return l.emit(typ, id.String())
	}

	return l.emit(TokenIdentifier, id.String())
}

func operatorState(l *Lexer) stateFunc {
	r := l.next()

	if r == '/' {
		switch l.peek() {
		case '/':
			return lineCommentState
		case '*':
			l.next()
			return blockCommentState
		}
	}

	// Two-rune operators take priority over their one-rune prefix.
	if op := string(r) + string(l.peek()); len(op) == 2 {
		if typ, ok := operatorTable[op]; ok {
			l.next()
			return l.emit(typ, op)
		}
	}

	if typ, ok := operatorTable[string(r)]; ok {
		return l.emit(typ, string(r))
	}

	return l.errorRune(r)
}

func lineCommentState(l *Lexer) stateFunc {
	for r := l.peek(); r != '\n' && r != eof; r = l.peek() {
		l.next()
	}

	return defaultState
}

func blockCommentState(l *Lexer) stateFunc {
	for {
		r := l.next()
		if r == eof {
			return l.errorRune(eof)
		}

		if r == '*' && l.peek() == '/' {
			l.next()
			return defaultState
		}
	}
}

func (l *Lexer) emit(typ TokenType, val string) stateFunc {
	l.out <- Token{Typ: typ, Value: val, Line: l.line}
	return defaultState
}

func (l *Lexer) errorRune(r rune) stateFunc {
	l.out <- Token{Typ: TokenError, Value: string(r), Line: l.line}
	return nil
}

func (l *Lexer) peek() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return eof
	}
	_ = l.reader.UnreadRune()

	return r
}

func (l *Lexer) next() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return eof
		}

		return utf8.RuneError
	}

	if r == '\n' {
		l.line++
	}

	return r
}
