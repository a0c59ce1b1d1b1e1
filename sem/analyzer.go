// Package sem validates a parsed program: scoping, coarse type
// compatibility, and break/continue/return placement. It never
// mutates the tree; all state lives in the analyzer.
package sem

import (
	"fmt"

	"github.com/stacklang-dev/stacklang/ast"
)

type Kind int

const (
	UndefinedVariable Kind = iota
	UndefinedFunction
	ArityMismatch
	TypeMismatch
	IllegalBreakOrContinue
	IllegalReturn
)

func (k Kind) String() string {
	switch k {
	case UndefinedVariable:
		return "UndefinedVariable"
	case UndefinedFunction:
		return "UndefinedFunction"
	case ArityMismatch:
		return "ArityMismatch"
	case TypeMismatch:
		return "TypeMismatch"
	case IllegalBreakOrContinue:
		return "IllegalBreakOrContinue"
	case IllegalReturn:
		return "IllegalReturn"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type Error struct {
	Kind Kind
	Line int
	Msg  string
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Msg)
}

type Analyzer struct {
	symbols   *SymbolTable
	errors    []Error
	loopDepth int
	funcDepth int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{symbols: NewSymbolTable()}
}

// Check walks the whole tree and returns every violation found. An
// empty slice means the program is valid.
func Check(prog *ast.Program) []Error {
	return NewAnalyzer().Check(prog)
}

func (a *Analyzer) Check(prog *ast.Program) []Error {
	// Top-level functions are visible before their definition, so a
	// script can call forward and functions can be mutually recursive.
	for _, stmt := range prog.Statements {
		if fn, ok := stmt.(*ast.FunctionDef); ok {
			a.symbols.Declare(&Symbol{Name: fn.Name, Type: TypeFunc, Line: fn.Line, Params: fn.Params})
		}
	}

	for _, stmt := range prog.Statements {
		a.statement(stmt)
	}

	return a.errors
}

func (a *Analyzer) errorf(kind Kind, line int, format string, args ...any) {
	a.errors = append(a.errors, Error{
		Kind: kind,
		Line: line,
		Msg:  fmt.Sprintf(format, args...),
	})
}

func (a *Analyzer) statement(n ast.Node) {
	switch stmt := n.(type) {
	case *ast.Block:
		a.symbols.Push()
		for _, s := range stmt.Statements {
			a.statement(s)
		}
		a.symbols.Pop()
	case *ast.Assignment:
		a.assign(stmt)
	case *ast.ExprStmt:
		a.resolve(stmt.Expr)
	case *ast.If:
		a.resolve(stmt.Condition)
		a.statement(stmt.Then)
		if stmt.Else != nil {
			a.statement(stmt.Else)
		}
	case *ast.While:
		a.resolve(stmt.Condition)
		a.loopDepth++
		a.statement(stmt.Body)
		a.loopDepth--
	case *ast.For:
		// The header gets its own scope so the loop variable dies
		// with the loop.
		a.symbols.Push()
		if stmt.Init != nil {
			a.statement(stmt.Init)
		}
		if stmt.Condition != nil {
			a.resolve(stmt.Condition)
		}
		if stmt.Update != nil {
			a.statement(stmt.Update)
		}
		a.loopDepth++
		a.statement(stmt.Body)
		a.loopDepth--
		a.symbols.Pop()
	case *ast.FunctionDef:
		a.function(stmt)
	case *ast.Return:
		if a.funcDepth == 0 {
			a.errorf(IllegalReturn, stmt.Line, "'return' outside function")
		}
		if stmt.Value != nil {
			a.resolve(stmt.Value)
		}
	case *ast.Break:
		if a.loopDepth == 0 {
			a.errorf(IllegalBreakOrContinue, stmt.Line, "'break' used outside loop")
		}
	case *ast.Continue:
		if a.loopDepth == 0 {
			a.errorf(IllegalBreakOrContinue, stmt.Line, "'continue' used outside loop")
		}
	default:
		a.resolve(n)
	}
}

// assign declares the target on first sight in the current scope, and
// retypes it on every later assignment (bindings are dynamically
// typed).
func (a *Analyzer) assign(stmt *ast.Assignment) {
	valueType := a.resolve(stmt.Value)

	if sym := a.symbols.Resolve(stmt.Target); sym != nil {
		sym.Type = valueType
		return
	}

	a.symbols.Declare(&Symbol{Name: stmt.Target, Type: valueType, Line: stmt.Line})
}

func (a *Analyzer) function(stmt *ast.FunctionDef) {
	a.symbols.Declare(&Symbol{
		Name:   stmt.Name,
		Type:   TypeFunc,
		Line:   stmt.Line,
		Params: stmt.Params,
	})

	a.symbols.Push()
	for _, param := range stmt.Params {
		a.symbols.Declare(&Symbol{Name: param, Type: TypeUnknown, Line: stmt.Line})
	}

	// Loops don't reach across function boundaries: a break inside a
	// function defined inside a loop is still illegal.
	outerLoopDepth := a.loopDepth
	a.loopDepth = 0
	a.funcDepth++

	a.statement(stmt.Body)

	a.funcDepth--
	a.loopDepth = outerLoopDepth
	a.symbols.Pop()
}

// resolve computes an expression's coarse type, reporting any
// violations it finds along the way.
func (a *Analyzer) resolve(n ast.Node) Type {
	switch expr := n.(type) {
	case *ast.Literal:
		return literalType(expr.Value)
	case *ast.Identifier:
		sym := a.symbols.Resolve(expr.Name)
		if sym == nil {
			a.errorf(UndefinedVariable, expr.Line, "use of undefined variable '%s'", expr.Name)
			return TypeUnknown
		}
		return sym.Type
	case *ast.BinaryOp:
		return a.binaryOp(expr)
	case *ast.UnaryOp:
		return a.unaryOp(expr)
	case *ast.Call:
		return a.call(expr)
	default:
		return TypeUnknown
	}
}

func (a *Analyzer) binaryOp(expr *ast.BinaryOp) Type {
	lt := a.resolve(expr.Left)
	rt := a.resolve(expr.Right)

	// A parameter or not-yet-typed name adopts the other operand's
	// type; two unknowns fall back per operator below.
	if lt == TypeUnknown && rt != TypeUnknown {
		lt = a.adopt(expr.Left, rt)
	}
	if rt == TypeUnknown && lt != TypeUnknown {
		rt = a.adopt(expr.Right, lt)
	}

	switch expr.Op {
	case "+", "-", "*", "/":
		if lt == TypeUnknown && rt == TypeUnknown {
			lt = a.adopt(expr.Left, TypeInt)
			rt = a.adopt(expr.Right, TypeInt)
		}
		if expr.Op == "+" && lt == TypeString && rt == TypeString {
			return TypeString
		}
		if lt.IsNumeric() && rt.IsNumeric() {
			// Widening rule: any float operand widens the result.
			if lt == TypeFloat || rt == TypeFloat {
				return TypeFloat
			}
			return TypeInt
		}
		a.errorf(TypeMismatch, expr.Line, "operator '%s' not supported between '%s' and '%s'", expr.Op, lt, rt)
		return TypeUnknown
	case "%":
		if lt == TypeUnknown && rt == TypeUnknown {
			lt = a.adopt(expr.Left, TypeInt)
			rt = a.adopt(expr.Right, TypeInt)
		}
		if lt != TypeInt || rt != TypeInt {
			a.errorf(TypeMismatch, expr.Line, "modulo '%%' requires integer operands, got '%s' and '%s'", lt, rt)
			return TypeUnknown
		}
		return TypeInt
	case "==", "!=":
		if lt == TypeUnknown && rt == TypeUnknown {
			return TypeBool
		}
		if sameCategory(lt, rt) {
			return TypeBool
		}
		a.errorf(TypeMismatch, expr.Line, "cannot compare '%s' with '%s' using '%s'", lt, rt, expr.Op)
		return TypeBool
	case "<", ">", "<=", ">=":
		if lt == TypeUnknown && rt == TypeUnknown {
			return TypeBool
		}
		if (lt.IsNumeric() && rt.IsNumeric()) || (lt == TypeString && rt == TypeString) {
			return TypeBool
		}
		a.errorf(TypeMismatch, expr.Line, "operator '%s' not supported between '%s' and '%s'", expr.Op, lt, rt)
		return TypeBool
	case "&&", "||":
		if lt == TypeUnknown {
			lt = a.adopt(expr.Left, TypeBool)
		}
		if rt == TypeUnknown {
			rt = a.adopt(expr.Right, TypeBool)
		}
		if lt != TypeBool || rt != TypeBool {
			a.errorf(TypeMismatch, expr.Line, "logical operator '%s' requires bool operands, got '%s' and '%s'", expr.Op, lt, rt)
		}
		return TypeBool
	default:
		return TypeUnknown
	}
}

func (a *Analyzer) unaryOp(expr *ast.UnaryOp) Type {
	t := a.resolve(expr.Operand)

	switch expr.Op {
	case "-":
		if t == TypeUnknown {
			return a.adopt(expr.Operand, TypeInt)
		}
		if !t.IsNumeric() {
			a.errorf(TypeMismatch, expr.Line, "unary '-' requires a numeric operand, got '%s'", t)
			return TypeUnknown
		}
		return t
	case "!":
		if t == TypeUnknown {
			return a.adopt(expr.Operand, TypeBool)
		}
		if t != TypeBool {
			a.errorf(TypeMismatch, expr.Line, "unary '!' requires a bool operand, got '%s'", t)
		}
		return TypeBool
	default:
		return TypeUnknown
	}
}

func (a *Analyzer) call(expr *ast.Call) Type {
	sym := a.symbols.Resolve(expr.Callee)
	if sym == nil {
		a.errorf(UndefinedFunction, expr.Line, "call to undefined function '%s'", expr.Callee)
	} else if sym.Type != TypeFunc {
		a.errorf(UndefinedFunction, expr.Line, "'%s' is not a function", expr.Callee)
	} else if len(expr.Args) != len(sym.Params) {
		a.errorf(ArityMismatch, expr.Line,
			"function '%s' takes %d argument(s), got %d", expr.Callee, len(sym.Params), len(expr.Args))
	}

	for _, arg := range expr.Args {
		a.resolve(arg)
	}

	// Return types are not declared, so a call's value is opaque.
	return TypeUnknown
}

// adopt pins an identifier's symbol to a type inferred from how it is
// being used. Non-identifier operands just take the type.
func (a *Analyzer) adopt(n ast.Node, t Type) Type {
	if id, ok := n.(*ast.Identifier); ok {
		if sym := a.symbols.Resolve(id.Name); sym != nil {
			sym.Type = t
		}
	}

	return t
}

func sameCategory(a, b Type) bool {
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a == b
}

func literalType(v any) Type {
	switch v.(type) {
	case int64:
		return TypeInt
	case float64:
		return TypeFloat
	case bool:
		return TypeBool
	case string:
		return TypeString
	default:
		return TypeUnknown
	}
}
