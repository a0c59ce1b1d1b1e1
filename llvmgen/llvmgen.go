// Package llvmgen emits LLVM IR for the straight-line arithmetic
// subset of the language: assignments and expressions over ints and
// floats, lowered into a single basic block of a main function.
// Control flow, strings and user functions are out of its reach and
// fail with an UnsupportedError.
package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/stacklang-dev/stacklang/ast"
)

// UnsupportedError marks a construct the straight-line emitter cannot
// lower.
type UnsupportedError struct {
	Line      int
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("line %d: llvm backend does not support %s", e.Line, e.Construct)
}

type builder struct {
	mod   *ir.Module
	block *ir.Block
	vals  map[string]value.Value
}

// Emit lowers the program and returns its textual LLVM IR.
func Emit(prog *ast.Program) (string, error) {
	b := &builder{
		mod:  ir.NewModule(),
		vals: make(map[string]value.Value),
	}
	main := b.mod.NewFunc("main", types.I64)
	b.block = main.NewBlock("")

	for _, stmt := range prog.Statements {
		if err := b.statement(stmt); err != nil {
			return "", err
		}
	}
	b.block.NewRet(constant.NewInt(types.I64, 0))

	return b.mod.String(), nil
}

func (b *builder) statement(stmt ast.Node) error {
	switch s := stmt.(type) {
	case *ast.Assignment:
		v, err := b.expr(s.Value)
		if err != nil {
			return err
		}
		b.vals[s.Target] = v
		return nil
	case *ast.ExprStmt:
		_, err := b.expr(s.Expr)
		return err
	default:
		return &UnsupportedError{Line: stmt.Pos(), Construct: constructName(stmt)}
	}
}

func (b *builder) expr(node ast.Node) (value.Value, error) {
	switch e := node.(type) {
	case *ast.Literal:
		switch v := e.Value.(type) {
		case int64:
			return constant.NewInt(types.I64, v), nil
		case float64:
			return constant.NewFloat(types.Double, v), nil
		default:
			return nil, &UnsupportedError{Line: e.Line, Construct: fmt.Sprintf("%T literals", e.Value)}
		}
	case *ast.Identifier:
		v, ok := b.vals[e.Name]
		if !ok {
			return nil, &UnsupportedError{Line: e.Line, Construct: fmt.Sprintf("unbound identifier %q", e.Name)}
		}
		return v, nil
	case *ast.BinaryOp:
		return b.binary(e)
	case *ast.UnaryOp:
		if e.Op != "-" {
			return nil, &UnsupportedError{Line: e.Line, Construct: fmt.Sprintf("unary %q", e.Op)}
		}
		v, err := b.expr(e.Operand)
		if err != nil {
			return nil, err
		}
		if isFloat(v) {
			return b.block.NewFNeg(v), nil
		}
		return b.block.NewSub(constant.NewInt(types.I64, 0), v), nil
	default:
		return nil, &UnsupportedError{Line: node.Pos(), Construct: constructName(node)}
	}
}

func (b *builder) binary(e *ast.BinaryOp) (value.Value, error) {
	lhs, err := b.expr(e.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := b.expr(e.Right)
	if err != nil {
		return nil, err
	}

	if isFloat(lhs) || isFloat(rhs) {
		lhs, rhs = b.widen(lhs), b.widen(rhs)
		switch e.Op {
		case "+":
			return b.block.NewFAdd(lhs, rhs), nil
		case "-":
			return b.block.NewFSub(lhs, rhs), nil
		case "*":
			return b.block.NewFMul(lhs, rhs), nil
		case "/":
			return b.block.NewFDiv(lhs, rhs), nil
		}
		return nil, &UnsupportedError{Line: e.Line, Construct: fmt.Sprintf("float operator %q", e.Op)}
	}

	switch e.Op {
	case "+":
		return b.block.NewAdd(lhs, rhs), nil
	case "-":
		return b.block.NewSub(lhs, rhs), nil
	case "*":
		return b.block.NewMul(lhs, rhs), nil
	case "/":
		return b.block.NewSDiv(lhs, rhs), nil
	case "%":
		return b.block.NewSRem(lhs, rhs), nil
	}
	return nil, &UnsupportedError{Line: e.Line, Construct: fmt.Sprintf("operator %q", e.Op)}
}

func (b *builder) widen(v value.Value) value.Value {
	if isFloat(v) {
		return v
	}
	return b.block.NewSIToFP(v, types.Double)
}

func isFloat(v value.Value) bool {
	return v.Type().Equal(types.Double)
}

func constructName(n ast.Node) string {
	switch n.(type) {
	case *ast.If:
		return "if statements"
	case *ast.While:
		return "while loops"
	case *ast.For:
		return "for loops"
	case *ast.FunctionDef:
		return "function definitions"
	case *ast.Call:
		return "function calls"
	case *ast.Return:
		return "return statements"
	case *ast.Break, *ast.Continue:
		return "loop control"
	default:
		return fmt.Sprintf("%T", n)
	}
}
