package vm

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stacklang-dev/stacklang/ast"
)

// CodegenError reports an AST shape the generator cannot lower. The
// analyzer rejects these earlier, so hitting one means the tree was
// built by hand.
type CodegenError struct {
	Line int
	Msg  string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("line %d: codegen: %s", e.Line, e.Msg)
}

var binaryOps = map[string]Opcode{
	"+":  ADD,
	"-":  SUB,
	"*":  MUL,
	"/":  DIV,
	"%":  MOD,
	"&&": AND,
	"||": OR,
	"==": CMP_EQ,
	"!=": CMP_NE,
	"<":  CMP_LT,
	">":  CMP_GT,
	"<=": CMP_LE,
	">=": CMP_GE,
}

type loopLabels struct {
	brk  string
	cont string
}

type compiler struct {
	ops        []Op
	labelCount int
	loops      []loopLabels
	pending    []*ast.FunctionDef
	funcs      map[string]bool
}

// Compile lowers a program to bytecode. Top-level statements come
// first and end with HALT; every function body follows as a labeled
// section entered only through CALL.
func Compile(prog *ast.Program) (*Program, error) {
	c := &compiler{funcs: make(map[string]bool)}
	for _, stmt := range prog.Statements {
		if err := c.statement(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(HALT, nil)

	// Function definitions collected during the walk, plus any nested
	// definitions their bodies surface.
	for len(c.pending) > 0 {
		fn := c.pending[0]
		c.pending = c.pending[1:]
		if err := c.function(fn); err != nil {
			return nil, err
		}
	}

	log.Debug().Int("ops", len(c.ops)).Msg("compiled program")
	return &Program{Ops: c.ops}, nil
}

func (c *compiler) emit(code Opcode, arg Value) {
	c.ops = append(c.ops, Op{Code: code, Arg: arg})
}

func (c *compiler) newLabel() string {
	c.labelCount++
	return fmt.Sprintf("L%d", c.labelCount)
}

func (c *compiler) statement(stmt ast.Node) error {
	switch s := stmt.(type) {
	case *ast.Block:
		for _, inner := range s.Statements {
			if err := c.statement(inner); err != nil {
				return err
			}
		}
		return nil
	case *ast.Assignment:
		if err := c.expr(s.Value); err != nil {
			return err
		}
		c.emit(STORE, StrValue(s.Target))
		return nil
	case *ast.ExprStmt:
		if err := c.expr(s.Expr); err != nil {
			return err
		}
		c.emit(POP, nil)
		return nil
	case *ast.If:
		return c.ifStmt(s)
	case *ast.While:
		return c.whileStmt(s)
	case *ast.For:
		return c.forStmt(s)
	case *ast.FunctionDef:
		c.pending = append(c.pending, s)
		return nil
	case *ast.Return:
		if s.Value != nil {
			if err := c.expr(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(PUSH, IntValue(0))
		}
		c.emit(RETURN, nil)
		return nil
	case *ast.Break:
		if len(c.loops) == 0 {
			return &CodegenError{Line: s.Line, Msg: "break outside loop"}
		}
		c.emit(JUMP, StrValue(c.loops[len(c.loops)-1].brk))
		return nil
	case *ast.Continue:
		if len(c.loops) == 0 {
			return &CodegenError{Line: s.Line, Msg: "continue outside loop"}
		}
		c.emit(JUMP, StrValue(c.loops[len(c.loops)-1].cont))
		return nil
	default:
		return &CodegenError{Line: stmt.Pos(), Msg: fmt.Sprintf("unexpected statement %T", stmt)}
	}
}

func (c *compiler) ifStmt(s *ast.If) error {
	elseLabel := c.newLabel()
	endLabel := c.newLabel()

	if err := c.expr(s.Condition); err != nil {
		return err
	}
	c.emit(JUMP_IF_FALSE, StrValue(elseLabel))
	if err := c.statement(s.Then); err != nil {
		return err
	}
	c.emit(JUMP, StrValue(endLabel))
	c.emit(LABEL, StrValue(elseLabel))
	if s.Else != nil {
		if err := c.statement(s.Else); err != nil {
			return err
		}
	}
	c.emit(LABEL, StrValue(endLabel))
	return nil
}

func (c *compiler) whileStmt(s *ast.While) error {
	startLabel := c.newLabel()
	endLabel := c.newLabel()

	c.loops = append(c.loops, loopLabels{brk: endLabel, cont: startLabel})
	defer func() { c.loops = c.loops[:len(c.loops)-1] }()

	c.emit(LABEL, StrValue(startLabel))
	if err := c.expr(s.Condition); err != nil {
		return err
	}
	c.emit(JUMP_IF_FALSE, StrValue(endLabel))
	if err := c.statement(s.Body); err != nil {
		return err
	}
	c.emit(JUMP, StrValue(startLabel))
	c.emit(LABEL, StrValue(endLabel))
	return nil
}

func (c *compiler) forStmt(s *ast.For) error {
	startLabel := c.newLabel()
	updateLabel := c.newLabel()
	endLabel := c.newLabel()

	if s.Init != nil {
		if err := c.statement(s.Init); err != nil {
			return err
		}
	}

	// continue targets the update clause, not the condition.
	c.loops = append(c.loops, loopLabels{brk: endLabel, cont: updateLabel})
	defer func() { c.loops = c.loops[:len(c.loops)-1] }()

	c.emit(LABEL, StrValue(startLabel))
	if s.Condition != nil {
		if err := c.expr(s.Condition); err != nil {
			return err
		}
		c.emit(JUMP_IF_FALSE, StrValue(endLabel))
	}
	if err := c.statement(s.Body); err != nil {
		return err
	}
	c.emit(LABEL, StrValue(updateLabel))
	if s.Update != nil {
		if err := c.statement(s.Update); err != nil {
			return err
		}
	}
	c.emit(JUMP, StrValue(startLabel))
	c.emit(LABEL, StrValue(endLabel))
	return nil
}

func (c *compiler) function(fn *ast.FunctionDef) error {
	// Each function owns one entry label; a second definition with the
	// same name would collide there.
	if c.funcs[fn.Name] {
		return &CodegenError{Line: fn.Line, Msg: fmt.Sprintf("function %q already defined", fn.Name)}
	}
	c.funcs[fn.Name] = true
	c.emit(LABEL, StrValue("FUNC_"+fn.Name))

	// Arguments sit on the stack in push order; binding them in
	// reverse assigns the last-pushed value to the last parameter.
	for i := len(fn.Params) - 1; i >= 0; i-- {
		c.emit(STORE, StrValue(fn.Params[i]))
	}

	// break/continue never cross a function boundary.
	saved := c.loops
	c.loops = nil
	defer func() { c.loops = saved }()

	if err := c.statement(fn.Body); err != nil {
		return err
	}

	// Fallthrough return for bodies that reach the end.
	c.emit(PUSH, IntValue(0))
	c.emit(RETURN, nil)
	return nil
}

func (c *compiler) expr(node ast.Node) error {
	switch e := node.(type) {
	case *ast.Literal:
		val, err := literalValue(e)
		if err != nil {
			return err
		}
		c.emit(PUSH, val)
		return nil
	case *ast.Identifier:
		c.emit(LOAD, StrValue(e.Name))
		return nil
	case *ast.BinaryOp:
		if err := c.expr(e.Left); err != nil {
			return err
		}
		if err := c.expr(e.Right); err != nil {
			return err
		}
		code, ok := binaryOps[e.Op]
		if !ok {
			return &CodegenError{Line: e.Line, Msg: fmt.Sprintf("unknown binary operator %q", e.Op)}
		}
		c.emit(code, nil)
		return nil
	case *ast.UnaryOp:
		if err := c.expr(e.Operand); err != nil {
			return err
		}
		switch e.Op {
		case "-":
			c.emit(NEG, nil)
		case "!":
			c.emit(NOT, nil)
		default:
			return &CodegenError{Line: e.Line, Msg: fmt.Sprintf("unknown unary operator %q", e.Op)}
		}
		return nil
	case *ast.Call:
		for _, arg := range e.Args {
			if err := c.expr(arg); err != nil {
				return err
			}
		}
		c.emit(CALL, CallTarget{Label: "FUNC_" + e.Callee, Argc: len(e.Args)})
		return nil
	default:
		return &CodegenError{Line: node.Pos(), Msg: fmt.Sprintf("unexpected expression %T", node)}
	}
}

func literalValue(lit *ast.Literal) (Value, error) {
	switch v := lit.Value.(type) {
	case int64:
		return IntValue(v), nil
	case float64:
		return FloatValue(v), nil
	case bool:
		return BoolValue(v), nil
	case string:
		return StrValue(v), nil
	default:
		return nil, &CodegenError{Line: lit.Line, Msg: fmt.Sprintf("unexpected literal %T", lit.Value)}
	}
}
