package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders the tree in an indented one-node-per-line form for
// inspection. It has no semantic effect on any stage.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, "", 0)
	return b.String()
}

func dump(b *strings.Builder, n Node, prefix string, depth int) {
	indent := strings.Repeat("|   ", depth)

	switch v := n.(type) {
	case *Program:
		fmt.Fprintf(b, "%s%s<Program>\n", indent, prefix)
		for _, s := range v.Statements {
			dump(b, s, "Stmt: ", depth+1)
		}
	case *Block:
		fmt.Fprintf(b, "%s%s<Block>\n", indent, prefix)
		for _, s := range v.Statements {
			dump(b, s, "Stmt: ", depth+1)
		}
	case *Assignment:
		fmt.Fprintf(b, "%s%s<Assignment> %s\n", indent, prefix, v.Target)
		dump(b, v.Value, "Value: ", depth+1)
	case *ExprStmt:
		fmt.Fprintf(b, "%s%s<ExprStmt>\n", indent, prefix)
		dump(b, v.Expr, "Expr: ", depth+1)
	case *BinaryOp:
		fmt.Fprintf(b, "%s%s<BinaryOp> %s\n", indent, prefix, v.Op)
		dump(b, v.Left, "Left: ", depth+1)
		dump(b, v.Right, "Right: ", depth+1)
	case *UnaryOp:
		fmt.Fprintf(b, "%s%s<UnaryOp> %s\n", indent, prefix, v.Op)
		dump(b, v.Operand, "Operand: ", depth+1)
	case *Literal:
		fmt.Fprintf(b, "%s%s<Literal> %s\n", indent, prefix, FormatLiteral(v.Value))
	case *Identifier:
		fmt.Fprintf(b, "%s%s<Identifier> %s\n", indent, prefix, v.Name)
	case *If:
		fmt.Fprintf(b, "%s%s<If>\n", indent, prefix)
		dump(b, v.Condition, "Condition: ", depth+1)
		dump(b, v.Then, "Then: ", depth+1)
		if v.Else != nil {
			dump(b, v.Else, "Else: ", depth+1)
		}
	case *While:
		fmt.Fprintf(b, "%s%s<While>\n", indent, prefix)
		dump(b, v.Condition, "Condition: ", depth+1)
		dump(b, v.Body, "Body: ", depth+1)
	case *For:
		fmt.Fprintf(b, "%s%s<For>\n", indent, prefix)
		if v.Init != nil {
			dump(b, v.Init, "Init: ", depth+1)
		}
		if v.Condition != nil {
			dump(b, v.Condition, "Condition: ", depth+1)
		}
		if v.Update != nil {
			dump(b, v.Update, "Update: ", depth+1)
		}
		dump(b, v.Body, "Body: ", depth+1)
	case *FunctionDef:
		fmt.Fprintf(b, "%s%s<FunctionDef> %s(%s)\n", indent, prefix, v.Name, strings.Join(v.Params, ", "))
		dump(b, v.Body, "Body: ", depth+1)
	case *Call:
		fmt.Fprintf(b, "%s%s<Call> %s\n", indent, prefix, v.Callee)
		for _, a := range v.Args {
			dump(b, a, "Arg: ", depth+1)
		}
	case *Return:
		fmt.Fprintf(b, "%s%s<Return>\n", indent, prefix)
		if v.Value != nil {
			dump(b, v.Value, "Value: ", depth+1)
		}
	case *Break:
		fmt.Fprintf(b, "%s%s<Break>\n", indent, prefix)
	case *Continue:
		fmt.Fprintf(b, "%s%s<Continue>\n", indent, prefix)
	default:
		fmt.Fprintf(b, "%s%s<%T>\n", indent, prefix, n)
	}
}

// Format writes a tree back out as source text. Re-parsing the result
// yields a structurally identical tree.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n, 0)
	return b.String()
}

func format(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("    ", depth)

	switch v := n.(type) {
	case *Program:
		for _, s := range v.Statements {
			format(b, s, depth)
		}
	case *Block:
		for _, s := range v.Statements {
			format(b, s, depth)
		}
	case *Assignment:
		fmt.Fprintf(b, "%s%s = %s;\n", indent, v.Target, formatExpr(v.Value))
	case *ExprStmt:
		fmt.Fprintf(b, "%s%s;\n", indent, formatExpr(v.Expr))
	case *If:
		fmt.Fprintf(b, "%sif (%s) {\n", indent, formatExpr(v.Condition))
		format(b, v.Then, depth+1)
		if v.Else != nil {
			fmt.Fprintf(b, "%s} else {\n", indent)
			format(b, v.Else, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case *While:
		fmt.Fprintf(b, "%swhile (%s) {\n", indent, formatExpr(v.Condition))
		format(b, v.Body, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	case *For:
		init, update := "", ""
		if a, ok := v.Init.(*Assignment); ok {
			init = fmt.Sprintf("%s = %s", a.Target, formatExpr(a.Value))
		} else if v.Init != nil {
			init = formatExpr(v.Init)
		}
		cond := ""
		if v.Condition != nil {
			cond = formatExpr(v.Condition)
		}
		if a, ok := v.Update.(*Assignment); ok {
			update = fmt.Sprintf("%s = %s", a.Target, formatExpr(a.Value))
		} else if v.Update != nil {
			update = formatExpr(v.Update)
		}
		fmt.Fprintf(b, "%sfor (%s; %s; %s) {\n", indent, init, cond, update)
		format(b, v.Body, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	case *FunctionDef:
		fmt.Fprintf(b, "%sfunc %s(%s) {\n", indent, v.Name, strings.Join(v.Params, ", "))
		format(b, v.Body, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	case *Return:
		if v.Value != nil {
			fmt.Fprintf(b, "%sreturn %s;\n", indent, formatExpr(v.Value))
		} else {
			fmt.Fprintf(b, "%sreturn;\n", indent)
		}
	case *Break:
		fmt.Fprintf(b, "%sbreak;\n", indent)
	case *Continue:
		fmt.Fprintf(b, "%scontinue;\n", indent)
	default:
		fmt.Fprintf(b, "%s%s;\n", indent, formatExpr(n))
	}
}

// formatExpr fully parenthesizes nested operations, so the emitted
// source re-parses to the same shape regardless of precedence.
func formatExpr(n Node) string {
	switch v := n.(type) {
	case *BinaryOp:
		return fmt.Sprintf("(%s %s %s)", formatExpr(v.Left), v.Op, formatExpr(v.Right))
	case *UnaryOp:
		return fmt.Sprintf("(%s%s)", v.Op, formatExpr(v.Operand))
	case *Literal:
		return FormatLiteral(v.Value)
	case *Identifier:
		return v.Name
	case *Call:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = formatExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Callee, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("<%T>", n)
	}
}

// FormatLiteral renders a literal value the way the lexer would accept
// it back.
func FormatLiteral(v any) string {
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		s := strconv.FormatFloat(val, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}
