// Package ast defines the tree produced by the parser. Nodes are pure
// data: each node owns its children, and the tree carries no back
// references.
package ast

type Node interface {
	Pos() int
}

// Meta carries the source position every node embeds.
type Meta struct {
	Line int
}

func (m Meta) Pos() int { return m.Line }

// Program is the root node: an ordered sequence of statements.
type Program struct {
	Meta
	Statements []Node
}

// Block is a `{ ... }` statement sequence with its own scope.
type Block struct {
	Meta
	Statements []Node
}

type Assignment struct {
	Meta
	Target string
	Value  Node
}

// ExprStmt runs an expression for effect and discards its value.
type ExprStmt struct {
	Meta
	Expr Node
}

type BinaryOp struct {
	Meta
	Op    string
	Left  Node
	Right Node
}

type UnaryOp struct {
	Meta
	Op      string
	Operand Node
}

// Literal holds one scalar constant. Value is one of int64, float64,
// bool or string.
type Literal struct {
	Meta
	Value any
}

type Identifier struct {
	Meta
	Name string
}

type If struct {
	Meta
	Condition Node
	Then      *Block
	Else      *Block // nil when absent
}

type While struct {
	Meta
	Condition Node
	Body      *Block
}

// For is the three-part C-style loop. Init, Condition and Update may
// each be nil.
type For struct {
	Meta
	Init      Node
	Condition Node
	Update    Node
	Body      *Block
}

type FunctionDef struct {
	Meta
	Name   string
	Params []string
	Body   *Block
}

type Call struct {
	Meta
	Callee string
	Args   []Node
}

type Return struct {
	Meta
	Value Node // nil for a bare return
}

type Break struct {
	Meta
}

type Continue struct {
	Meta
}

// At is shorthand for building a node position.
func At(line int) Meta { return Meta{Line: line} }
