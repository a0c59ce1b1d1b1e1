package vm

import "fmt"

// Opcode identifies a single stack-machine instruction.
type Opcode uint8

const (
	PUSH Opcode = iota
	POP
	ADD
	SUB
	MUL
	DIV
	MOD
	NEG
	AND
	OR
	NOT
	CMP_EQ
	CMP_NE
	CMP_LT
	CMP_GT
	CMP_LE
	CMP_GE
	LOAD
	STORE
	JUMP
	JUMP_IF_FALSE
	LABEL
	CALL
	RETURN
	HALT
)

var opcodeNames = map[Opcode]string{
	PUSH:          "PUSH",
	POP:           "POP",
	ADD:           "ADD",
	SUB:           "SUB",
	MUL:           "MUL",
	DIV:           "DIV",
	MOD:           "MOD",
	NEG:           "NEG",
	AND:           "AND",
	OR:            "OR",
	NOT:           "NOT",
	CMP_EQ:        "CMP_EQ",
	CMP_NE:        "CMP_NE",
	CMP_LT:        "CMP_LT",
	CMP_GT:        "CMP_GT",
	CMP_LE:        "CMP_LE",
	CMP_GE:        "CMP_GE",
	LOAD:          "LOAD",
	STORE:         "STORE",
	JUMP:          "JUMP",
	JUMP_IF_FALSE: "JUMP_IF_FALSE",
	LABEL:         "LABEL",
	CALL:          "CALL",
	RETURN:        "RETURN",
	HALT:          "HALT",
}

func (c Opcode) String() string {
	if name, ok := opcodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(c))
}

// Op is one instruction with its optional operand. Arg is nil for
// opcodes that take no operand.
type Op struct {
	Code Opcode
	Arg  Value
}

func (o Op) String() string {
	if o.Arg == nil {
		return o.Code.String()
	}
	// Names and labels print bare, without string quoting. Operands
	// that don't fit their opcode still have to format, since error
	// messages render the offending instruction.
	switch arg := o.Arg.(type) {
	case StrValue:
		switch o.Code {
		case LOAD, STORE, JUMP, JUMP_IF_FALSE, LABEL:
			return fmt.Sprintf("%s %s", o.Code, string(arg))
		}
	case CallTarget:
		if o.Code == CALL {
			return fmt.Sprintf("%s %s %d", o.Code, arg.Label, arg.Argc)
		}
	}
	return fmt.Sprintf("%s %s", o.Code, FormatValue(o.Arg))
}
