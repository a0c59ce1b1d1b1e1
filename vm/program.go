package vm

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgryski/go-farm"
	"github.com/shamaton/msgpack/v2"
)

// Program is a compiled instruction sequence ready for execution or
// serialization.
type Program struct {
	Ops []Op
}

// Listing renders the program as numbered instruction lines, one per
// op, the way `stacklang run --bytecode` prints it.
func (p *Program) Listing() string {
	var b strings.Builder
	for i, op := range p.Ops {
		fmt.Fprintf(&b, "%03d: %s\n", i, op)
	}
	return b.String()
}

// Fingerprint hashes the serialized program. build stamps it into the
// bytecode file and exec recomputes it to detect corruption.
func (p *Program) Fingerprint() (uint64, error) {
	var buf bytes.Buffer
	if err := msgpack.MarshalWrite(&buf, wireOps(p.Ops)); err != nil {
		return 0, err
	}
	return farm.Hash64(buf.Bytes()), nil
}

// Wire form: operands are interface values at runtime, so each op is
// flattened to a type-tagged record before encoding.
const (
	argNone uint8 = iota
	argInt
	argFloat
	argBool
	argStr
	argCall
)

type wireOp struct {
	Code  uint8
	Kind  uint8
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Argc  int
}

type wireProgram struct {
	Magic       string
	Fingerprint uint64
	Ops         []wireOp
}

const wireMagic = "stacklang-bytecode-v1"

func wireOps(ops []Op) []wireOp {
	out := make([]wireOp, len(ops))
	for i, op := range ops {
		w := wireOp{Code: uint8(op.Code)}
		switch arg := op.Arg.(type) {
		case nil:
			w.Kind = argNone
		case IntValue:
			w.Kind = argInt
			w.Int = int64(arg)
		case FloatValue:
			w.Kind = argFloat
			w.Float = float64(arg)
		case BoolValue:
			w.Kind = argBool
			w.Bool = bool(arg)
		case StrValue:
			w.Kind = argStr
			w.Str = string(arg)
		case CallTarget:
			w.Kind = argCall
			w.Str = arg.Label
			w.Argc = arg.Argc
		}
		out[i] = w
	}
	return out
}

func fromWireOps(ops []wireOp) ([]Op, error) {
	out := make([]Op, len(ops))
	for i, w := range ops {
		op := Op{Code: Opcode(w.Code)}
		switch w.Kind {
		case argNone:
		case argInt:
			op.Arg = IntValue(w.Int)
		case argFloat:
			op.Arg = FloatValue(w.Float)
		case argBool:
			op.Arg = BoolValue(w.Bool)
		case argStr:
			op.Arg = StrValue(w.Str)
		case argCall:
			op.Arg = CallTarget{Label: w.Str, Argc: w.Argc}
		default:
			return nil, fmt.Errorf("bytecode: unknown operand kind %d at op %d", w.Kind, i)
		}
		out[i] = op
	}
	return out, nil
}

// Serialize writes the program, with its fingerprint, in msgpack form.
func (p *Program) Serialize(w io.Writer) error {
	fp, err := p.Fingerprint()
	if err != nil {
		return err
	}
	return msgpack.MarshalWrite(w, &wireProgram{
		Magic:       wireMagic,
		Fingerprint: fp,
		Ops:         wireOps(p.Ops),
	})
}

// Deserialize reads a program written by Serialize and verifies its
// fingerprint against the decoded instructions.
func (p *Program) Deserialize(r io.Reader) error {
	var wire wireProgram
	if err := msgpack.UnmarshalRead(r, &wire); err != nil {
		return err
	}
	if wire.Magic != wireMagic {
		return fmt.Errorf("bytecode: bad magic %q", wire.Magic)
	}
	ops, err := fromWireOps(wire.Ops)
	if err != nil {
		return err
	}
	p.Ops = ops
	fp, err := p.Fingerprint()
	if err != nil {
		return err
	}
	if fp != wire.Fingerprint {
		return fmt.Errorf("bytecode: fingerprint mismatch: file says %016x, contents hash to %016x", wire.Fingerprint, fp)
	}
	return nil
}
