package interp

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stacklang-dev/stacklang/vm"
)

// ErrorKind classifies a runtime failure.
type ErrorKind int

const (
	StackUnderflow ErrorKind = iota
	DivisionByZero
	UndefinedVariable
	InvalidJumpTarget
	InvalidOperand
)

func (k ErrorKind) String() string {
	switch k {
	case StackUnderflow:
		return "stack underflow"
	case DivisionByZero:
		return "division by zero"
	case UndefinedVariable:
		return "undefined variable"
	case InvalidJumpTarget:
		return "invalid jump target"
	case InvalidOperand:
		return "invalid operand"
	default:
		return "runtime error"
	}
}

// RuntimeError names the failing instruction and its address.
type RuntimeError struct {
	Kind ErrorKind
	Addr int
	Op   vm.Op
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %03d (%s): %s: %s", e.Addr, e.Op, e.Kind, e.Msg)
}

// frame is one call activation: its local bindings and where to
// resume after RETURN.
type frame struct {
	vars map[string]vm.Value
	ret  int
}

// Machine executes one program to completion. The bottom frame holds
// the global bindings that Run returns.
type Machine struct {
	id     string
	prog   *vm.Program
	labels map[string]int
	stack  []vm.Value
	frames []*frame
	ip     int
	halted bool
}

// NewMachine builds a machine for prog, resolving every label to its
// instruction address up front.
func NewMachine(prog *vm.Program) (*Machine, error) {
	labels := make(map[string]int)
	for addr, op := range prog.Ops {
		if op.Code != vm.LABEL {
			continue
		}
		s, ok := op.Arg.(vm.StrValue)
		if !ok {
			return nil, fmt.Errorf("label at %03d has %s operand, want a name", addr, vm.TypeName(op.Arg))
		}
		name := string(s)
		if prev, ok := labels[name]; ok {
			return nil, fmt.Errorf("duplicate label %q at %03d and %03d", name, prev, addr)
		}
		labels[name] = addr
	}
	return &Machine{
		id:     uuid.NewString(),
		prog:   prog,
		labels: labels,
		frames: []*frame{{vars: make(map[string]vm.Value)}},
	}, nil
}

// Run steps the machine until HALT, a top-level RETURN, or the end of
// the instruction sequence, and returns the global bindings.
func (m *Machine) Run() (map[string]vm.Value, error) {
	log.Debug().Str("run_id", m.id).Int("ops", len(m.prog.Ops)).Msg("starting execution")

	for !m.halted && m.ip < len(m.prog.Ops) {
		op := m.prog.Ops[m.ip]
		log.Trace().
			Str("run_id", m.id).
			Int("addr", m.ip).
			Str("op", op.String()).
			Int("stack_depth", len(m.stack)).
			Int("frame_depth", len(m.frames)).
			Msg("step")
		if err := m.step(op); err != nil {
			log.Trace().Str("run_id", m.id).Int("addr", m.ip).Err(err).Msg("step failed")
			return nil, err
		}
	}

	log.Debug().Str("run_id", m.id).Int("bindings", len(m.frames[0].vars)).Msg("execution finished")
	return m.frames[0].vars, nil
}

func (m *Machine) fail(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Kind: kind,
		Addr: m.ip,
		Op:   m.prog.Ops[m.ip],
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (m *Machine) push(v vm.Value) {
	m.stack = append(m.stack, v)
}

func (m *Machine) pop() (vm.Value, error) {
	if len(m.stack) == 0 {
		return nil, m.fail(StackUnderflow, "operand stack is empty")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) pop2() (a, b vm.Value, err error) {
	if b, err = m.pop(); err != nil {
		return nil, nil, err
	}
	if a, err = m.pop(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (m *Machine) jump(label string) error {
	addr, ok := m.labels[label]
	if !ok {
		return m.fail(InvalidJumpTarget, "no label %q", label)
	}
	m.ip = addr
	return nil
}

func (m *Machine) load(name string) (vm.Value, error) {
	cur := m.frames[len(m.frames)-1]
	if v, ok := cur.vars[name]; ok {
		return v, nil
	}
	// Function bodies fall back to globals for reads.
	if v, ok := m.frames[0].vars[name]; ok {
		return v, nil
	}
	return nil, m.fail(UndefinedVariable, "%q is not bound", name)
}

func (m *Machine) store(name string, v vm.Value) {
	m.frames[len(m.frames)-1].vars[name] = v
}
