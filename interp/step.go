package interp

import (
	"github.com/stacklang-dev/stacklang/vm"
)

// step executes one instruction and advances the instruction pointer.
func (m *Machine) step(op vm.Op) error {
	switch op.Code {
	case vm.LABEL:
		// Resolved before execution; a no-op at runtime.

	case vm.PUSH:
		if op.Arg == nil {
			return m.fail(InvalidOperand, "PUSH needs a value operand")
		}
		m.push(op.Arg)

	case vm.POP:
		if _, err := m.pop(); err != nil {
			return err
		}

	case vm.ADD, vm.SUB, vm.MUL, vm.DIV, vm.MOD:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		v, err := m.arith(op.Code, a, b)
		if err != nil {
			return err
		}
		m.push(v)

	case vm.NEG:
		a, err := m.pop()
		if err != nil {
			return err
		}
		switch v := a.(type) {
		case vm.IntValue:
			m.push(-v)
		case vm.FloatValue:
			m.push(-v)
		default:
			return m.fail(InvalidOperand, "cannot negate %s", vm.TypeName(a))
		}

	case vm.AND:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		m.push(vm.BoolValue(a.AsBool() && b.AsBool()))

	case vm.OR:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		m.push(vm.BoolValue(a.AsBool() || b.AsBool()))

	case vm.NOT:
		a, err := m.pop()
		if err != nil {
			return err
		}
		m.push(vm.BoolValue(!a.AsBool()))

	case vm.CMP_EQ, vm.CMP_NE, vm.CMP_LT, vm.CMP_GT, vm.CMP_LE, vm.CMP_GE:
		a, b, err := m.pop2()
		if err != nil {
			return err
		}
		v, err := m.compare(op.Code, a, b)
		if err != nil {
			return err
		}
		m.push(v)

	case vm.LOAD:
		name, err := m.nameArg(op)
		if err != nil {
			return err
		}
		v, err := m.load(name)
		if err != nil {
			return err
		}
		m.push(v)

	case vm.STORE:
		name, err := m.nameArg(op)
		if err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.store(name, v)

	case vm.JUMP:
		name, err := m.nameArg(op)
		if err != nil {
			return err
		}
		return m.jump(name)

	case vm.JUMP_IF_FALSE:
		name, err := m.nameArg(op)
		if err != nil {
			return err
		}
		cond, err := m.pop()
		if err != nil {
			return err
		}
		if !cond.AsBool() {
			return m.jump(name)
		}

	case vm.CALL:
		target, ok := op.Arg.(vm.CallTarget)
		if !ok {
			return m.fail(InvalidOperand, "CALL needs a call target, got %s", vm.TypeName(op.Arg))
		}
		addr, ok := m.labels[target.Label]
		if !ok {
			return m.fail(InvalidJumpTarget, "no function %q", target.Label)
		}
		if len(m.stack) < target.Argc {
			return m.fail(StackUnderflow, "%s needs %d arguments, stack has %d", target.Label, target.Argc, len(m.stack))
		}
		m.frames = append(m.frames, &frame{
			vars: make(map[string]vm.Value),
			ret:  m.ip + 1,
		})
		m.ip = addr
		return nil

	case vm.RETURN:
		if len(m.frames) == 1 {
			// RETURN at the top level ends the program like HALT.
			m.halted = true
			return nil
		}
		f := m.frames[len(m.frames)-1]
		m.frames = m.frames[:len(m.frames)-1]
		m.ip = f.ret
		return nil

	case vm.HALT:
		m.halted = true
		return nil

	default:
		return m.fail(InvalidOperand, "unknown opcode %d", uint8(op.Code))
	}

	m.ip++
	return nil
}

// nameArg extracts the variable or label name an instruction carries.
// Hand-assembled bytecode can pair an opcode with the wrong operand
// type, so the machine checks instead of asserting.
func (m *Machine) nameArg(op vm.Op) (string, error) {
	s, ok := op.Arg.(vm.StrValue)
	if !ok {
		return "", m.fail(InvalidOperand, "%s needs a name operand, got %s", op.Code, vm.TypeName(op.Arg))
	}
	return string(s), nil
}

// arith applies one arithmetic opcode. Mixed int/float operands widen
// to float; + concatenates when both sides are strings.
func (m *Machine) arith(code vm.Opcode, a, b vm.Value) (vm.Value, error) {
	if code == vm.ADD {
		as, aok := a.(vm.StrValue)
		bs, bok := b.(vm.StrValue)
		if aok && bok {
			return as + bs, nil
		}
	}

	ai, aInt := a.(vm.IntValue)
	bi, bInt := b.(vm.IntValue)
	if aInt && bInt {
		return m.intArith(code, int64(ai), int64(bi))
	}

	af, aOk := toFloat(a)
	bf, bOk := toFloat(b)
	if !aOk || !bOk {
		return nil, m.fail(InvalidOperand, "cannot apply %s to %s and %s", code, vm.TypeName(a), vm.TypeName(b))
	}
	return m.floatArith(code, af, bf)
}

func (m *Machine) intArith(code vm.Opcode, a, b int64) (vm.Value, error) {
	switch code {
	case vm.ADD:
		return vm.IntValue(a + b), nil
	case vm.SUB:
		return vm.IntValue(a - b), nil
	case vm.MUL:
		return vm.IntValue(a * b), nil
	case vm.DIV:
		if b == 0 {
			return nil, m.fail(DivisionByZero, "%d / 0", a)
		}
		return vm.IntValue(a / b), nil
	case vm.MOD:
		if b == 0 {
			return nil, m.fail(DivisionByZero, "%d %% 0", a)
		}
		return vm.IntValue(a % b), nil
	}
	return nil, m.fail(InvalidOperand, "%s is not arithmetic", code)
}

func (m *Machine) floatArith(code vm.Opcode, a, b float64) (vm.Value, error) {
	switch code {
	case vm.ADD:
		return vm.FloatValue(a + b), nil
	case vm.SUB:
		return vm.FloatValue(a - b), nil
	case vm.MUL:
		return vm.FloatValue(a * b), nil
	case vm.DIV:
		if b == 0 {
			return nil, m.fail(DivisionByZero, "%g / 0", a)
		}
		return vm.FloatValue(a / b), nil
	case vm.MOD:
		return nil, m.fail(InvalidOperand, "%% needs integer operands")
	}
	return nil, m.fail(InvalidOperand, "%s is not arithmetic", code)
}

func (m *Machine) compare(code vm.Opcode, a, b vm.Value) (vm.Value, error) {
	// Two ints compare exactly; going through float64 would conflate
	// values past 2^53.
	ai, aInt := a.(vm.IntValue)
	bi, bInt := b.(vm.IntValue)
	if aInt && bInt {
		return vm.BoolValue(cmpOrdered(code, int64(ai), int64(bi))), nil
	}

	// Numeric comparison otherwise, widening mixed operands.
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		return vm.BoolValue(cmpOrdered(code, af, bf)), nil
	}

	as, aStr := a.(vm.StrValue)
	bs, bStr := b.(vm.StrValue)
	if aStr && bStr {
		return vm.BoolValue(cmpOrdered(code, string(as), string(bs))), nil
	}

	ab, aBool := a.(vm.BoolValue)
	bb, bBool := b.(vm.BoolValue)
	if aBool && bBool {
		switch code {
		case vm.CMP_EQ:
			return vm.BoolValue(ab == bb), nil
		case vm.CMP_NE:
			return vm.BoolValue(ab != bb), nil
		}
	}

	return nil, m.fail(InvalidOperand, "cannot compare %s and %s with %s", vm.TypeName(a), vm.TypeName(b), code)
}

func cmpOrdered[T int64 | float64 | string](code vm.Opcode, a, b T) bool {
	switch code {
	case vm.CMP_EQ:
		return a == b
	case vm.CMP_NE:
		return a != b
	case vm.CMP_LT:
		return a < b
	case vm.CMP_GT:
		return a > b
	case vm.CMP_LE:
		return a <= b
	default:
		return a >= b
	}
}

func toFloat(v vm.Value) (float64, bool) {
	switch v := v.(type) {
	case vm.IntValue:
		return float64(v), true
	case vm.FloatValue:
		return float64(v), true
	default:
		return 0, false
	}
}
