package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a runtime value carried on the operand stack or as an
// instruction operand.
type Value interface {
	isValue()

	// AsBool reports the truthiness of the value. false, 0, 0.0 and
	// "" are falsy; everything else is truthy.
	AsBool() bool
}

type IntValue int64

func (IntValue) isValue() {}
func (v IntValue) AsBool() bool { return v != 0 }

type FloatValue float64

func (FloatValue) isValue() {}
func (v FloatValue) AsBool() bool { return v != 0 }

type BoolValue bool

func (BoolValue) isValue() {}
func (v BoolValue) AsBool() bool { return bool(v) }

type StrValue string

func (StrValue) isValue() {}
func (v StrValue) AsBool() bool { return v != "" }

// CallTarget is the operand of a CALL instruction: the label of the
// function entry point and the number of arguments already pushed.
type CallTarget struct {
	Label string
	Argc  int
}

func (CallTarget) isValue() {}
func (CallTarget) AsBool() bool { return true }

// FormatValue renders a value for listings and result output. Floats
// always show a decimal point so they stay distinguishable from ints.
func FormatValue(v Value) string {
	switch v := v.(type) {
	case IntValue:
		return strconv.FormatInt(int64(v), 10)
	case FloatValue:
		s := strconv.FormatFloat(float64(v), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case BoolValue:
		return strconv.FormatBool(bool(v))
	case StrValue:
		return strconv.Quote(string(v))
	case CallTarget:
		return fmt.Sprintf("%s/%d", v.Label, v.Argc)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// TypeName names the dynamic type of a value for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case IntValue:
		return "int"
	case FloatValue:
		return "float"
	case BoolValue:
		return "bool"
	case StrValue:
		return "string"
	case CallTarget:
		return "function"
	default:
		return "unknown"
	}
}
