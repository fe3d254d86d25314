package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operator is a protocol verb.
type Operator string

const (
	// OpQuery asks the device for the current value.
	OpQuery Operator = "?"

	// OpIncrement steps the value up.
	OpIncrement Operator = "+"

	// OpDecrement steps the value down.
	OpDecrement Operator = "-"

	// OpAssign sets the value.
	OpAssign Operator = "="
)

// AllOperators lists every operator in wire order.
var AllOperators = []Operator{OpIncrement, OpDecrement, OpAssign, OpQuery}

// ParseOperator converts a single-character wire operator.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case OpQuery, OpIncrement, OpDecrement, OpAssign:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, s)
	}
}

// String returns the wire representation.
func (o Operator) String() string {
	return string(o)
}

// TakesValue reports whether the operator carries a value on the wire.
func (o Operator) TakesValue() bool {
	return o == OpAssign
}

// ValueType is the coercion target for a parameter value.
type ValueType uint8

const (
	// TypeString keeps values as strings (the default).
	TypeString ValueType = iota

	// TypeInt coerces values to int.
	TypeInt

	// TypeFloat coerces values to float64.
	TypeFloat
)

// String returns the type name.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Numeric reports whether values of this type are numbers.
func (t ValueType) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Coerce converts v to the Go representation of t: string, int or float64.
// Strings are parsed; numbers are converted when no precision is lost.
func Coerce(v any, t ValueType) (any, error) {
	switch t {
	case TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case fmt.Stringer:
			return s.String(), nil
		}
		return nil, fmt.Errorf("cannot use %T as %s", v, t)

	case TypeInt:
		if s, ok := v.(string); ok {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as %s", s, t)
			}
			return n, nil
		}
		f, ok := toFloat(v)
		if !ok || !finite(f) || f != math.Trunc(f) {
			return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, t)
		}
		return int(f), nil

	case TypeFloat:
		var f float64
		if s, ok := v.(string); ok {
			var err error
			if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return nil, fmt.Errorf("cannot parse %q as %s", s, t)
			}
		} else if f, ok = toFloat(v); !ok {
			return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, t)
		}
		// NaN never equals itself, so a stored NaN would look changed forever.
		if !finite(f) {
			return nil, fmt.Errorf("%v is not a finite %s", v, t)
		}
		return f, nil
	}
	return nil, fmt.Errorf("unknown value type %d", t)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
