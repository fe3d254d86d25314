package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Domain constrains the values a parameter accepts. Contains is called with
// a value that has already been coerced to the descriptor's type.
type Domain interface {
	Contains(v any) bool
	String() string
}

// EnumDomain is an ordered set of literal strings.
type EnumDomain struct {
	values []string
}

// Enum creates an enumerated domain. Order is preserved.
func Enum(values ...string) EnumDomain {
	return EnumDomain{values: slices.Clone(values)}
}

// Values returns the literals in declaration order.
func (e EnumDomain) Values() []string {
	return slices.Clone(e.values)
}

// Contains reports whether v is one of the literals.
func (e EnumDomain) Contains(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return slices.Contains(e.values, s)
}

func (e EnumDomain) String() string {
	return "{" + strings.Join(e.values, ", ") + "}"
}

// RangeDomain is a numeric interval with an inclusive lower bound and an
// exclusive upper bound.
type RangeDomain struct {
	Min float64
	Max float64
}

// Range creates the interval [lo, hi).
func Range(lo, hi float64) RangeDomain {
	return RangeDomain{Min: lo, Max: hi}
}

// Contains reports whether v lies in [Min, Max).
func (r RangeDomain) Contains(v any) bool {
	f, ok := toFloat(v)
	if !ok {
		return false
	}
	return f >= r.Min && f < r.Max
}

// Empty reports whether no value can satisfy the range.
func (r RangeDomain) Empty() bool {
	return r.Max <= r.Min
}

func (r RangeDomain) String() string {
	return fmt.Sprintf("[%g, %g)", r.Min, r.Max)
}

// Compile-time interface satisfaction checks.
var (
	_ Domain = EnumDomain{}
	_ Domain = RangeDomain{}
)
