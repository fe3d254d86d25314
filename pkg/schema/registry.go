package schema

import (
	"errors"
	"fmt"
	"slices"
)

// Descriptor describes one protocol parameter.
type Descriptor struct {
	// Name is the dotted identifier, e.g. "Main.Volume".
	Name string

	// Operators lists the operators the device accepts for this parameter.
	Operators []Operator

	// Domain constrains assigned values. Nil means unconstrained.
	Domain Domain

	// Type is the coercion target for values (default TypeString). An
	// assignable string parameter must also carry a Domain.
	Type ValueType
}

// Supports reports whether op is accepted for this parameter.
func (d Descriptor) Supports(op Operator) bool {
	return slices.Contains(d.Operators, op)
}

// check verifies the descriptor is internally consistent.
func (d Descriptor) check() error {
	if d.Name == "" {
		return errors.New("empty parameter name")
	}
	if len(d.Operators) == 0 {
		return fmt.Errorf("%s: no operators", d.Name)
	}
	for _, op := range d.Operators {
		if _, err := ParseOperator(string(op)); err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	switch dom := d.Domain.(type) {
	case nil:
		// A free-form string would accept any assignment.
		if d.Supports(OpAssign) && !d.Type.Numeric() {
			return fmt.Errorf("%s: assignable parameter needs a domain or a numeric type", d.Name)
		}
	case RangeDomain:
		if !d.Type.Numeric() {
			return fmt.Errorf("%s: range domain requires a numeric type, got %s", d.Name, d.Type)
		}
	case EnumDomain:
		if d.Type != TypeString {
			return fmt.Errorf("%s: enum domain requires string type, got %s", d.Name, d.Type)
		}
		if len(dom.values) == 0 && d.Supports(OpAssign) {
			return fmt.Errorf("%s: empty enum on assignable parameter", d.Name)
		}
	}
	return nil
}

// Registry is an immutable set of descriptors keyed by name.
// It is safe for concurrent use.
type Registry struct {
	descriptors map[string]Descriptor
	names       []string
}

// NewRegistry builds a registry from descriptors. Duplicate names and
// inconsistent descriptors are rejected.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make(map[string]Descriptor, len(descs)),
		names:       make([]string, 0, len(descs)),
	}
	for _, d := range descs {
		if err := d.check(); err != nil {
			return nil, err
		}
		if _, dup := r.descriptors[d.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter %s", d.Name)
		}
		d.Operators = slices.Clone(d.Operators)
		r.descriptors[d.Name] = d
		r.names = append(r.names, d.Name)
	}
	slices.Sort(r.names)
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. Intended for
// package-level catalogs.
func MustRegistry(descs ...Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return r
}

// Describe returns the descriptor for name.
func (r *Registry) Describe(name string) (Descriptor, error) {
	d, ok := r.descriptors[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return d, nil
}

// Names returns all parameter names, sorted.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	return len(r.names)
}

// Validate checks a command against the schema. A nil value means the
// command carries no value. On success it returns the value coerced to the
// descriptor's type (nil for value-less operators).
func (r *Registry) Validate(name string, op Operator, value any) (any, error) {
	d, err := r.Describe(name)
	if err != nil {
		return nil, &ValidationError{Name: name, Operator: op, Value: value, Err: ErrUnknownParameter}
	}

	fail := func(sentinel error) error {
		return &ValidationError{Name: name, Operator: op, Value: value, Err: sentinel}
	}

	if !d.Supports(op) {
		return nil, fail(ErrUnsupportedOperator)
	}
	if !op.TakesValue() {
		if value != nil {
			return nil, fail(ErrUnexpectedValue)
		}
		return nil, nil
	}
	if value == nil {
		return nil, fail(ErrMissingValue)
	}

	coerced, err := Coerce(value, d.Type)
	if err != nil {
		return nil, fail(ErrValueOutOfDomain)
	}
	if d.Domain != nil && !d.Domain.Contains(coerced) {
		return nil, fail(ErrValueOutOfDomain)
	}
	return coerced, nil
}
