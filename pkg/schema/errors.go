package schema

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrUnknownParameter    = errors.New("unknown parameter")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrMissingValue        = errors.New("missing value")
	ErrUnexpectedValue     = errors.New("unexpected value")
	ErrValueOutOfDomain    = errors.New("value out of domain")
)

// ValidationError reports a rejected command. It wraps one of the
// validation sentinels so callers can use errors.Is.
type ValidationError struct {
	Name     string
	Operator Operator
	Value    any
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s%s: %v", e.Name, e.Operator, e.Err)
	}
	return fmt.Sprintf("%s%s%v: %v", e.Name, e.Operator, e.Value, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
