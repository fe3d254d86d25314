package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nadtcp/nadtcp-go/pkg/schema"
)

// LineTerminator ends every command written to the device.
const LineTerminator = "\n"

// Separator splits an incoming state line into name and value.
const Separator = "="

// Decode errors.
var (
	ErrMalformedLine = errors.New("malformed line")
	ErrTypeCoercion  = errors.New("type coercion failed")
)

// Encode produces the wire form of a command: name, operator and, when
// value is non-nil, the formatted value. Inputs must already be validated.
func Encode(name string, op schema.Operator, value any) string {
	if value == nil {
		return name + op.String()
	}
	return name + op.String() + FormatValue(value)
}

// EncodeLine is Encode followed by the line terminator.
func EncodeLine(name string, op schema.Operator, value any) string {
	return Encode(name, op, value) + LineTerminator
}

// FormatValue renders a value the way the device expects it. Floats use
// the shortest representation that round-trips.
func FormatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// Decode splits a raw state line at the first separator. Surrounding
// whitespace and line terminators are ignored.
func Decode(line string) (name, raw string, err error) {
	line = strings.TrimSpace(line)
	name, raw, found := strings.Cut(line, Separator)
	if !found || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	return name, raw, nil
}

// ParseCommand splits a command in wire form, such as "Main.Volume=-30"
// or "Main.Mute?", into name, operator and raw value. The operator is the
// first operator character after the name. Only assignments carry a value.
func ParseCommand(text string) (string, schema.Operator, string, error) {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, "?+-=")
	if idx <= 0 {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedLine, text)
	}
	op, err := schema.ParseOperator(text[idx : idx+1])
	if err != nil {
		return "", "", "", err
	}
	raw := text[idx+1:]
	if !op.TakesValue() && raw != "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedLine, text)
	}
	return text[:idx], op, raw, nil
}

// Coerce converts a raw value to typ.
func Coerce(raw string, typ schema.ValueType) (any, error) {
	v, err := schema.Coerce(raw, typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTypeCoercion, err)
	}
	return v, nil
}

// Decoder turns state lines into typed values using a registry.
type Decoder struct {
	registry *schema.Registry
}

// NewDecoder creates a decoder bound to registry.
func NewDecoder(registry *schema.Registry) *Decoder {
	return &Decoder{registry: registry}
}

// DecodeLine decodes a line and coerces its value to the type declared by
// the parameter's descriptor. Lines naming parameters outside the registry
// fail with schema.ErrUnknownParameter.
func (d *Decoder) DecodeLine(line string) (string, any, error) {
	name, raw, err := Decode(line)
	if err != nil {
		return "", nil, err
	}
	desc, err := d.registry.Describe(name)
	if err != nil {
		return "", nil, err
	}
	value, err := Coerce(raw, desc.Type)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", name, err)
	}
	return name, value, nil
}
