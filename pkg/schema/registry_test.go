package schema

import (
	"errors"
	"math"
	"testing"
)

func TestDescribe(t *testing.T) {
	r := C338()

	d, err := r.Describe(ParamVolume)
	if err != nil {
		t.Fatalf("Describe(%s) error = %v", ParamVolume, err)
	}
	if d.Type != TypeFloat {
		t.Errorf("Type = %v, want float", d.Type)
	}
	if !d.Supports(OpAssign) {
		t.Error("Main.Volume should support '='")
	}

	_, err = r.Describe("Main.Nope")
	if !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("Describe(unknown) error = %v, want ErrUnknownParameter", err)
	}
}

func TestValidate(t *testing.T) {
	r := C338()

	tests := []struct {
		name    string
		param   string
		op      Operator
		value   any
		want    any
		wantErr error
	}{
		{"query root", ParamMain, OpQuery, nil, nil, nil},
		{"assign root", ParamMain, OpAssign, "x", nil, ErrUnsupportedOperator},
		{"unknown", "Main.Nope", OpQuery, nil, nil, ErrUnknownParameter},
		{"assign without value", ParamPower, OpAssign, nil, nil, ErrMissingValue},
		{"query with value", ParamPower, OpQuery, On, nil, ErrUnexpectedValue},
		{"increment with value", ParamVolume, OpIncrement, 1.0, nil, ErrUnexpectedValue},
		{"decrement with value", ParamVolume, OpDecrement, 1.0, nil, ErrUnexpectedValue},
		{"power on", ParamPower, OpAssign, On, On, nil},
		{"power bogus", ParamPower, OpAssign, "Maybe", nil, ErrValueOutOfDomain},
		{"volume float", ParamVolume, OpAssign, -20.5, -20.5, nil},
		{"volume int coerced", ParamVolume, OpAssign, -20, -20.0, nil},
		{"volume string coerced", ParamVolume, OpAssign, "-12", -12.0, nil},
		{"volume too high", ParamVolume, OpAssign, 5, nil, ErrValueOutOfDomain},
		{"volume upper bound exclusive", ParamVolume, OpAssign, 0, nil, ErrValueOutOfDomain},
		{"volume lower bound inclusive", ParamVolume, OpAssign, -80, -80.0, nil},
		{"volume not a number", ParamVolume, OpAssign, "loud", nil, ErrValueOutOfDomain},
		{"brightness", ParamBrightness, OpAssign, 3, 3, nil},
		{"brightness fractional", ParamBrightness, OpAssign, 1.5, nil, ErrValueOutOfDomain},
		{"brightness out", ParamBrightness, OpAssign, 4, nil, ErrValueOutOfDomain},
		{"analog gain always out", ParamAnalogGain, OpAssign, 0, nil, ErrValueOutOfDomain},
		{"source", ParamSource, OpAssign, "Phono", "Phono", nil},
		{"source case sensitive", ParamSource, OpAssign, "phono", nil, ErrValueOutOfDomain},
		{"source not a string", ParamSource, OpAssign, 3, nil, ErrValueOutOfDomain},
		{"version query only", ParamVersion, OpIncrement, nil, nil, ErrUnsupportedOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Validate(tt.param, tt.op, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("error %T is not a *ValidationError", err)
				}
				if verr.Name != tt.param {
					t.Errorf("ValidationError.Name = %q, want %q", verr.Name, tt.param)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Validate() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNewRegistryRejectsInconsistentDescriptors(t *testing.T) {
	tests := []struct {
		name string
		desc []Descriptor
	}{
		{"empty name", []Descriptor{{Operators: []Operator{OpQuery}}}},
		{"no operators", []Descriptor{{Name: "A"}}},
		{"bad operator", []Descriptor{{Name: "A", Operators: []Operator{"*"}}}},
		{"range on string", []Descriptor{{Name: "A", Operators: []Operator{OpAssign}, Domain: Range(0, 1)}}},
		{"enum on float", []Descriptor{{Name: "A", Operators: []Operator{OpAssign}, Domain: Enum("x"), Type: TypeFloat}}},
		{"empty enum assignable", []Descriptor{{Name: "A", Operators: []Operator{OpAssign}, Domain: Enum()}}},
		{"assignable without domain or type", []Descriptor{{Name: "A", Operators: []Operator{OpQuery, OpAssign}}}},
		{"duplicate", []Descriptor{
			{Name: "A", Operators: []Operator{OpQuery}},
			{Name: "A", Operators: []Operator{OpQuery}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.desc...); err == nil {
				t.Error("NewRegistry() succeeded, want error")
			}
		})
	}
}

func TestNewRegistryAcceptsNumericWithoutDomain(t *testing.T) {
	r, err := NewRegistry(Descriptor{Name: "Zone2.Delay", Operators: []Operator{OpQuery, OpAssign}, Type: TypeInt})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if got, err := r.Validate("Zone2.Delay", OpAssign, "250"); err != nil || got != 250 {
		t.Errorf("Validate() = %v, %v", got, err)
	}
}

func TestRegistryIsolation(t *testing.T) {
	ops := []Operator{OpQuery, OpAssign}
	r, err := NewRegistry(Descriptor{Name: "Zone2.Power", Operators: ops, Domain: Enum(On, Off)})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	// Mutating the caller's slice must not leak into the registry.
	ops[1] = OpIncrement

	if _, err := r.Validate("Zone2.Power", OpAssign, On); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if _, err := r.Describe(ParamVolume); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("custom registry should not know %s", ParamVolume)
	}
}

func TestNames(t *testing.T) {
	names := C338().Names()
	if len(names) != C338().Len() {
		t.Fatalf("len(Names()) = %d, want %d", len(names), C338().Len())
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestSources(t *testing.T) {
	got := Sources(C338())
	want := []string{"Stream", "Wireless", "TV", "Phono", "Coax1", "Coax2", "Opt1", "Opt2"}
	if len(got) != len(want) {
		t.Fatalf("Sources() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sources()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Returned slice is a copy.
	got[0] = "Changed"
	if Sources(C338())[0] != "Stream" {
		t.Error("Sources() exposed internal state")
	}
}

func TestParseOperator(t *testing.T) {
	for _, op := range AllOperators {
		got, err := ParseOperator(op.String())
		if err != nil || got != op {
			t.Errorf("ParseOperator(%q) = %q, %v", op, got, err)
		}
	}
	if _, err := ParseOperator("*"); !errors.Is(err, ErrUnsupportedOperator) {
		t.Errorf("ParseOperator(*) error = %v, want ErrUnsupportedOperator", err)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in      any
		typ     ValueType
		want    any
		wantErr bool
	}{
		{"On", TypeString, "On", false},
		{12, TypeString, nil, true},
		{"3", TypeInt, 3, false},
		{" 3 ", TypeInt, 3, false},
		{3.0, TypeInt, 3, false},
		{3.5, TypeInt, nil, true},
		{"x", TypeInt, nil, true},
		{"-20.5", TypeFloat, -20.5, false},
		{int64(-7), TypeFloat, -7.0, false},
		{float32(1.5), TypeFloat, 1.5, false},
		{true, TypeFloat, nil, true},
		{"NaN", TypeFloat, nil, true},
		{"-Inf", TypeFloat, nil, true},
		{math.NaN(), TypeFloat, nil, true},
		{math.Inf(1), TypeInt, nil, true},
	}

	for _, tt := range tests {
		got, err := Coerce(tt.in, tt.typ)
		if (err != nil) != tt.wantErr {
			t.Errorf("Coerce(%v, %s) error = %v, wantErr %v", tt.in, tt.typ, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Coerce(%v, %s) = %v (%T), want %v (%T)", tt.in, tt.typ, got, got, tt.want, tt.want)
		}
	}
}
