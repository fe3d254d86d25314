package schema

// Parameter names of the NAD C338 catalog.
const (
	ParamMain           = "Main"
	ParamAnalogGain     = "Main.AnalogGain"
	ParamBrightness     = "Main.Brightness"
	ParamBass           = "Main.Bass"
	ParamControlStandby = "Main.ControlStandby"
	ParamAutoStandby    = "Main.AutoStandby"
	ParamAutoSense      = "Main.AutoSense"
	ParamVersion        = "Main.Version"
	ParamModel          = "Main.Model"
	ParamMute           = "Main.Mute"
	ParamPower          = "Main.Power"
	ParamSource         = "Main.Source"
	ParamVolume         = "Main.Volume"
)

// Switch values.
const (
	On  = "On"
	Off = "Off"
)

var (
	allOps    = AllOperators
	queryOnly = []Operator{OpQuery}
	onOff     = Enum(On, Off)

	// inputs in front-panel order
	c338Sources = Enum("Stream", "Wireless", "TV", "Phono", "Coax1", "Coax2", "Opt1", "Opt2")
)

var c338 = MustRegistry(
	Descriptor{Name: ParamMain, Operators: queryOnly},
	// The C338 reports AnalogGain but refuses every assignment.
	Descriptor{Name: ParamAnalogGain, Operators: allOps, Domain: Range(0, 0), Type: TypeInt},
	Descriptor{Name: ParamBrightness, Operators: allOps, Domain: Range(0, 4), Type: TypeInt},
	Descriptor{Name: ParamMute, Operators: allOps, Domain: onOff},
	Descriptor{Name: ParamPower, Operators: allOps, Domain: onOff},
	Descriptor{Name: ParamVolume, Operators: allOps, Domain: Range(-80, 0), Type: TypeFloat},
	Descriptor{Name: ParamBass, Operators: allOps, Domain: onOff},
	Descriptor{Name: ParamControlStandby, Operators: allOps, Domain: onOff},
	Descriptor{Name: ParamAutoStandby, Operators: allOps, Domain: onOff},
	Descriptor{Name: ParamAutoSense, Operators: allOps, Domain: onOff},
	Descriptor{Name: ParamSource, Operators: allOps, Domain: c338Sources},
	Descriptor{Name: ParamVersion, Operators: queryOnly, Type: TypeFloat},
	Descriptor{Name: ParamModel, Operators: queryOnly, Domain: Enum("NADC338")},
)

// C338 returns the parameter catalog of the NAD C338.
func C338() *Registry {
	return c338
}

// Sources returns the enumerated values of the Main.Source parameter in r,
// or nil when r has no enumerated source parameter.
func Sources(r *Registry) []string {
	d, err := r.Describe(ParamSource)
	if err != nil {
		return nil
	}
	if e, ok := d.Domain.(EnumDomain); ok {
		return e.Values()
	}
	return nil
}
