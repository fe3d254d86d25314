package nad

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nadtcp/nadtcp-go/pkg/schema"
	"github.com/nadtcp/nadtcp-go/pkg/state"
)

// Status is a typed view of a snapshot. Fields of parameters the
// amplifier has not reported keep their zero value; use Has to tell them
// apart.
type Status struct {
	Power          bool
	Mute           bool
	Volume         float64
	Source         string
	Model          string
	Version        float64
	Brightness     int
	Bass           bool
	ControlStandby bool
	AutoStandby    bool
	AutoSense      bool

	reported map[string]struct{}
}

// ParseStatus extracts a Status from snap. Values of unexpected type are
// ignored.
func ParseStatus(snap state.Snapshot) Status {
	s := Status{reported: make(map[string]struct{}, len(snap))}
	for name, v := range snap {
		ok := true
		switch name {
		case schema.ParamPower:
			s.Power, ok = switchValue(v)
		case schema.ParamMute:
			s.Mute, ok = switchValue(v)
		case schema.ParamBass:
			s.Bass, ok = switchValue(v)
		case schema.ParamControlStandby:
			s.ControlStandby, ok = switchValue(v)
		case schema.ParamAutoStandby:
			s.AutoStandby, ok = switchValue(v)
		case schema.ParamAutoSense:
			s.AutoSense, ok = switchValue(v)
		case schema.ParamVolume:
			s.Volume, ok = v.(float64)
		case schema.ParamVersion:
			s.Version, ok = v.(float64)
		case schema.ParamBrightness:
			s.Brightness, ok = v.(int)
		case schema.ParamSource:
			s.Source, ok = v.(string)
		case schema.ParamModel:
			s.Model, ok = v.(string)
		}
		if ok {
			s.reported[name] = struct{}{}
		}
	}
	return s
}

// Has reports whether the amplifier reported the parameter.
func (s Status) Has(name string) bool {
	_, ok := s.reported[name]
	return ok
}

// Empty reports whether nothing is known, e.g. while disconnected.
func (s Status) Empty() bool {
	return len(s.reported) == 0
}

// String renders the reported parameters, one per line, sorted by name.
func (s Status) String() string {
	names := make([]string, 0, len(s.reported))
	for name := range s.reported {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%-20s %s\n", name, s.format(name))
	}
	return b.String()
}

func (s Status) format(name string) string {
	switch name {
	case schema.ParamPower:
		return onOff(s.Power)
	case schema.ParamMute:
		return onOff(s.Mute)
	case schema.ParamBass:
		return onOff(s.Bass)
	case schema.ParamControlStandby:
		return onOff(s.ControlStandby)
	case schema.ParamAutoStandby:
		return onOff(s.AutoStandby)
	case schema.ParamAutoSense:
		return onOff(s.AutoSense)
	case schema.ParamVolume:
		return fmt.Sprintf("%g dB", s.Volume)
	case schema.ParamVersion:
		return fmt.Sprintf("%g", s.Version)
	case schema.ParamBrightness:
		return fmt.Sprintf("%d", s.Brightness)
	case schema.ParamSource:
		return s.Source
	case schema.ParamModel:
		return s.Model
	}
	return ""
}

func switchValue(v any) (bool, bool) {
	switch v {
	case schema.On:
		return true, true
	case schema.Off:
		return false, true
	}
	return false, false
}

func onOff(b bool) string {
	if b {
		return schema.On
	}
	return schema.Off
}
