package nad

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nadtcp/nadtcp-go/pkg/schema"
	"github.com/nadtcp/nadtcp-go/pkg/state"
)

func TestParseStatus(t *testing.T) {
	s := ParseStatus(state.Snapshot{
		schema.ParamPower:      "On",
		schema.ParamMute:       "Off",
		schema.ParamVolume:     -20.5,
		schema.ParamSource:     "Opt1",
		schema.ParamBrightness: 2,
		schema.ParamVersion:    1.61,
		schema.ParamBass:       "On",
	})

	assert.True(t, s.Power)
	assert.False(t, s.Mute)
	assert.Equal(t, -20.5, s.Volume)
	assert.Equal(t, "Opt1", s.Source)
	assert.Equal(t, 2, s.Brightness)
	assert.Equal(t, 1.61, s.Version)
	assert.True(t, s.Bass)

	assert.True(t, s.Has(schema.ParamMute))
	assert.False(t, s.Has(schema.ParamModel))
	assert.False(t, s.Empty())
}

func TestParseStatusIgnoresBadValues(t *testing.T) {
	s := ParseStatus(state.Snapshot{
		schema.ParamPower:  "Maybe",
		schema.ParamVolume: "loud",
	})
	assert.False(t, s.Has(schema.ParamPower))
	assert.False(t, s.Has(schema.ParamVolume))
	assert.True(t, s.Empty())
}

func TestStatusString(t *testing.T) {
	s := ParseStatus(state.Snapshot{
		schema.ParamVolume: -40.0,
		schema.ParamMute:   "On",
	})
	want := "Main.Mute            On\n" +
		"Main.Volume          -40 dB\n"
	assert.Equal(t, want, s.String())
	assert.Equal(t, "", ParseStatus(nil).String())
}
