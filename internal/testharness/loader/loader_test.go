package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
id: SC-TEST-001
name: Example
tags: [debounce, smoke]
setup:
  debounce_ms: 40
  reconnect_ms: 200
  state:
    Main.Power: "Off"
steps:
  - action: connect
    expect:
      state: CONNECTED
  - action: exec
    params:
      name: Main.Volume
      op: "="
      value: -20.5
    timeout: 2s
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "SC-TEST-001", sc.ID)
	assert.Equal(t, 40, sc.Setup.DebounceMS)
	assert.Equal(t, 200, sc.Setup.ReconnectMS)
	assert.Equal(t, "Off", sc.Setup.State["Main.Power"])
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, "CONNECTED", sc.Steps[0].Expect["state"])
	assert.Equal(t, -20.5, sc.Steps[1].Params["value"])
	assert.Equal(t, "2s", sc.Steps[1].Timeout)
	assert.True(t, sc.HasTag("smoke"))
	assert.False(t, sc.HasTag("connection"))
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "id: [", "failed to parse YAML"},
		{"no id", "steps:\n  - action: connect\n", "scenario ID is required"},
		{"no steps", "id: X\n", "at least one step"},
		{"no action", "id: X\nsteps:\n  - params: {}\n", "step 1 has no action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioAddsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: no id\nsteps:\n  - action: x\n"), 0o644))

	_, err := LoadScenario(path)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.File)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, id string) {
		body := "id: " + id + "\nsteps:\n  - action: connect\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b.yaml", "SC-B")
	write("a.yml", "SC-A")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	scenarios, err := LoadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "SC-A", scenarios[0].ID)
	assert.Equal(t, "SC-B", scenarios[1].ID)

	write("c.yaml", "SC-A")
	_, err = LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scenario ID SC-A")
}

func TestFilterByTag(t *testing.T) {
	all := []*Scenario{
		{ID: "1", Tags: []string{"debounce"}},
		{ID: "2", Tags: []string{"connection"}},
		{ID: "3"},
	}
	assert.Len(t, FilterByTag(all, ""), 3)
	got := FilterByTag(all, "connection")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "7", itoa(7))
	assert.Equal(t, "120", itoa(120))
}
