// Package loader reads YAML scenarios for the amplifier test harness.
package loader

import "fmt"

// Scenario is a scripted conversation between a client and a fake
// amplifier.
type Scenario struct {
	// ID is the unique scenario identifier (e.g., "SC-BURST-001").
	ID string `yaml:"id"`

	// Name is a human-readable name.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Setup configures the client before the first step.
	Setup Setup `yaml:"setup"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Timeout is the maximum duration for the scenario (e.g., "10s").
	Timeout string `yaml:"timeout,omitempty"`

	// Tags for selecting scenarios.
	Tags []string `yaml:"tags,omitempty"`

	// Skip disables the scenario.
	Skip       bool   `yaml:"skip,omitempty"`
	SkipReason string `yaml:"skip_reason,omitempty"`
}

// Setup holds client settings for a scenario.
type Setup struct {
	// DebounceMS is the debounce window in milliseconds.
	DebounceMS int `yaml:"debounce_ms,omitempty"`

	// ReconnectMS is the reconnect delay in milliseconds.
	ReconnectMS int `yaml:"reconnect_ms,omitempty"`

	// State overrides the fake amplifier's initial values.
	State map[string]string `yaml:"state,omitempty"`
}

// Step is a single action in a scenario.
type Step struct {
	// Action is the action to perform (e.g., "exec", "amp_send").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]any `yaml:"params,omitempty"`

	// Expect maps output keys to expected values.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Timeout overrides the step timeout.
	Timeout string `yaml:"timeout,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// LoadError provides details about a scenario loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
