// Package engine runs amplifier scenarios step by step and checks their
// expectations.
package engine

import (
	"context"
	"time"

	"github.com/nadtcp/nadtcp-go/internal/testharness/loader"
)

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Scenario *loader.Scenario

	// Passed is true when every step passed.
	Passed bool

	// Error is the first failure, if any.
	Error error

	StepResults []*StepResult

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Skipped    bool
	SkipReason string
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step      *loader.Step
	StepIndex int
	Passed    bool
	Error     error

	// ExpectResults maps expectation keys to their results.
	ExpectResults map[string]*ExpectResult

	Duration time.Duration

	// Output is what the action handler returned.
	Output map[string]any
}

// ExpectResult is the result of checking one expectation.
type ExpectResult struct {
	Key      string
	Expected any
	Actual   any
	Passed   bool
	Message  string
}

// SuiteResult aggregates scenario results.
type SuiteResult struct {
	SuiteName string
	Results   []*ScenarioResult
	PassCount int
	FailCount int
	SkipCount int
	Duration  time.Duration
}

// ActionHandler performs a step action. The returned outputs are merged
// into the execution state and checked against the step's expectations.
type ActionHandler func(ctx context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error)

// ExpectChecker checks one expectation against the execution state.
type ExpectChecker func(key string, expected any, state *ExecutionState) *ExpectResult

// ExecutionState carries data between steps of one scenario.
type ExecutionState struct {
	// Outputs accumulated from previous steps. Later steps overwrite
	// earlier keys.
	Outputs map[string]any

	// Custom holds handler-private objects such as the client and the
	// fake amplifier.
	Custom map[string]any

	// Cleanups run in reverse order when the scenario ends.
	cleanups []func()
}

// NewExecutionState creates an empty execution state.
func NewExecutionState() *ExecutionState {
	return &ExecutionState{
		Outputs: make(map[string]any),
		Custom:  make(map[string]any),
	}
}

// Get returns an output value.
func (s *ExecutionState) Get(key string) (any, bool) {
	v, ok := s.Outputs[key]
	return v, ok
}

// Set stores an output value.
func (s *ExecutionState) Set(key string, value any) {
	s.Outputs[key] = value
}

// OnCleanup registers fn to run when the scenario ends.
func (s *ExecutionState) OnCleanup(fn func()) {
	s.cleanups = append(s.cleanups, fn)
}

func (s *ExecutionState) cleanup() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

// Config configures the engine.
type Config struct {
	// DefaultTimeout bounds a scenario without its own timeout.
	DefaultTimeout time.Duration

	// StepTimeout bounds a step without its own timeout.
	StepTimeout time.Duration

	// StopOnFirstFailure stops a suite after the first failing scenario.
	StopOnFirstFailure bool

	// Setup runs before the first step of every scenario.
	Setup func(ctx context.Context, sc *loader.Scenario, state *ExecutionState) error
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultTimeout: 30 * time.Second,
		StepTimeout:    5 * time.Second,
	}
}
