package engine

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/nadtcp/nadtcp-go/internal/testharness/loader"
)

// Engine executes scenarios.
type Engine struct {
	config   *Config
	handlers map[string]ActionHandler
	checkers map[string]ExpectChecker
}

// New creates an engine with the default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an engine with the given configuration.
func NewWithConfig(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		config:   config,
		handlers: make(map[string]ActionHandler),
		checkers: make(map[string]ExpectChecker),
	}
}

// RegisterHandler registers the handler for an action name.
func (e *Engine) RegisterHandler(action string, handler ActionHandler) {
	e.handlers[action] = handler
}

// RegisterChecker registers a checker for an expectation key. Keys
// without a checker are compared for equality against the outputs.
func (e *Engine) RegisterChecker(key string, checker ExpectChecker) {
	e.checkers[key] = checker
}

// Run executes one scenario.
func (e *Engine) Run(ctx context.Context, sc *loader.Scenario) *ScenarioResult {
	result := &ScenarioResult{Scenario: sc, StartTime: time.Now()}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	if sc.Skip {
		result.Skipped = true
		result.SkipReason = sc.SkipReason
		return result
	}

	timeout, err := parseTimeout(sc.Timeout, e.config.DefaultTimeout)
	if err != nil {
		result.Error = fmt.Errorf("scenario timeout: %w", err)
		return result
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state := NewExecutionState()
	defer state.cleanup()

	if e.config.Setup != nil {
		if err := e.config.Setup(ctx, sc, state); err != nil {
			result.Error = fmt.Errorf("setup: %w", err)
			return result
		}
	}

	result.Passed = true
	for i := range sc.Steps {
		sr := e.executeStep(ctx, &sc.Steps[i], i, state)
		result.StepResults = append(result.StepResults, sr)
		if !sr.Passed {
			result.Passed = false
			result.Error = sr.Error
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s): expectation failed", i+1, sr.Step.Action)
			}
			break
		}
	}
	return result
}

func (e *Engine) executeStep(ctx context.Context, step *loader.Step, index int, state *ExecutionState) *StepResult {
	sr := &StepResult{
		Step:          step,
		StepIndex:     index,
		ExpectResults: make(map[string]*ExpectResult),
	}
	start := time.Now()
	defer func() { sr.Duration = time.Since(start) }()

	handler, ok := e.handlers[step.Action]
	if !ok {
		sr.Error = fmt.Errorf("step %d: unknown action %q", index+1, step.Action)
		return sr
	}

	timeout, err := parseTimeout(step.Timeout, e.config.StepTimeout)
	if err != nil {
		sr.Error = fmt.Errorf("step %d: %w", index+1, err)
		return sr
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := handler(stepCtx, step, state)
	sr.Output = output
	for k, v := range output {
		state.Set(k, v)
	}
	if err != nil {
		sr.Error = fmt.Errorf("step %d (%s): %w", index+1, step.Action, err)
		return sr
	}

	sr.Passed = true
	for key, expected := range step.Expect {
		er := e.checkExpectation(key, expected, state)
		sr.ExpectResults[key] = er
		if !er.Passed {
			sr.Passed = false
		}
	}
	return sr
}

func (e *Engine) checkExpectation(key string, expected any, state *ExecutionState) *ExpectResult {
	if checker, ok := e.checkers[key]; ok {
		return checker(key, expected, state)
	}
	return defaultChecker(key, expected, state)
}

// defaultChecker compares the output stored under key with expected.
// Numbers compare by value so YAML ints match float outputs.
func defaultChecker(key string, expected any, state *ExecutionState) *ExpectResult {
	actual, ok := state.Get(key)
	if !ok {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Message:  fmt.Sprintf("no output named %q", key),
		}
	}
	passed := Equal(expected, actual)
	msg := fmt.Sprintf("%s = %v", key, actual)
	if !passed {
		msg = fmt.Sprintf("%s = %v, want %v", key, actual, expected)
	}
	return &ExpectResult{Key: key, Expected: expected, Actual: actual, Passed: passed, Message: msg}
}

// Equal compares two scalar values loosely: numbers by value, everything
// else by its printed form.
func Equal(expected, actual any) bool {
	ef, eok := ToFloat64(expected)
	af, aok := ToFloat64(actual)
	if eok && aok {
		return ef == af
	}
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

// ToFloat64 converts numeric values to float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// RunSuite executes scenarios sequentially.
func (e *Engine) RunSuite(ctx context.Context, scenarios []*loader.Scenario) *SuiteResult {
	suite := &SuiteResult{SuiteName: "scenarios"}
	start := time.Now()

	for _, sc := range scenarios {
		if ctx.Err() != nil {
			break
		}
		r := e.Run(ctx, sc)
		suite.Results = append(suite.Results, r)
		switch {
		case r.Skipped:
			suite.SkipCount++
		case r.Passed:
			suite.PassCount++
		default:
			suite.FailCount++
			if e.config.StopOnFirstFailure {
				suite.Duration = time.Since(start)
				return suite
			}
		}
	}

	suite.Duration = time.Since(start)
	return suite
}

// parseTimeout parses a YAML duration, falling back to def when s is empty.
func parseTimeout(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

// IntParam reads an integer parameter, accepting YAML ints and floats.
func IntParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	if f, ok := ToFloat64(v); ok {
		return int(f)
	}
	if s, ok := v.(string); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// StringParam reads a string parameter.
func StringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
