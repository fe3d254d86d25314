package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadtcp/nadtcp-go/internal/testharness/loader"
)

func echoHandler(_ context.Context, step *loader.Step, _ *ExecutionState) (map[string]any, error) {
	out := make(map[string]any, len(step.Params))
	for k, v := range step.Params {
		out[k] = v
	}
	return out, nil
}

func TestEngineRunPasses(t *testing.T) {
	e := New()
	e.RegisterHandler("echo", echoHandler)

	sc := &loader.Scenario{
		ID: "SC-1",
		Steps: []loader.Step{
			{Action: "echo", Params: map[string]any{"volume": -20.5}, Expect: map[string]any{"volume": -20.5}},
			{Action: "echo", Params: map[string]any{"count": 2.0}, Expect: map[string]any{"count": 2, "volume": -20.5}},
		},
	}

	result := e.Run(context.Background(), sc)
	require.True(t, result.Passed, "error: %v", result.Error)
	assert.Len(t, result.StepResults, 2)
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestEngineRunExpectationFails(t *testing.T) {
	e := New()
	e.RegisterHandler("echo", echoHandler)

	sc := &loader.Scenario{
		ID: "SC-2",
		Steps: []loader.Step{
			{Action: "echo", Params: map[string]any{"state": "CONNECTED"}, Expect: map[string]any{"state": "STOPPED", "missing": 1}},
			{Action: "echo"},
		},
	}

	result := e.Run(context.Background(), sc)
	assert.False(t, result.Passed)
	require.Len(t, result.StepResults, 1, "execution stops at the failing step")
	er := result.StepResults[0].ExpectResults
	assert.False(t, er["state"].Passed)
	assert.Contains(t, er["missing"].Message, "no output")
	assert.Error(t, result.Error)
}

func TestEngineUnknownAction(t *testing.T) {
	result := New().Run(context.Background(), &loader.Scenario{ID: "SC-3", Steps: []loader.Step{{Action: "nope"}}})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Error.Error(), `unknown action "nope"`)
}

func TestEngineHandlerError(t *testing.T) {
	boom := errors.New("boom")
	e := New()
	e.RegisterHandler("fail", func(context.Context, *loader.Step, *ExecutionState) (map[string]any, error) {
		return nil, boom
	})
	result := e.Run(context.Background(), &loader.Scenario{ID: "SC-4", Steps: []loader.Step{{Action: "fail"}}})
	assert.ErrorIs(t, result.Error, boom)
}

func TestEngineStepTimeout(t *testing.T) {
	e := New()
	e.RegisterHandler("block", func(ctx context.Context, _ *loader.Step, _ *ExecutionState) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	start := time.Now()
	result := e.Run(context.Background(), &loader.Scenario{
		ID:    "SC-5",
		Steps: []loader.Step{{Action: "block", Timeout: "50ms"}},
	})
	assert.ErrorIs(t, result.Error, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestEngineBadTimeout(t *testing.T) {
	result := New().Run(context.Background(), &loader.Scenario{ID: "SC-6", Timeout: "soon", Steps: []loader.Step{{Action: "x"}}})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Error.Error(), "scenario timeout")
}

func TestEngineSetupAndCleanup(t *testing.T) {
	var cleaned []string
	config := DefaultConfig()
	config.Setup = func(_ context.Context, sc *loader.Scenario, st *ExecutionState) error {
		st.Custom["id"] = sc.ID
		st.OnCleanup(func() { cleaned = append(cleaned, "first") })
		st.OnCleanup(func() { cleaned = append(cleaned, "second") })
		return nil
	}
	e := NewWithConfig(config)
	e.RegisterHandler("id", func(_ context.Context, _ *loader.Step, st *ExecutionState) (map[string]any, error) {
		return map[string]any{"id": st.Custom["id"]}, nil
	})

	result := e.Run(context.Background(), &loader.Scenario{
		ID:    "SC-7",
		Steps: []loader.Step{{Action: "id", Expect: map[string]any{"id": "SC-7"}}},
	})
	assert.True(t, result.Passed)
	assert.Equal(t, []string{"second", "first"}, cleaned)
}

func TestEngineCustomChecker(t *testing.T) {
	e := New()
	e.RegisterHandler("echo", echoHandler)
	e.RegisterChecker("always", func(key string, expected any, _ *ExecutionState) *ExpectResult {
		return &ExpectResult{Key: key, Expected: expected, Passed: true}
	})
	result := e.Run(context.Background(), &loader.Scenario{
		ID:    "SC-8",
		Steps: []loader.Step{{Action: "echo", Expect: map[string]any{"always": "anything"}}},
	})
	assert.True(t, result.Passed)
}

func TestRunSuite(t *testing.T) {
	e := New()
	e.RegisterHandler("echo", echoHandler)

	pass := &loader.Scenario{ID: "A", Steps: []loader.Step{{Action: "echo"}}}
	fail := &loader.Scenario{ID: "B", Steps: []loader.Step{{Action: "missing"}}}
	skip := &loader.Scenario{ID: "C", Skip: true, SkipReason: "later", Steps: []loader.Step{{Action: "echo"}}}

	suite := e.RunSuite(context.Background(), []*loader.Scenario{pass, fail, skip})
	assert.Equal(t, 1, suite.PassCount)
	assert.Equal(t, 1, suite.FailCount)
	assert.Equal(t, 1, suite.SkipCount)
	assert.Equal(t, "later", suite.Results[2].SkipReason)

	config := DefaultConfig()
	config.StopOnFirstFailure = true
	e = NewWithConfig(config)
	e.RegisterHandler("echo", echoHandler)
	suite = e.RunSuite(context.Background(), []*loader.Scenario{fail, pass})
	assert.Len(t, suite.Results, 1)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(-40, -40.0))
	assert.True(t, Equal("On", "On"))
	assert.True(t, Equal(true, true))
	assert.True(t, Equal([]any{"a"}, []string{"a"}))
	assert.False(t, Equal("On", "Off"))
	assert.False(t, Equal(1, "1.5"))
}

func TestParams(t *testing.T) {
	params := map[string]any{"count": 3, "ms": 2.0, "text": "42", "name": "Main.Power", "num": 7}
	assert.Equal(t, 3, IntParam(params, "count", 0))
	assert.Equal(t, 2, IntParam(params, "ms", 0))
	assert.Equal(t, 42, IntParam(params, "text", 0))
	assert.Equal(t, 9, IntParam(params, "absent", 9))
	assert.Equal(t, "Main.Power", StringParam(params, "name"))
	assert.Equal(t, "7", StringParam(params, "num"))
	assert.Equal(t, "", StringParam(params, "absent"))
}
