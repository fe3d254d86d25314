// Package reporter prints scenario results.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nadtcp/nadtcp-go/internal/testharness/engine"
)

// Reporter writes scenario results.
type Reporter interface {
	ReportSuite(result *engine.SuiteResult)
	ReportScenario(result *engine.ScenarioResult)
}

var (
	_ Reporter = (*TextReporter)(nil)
	_ Reporter = (*JSONReporter)(nil)
)

func status(r *engine.ScenarioResult) string {
	switch {
	case r.Skipped:
		return "SKIP"
	case r.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

func sortedKeys(m map[string]*engine.ExpectResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TextReporter writes one line per scenario, and per step when verbose.
type TextReporter struct {
	w       io.Writer
	verbose bool
}

// NewTextReporter creates a text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{w: w, verbose: verbose}
}

// ReportSuite writes every scenario and a summary.
func (r *TextReporter) ReportSuite(result *engine.SuiteResult) {
	for _, sr := range result.Results {
		r.ReportScenario(sr)
	}
	fmt.Fprintf(r.w, "\n%d scenarios: %d passed, %d failed, %d skipped (%s)\n",
		len(result.Results), result.PassCount, result.FailCount, result.SkipCount,
		result.Duration.Round(time.Millisecond))
}

// ReportScenario writes one scenario result.
func (r *TextReporter) ReportScenario(result *engine.ScenarioResult) {
	sc := result.Scenario
	fmt.Fprintf(r.w, "[%s] %s %s (%s)\n", status(result), sc.ID, sc.Name, result.Duration.Round(time.Millisecond))

	if result.Skipped {
		if result.SkipReason != "" {
			fmt.Fprintf(r.w, "       skipped: %s\n", result.SkipReason)
		}
		return
	}
	if result.Error != nil {
		fmt.Fprintf(r.w, "       error: %v\n", result.Error)
	}

	for _, step := range result.StepResults {
		if !r.verbose && step.Passed {
			continue
		}
		mark := "ok"
		if !step.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(r.w, "    %2d %-4s %s", step.StepIndex+1, mark, step.Step.Action)
		if step.Step.Description != "" {
			fmt.Fprintf(r.w, ": %s", step.Step.Description)
		}
		fmt.Fprintln(r.w)
		for _, key := range sortedKeys(step.ExpectResults) {
			er := step.ExpectResults[key]
			if r.verbose || !er.Passed {
				fmt.Fprintf(r.w, "           %s\n", er.Message)
			}
		}
	}
}

// JSONReporter writes JSON documents.
type JSONReporter struct {
	w      io.Writer
	pretty bool
}

// NewJSONReporter creates a JSON reporter.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{w: w, pretty: pretty}
}

type jsonSuite struct {
	Total     int            `json:"total"`
	Passed    int            `json:"passed"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Duration  string         `json:"duration"`
	Scenarios []jsonScenario `json:"scenarios"`
}

type jsonScenario struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   string     `json:"status"`
	Duration string     `json:"duration"`
	Error    string     `json:"error,omitempty"`
	Steps    []jsonStep `json:"steps,omitempty"`
}

type jsonStep struct {
	Action   string   `json:"action"`
	Passed   bool     `json:"passed"`
	Error    string   `json:"error,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// ReportSuite writes the whole suite as one document.
func (r *JSONReporter) ReportSuite(result *engine.SuiteResult) {
	doc := jsonSuite{
		Total:     len(result.Results),
		Passed:    result.PassCount,
		Failed:    result.FailCount,
		Skipped:   result.SkipCount,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Scenarios: make([]jsonScenario, 0, len(result.Results)),
	}
	for _, sr := range result.Results {
		doc.Scenarios = append(doc.Scenarios, toJSON(sr))
	}
	r.write(doc)
}

// ReportScenario writes one scenario document.
func (r *JSONReporter) ReportScenario(result *engine.ScenarioResult) {
	r.write(toJSON(result))
}

func toJSON(result *engine.ScenarioResult) jsonScenario {
	js := jsonScenario{
		ID:       result.Scenario.ID,
		Name:     result.Scenario.Name,
		Status:   status(result),
		Duration: result.Duration.Round(time.Millisecond).String(),
	}
	if result.Error != nil {
		js.Error = result.Error.Error()
	}
	for _, step := range result.StepResults {
		st := jsonStep{Action: step.Step.Action, Passed: step.Passed}
		if step.Error != nil {
			st.Error = step.Error.Error()
		}
		for _, key := range sortedKeys(step.ExpectResults) {
			if er := step.ExpectResults[key]; !er.Passed {
				st.Failures = append(st.Failures, er.Message)
			}
		}
		js.Steps = append(js.Steps, st)
	}
	return js
}

func (r *JSONReporter) write(v any) {
	enc := json.NewEncoder(r.w)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(r.w, `{"error":%q}`+"\n", err.Error())
	}
}
