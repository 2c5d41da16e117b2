package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file representation of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Namespace    string       `json:"namespace"`
	Trace        []TraceEvent `json:"trace"`
	Records      int          `json:"records"`
}

// MarshalSnapshot renders a snapshot as indented JSON with a trailing
// newline. Struct fields keep declaration order and map keys are sorted,
// so equal snapshots always produce equal bytes.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Snapshot renders the golden-file bytes for a scenario's result.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	return MarshalSnapshot(TraceSnapshot{
		ScenarioName: scenario.Name,
		Namespace:    orDefault(scenario.Namespace, DefaultNamespace),
		Trace:        result.Trace,
		Records:      result.Records,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	return result, AssertGolden(t, scenario, result)
}

// AssertGolden compares an already computed result against the scenario's
// golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
