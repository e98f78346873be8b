package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// TraceSnapshot is what a golden file holds for one scenario.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Snapshot renders the trace of a run as canonical JSON, so equal runs
// give equal bytes.
func Snapshot(name string, result *Result) ([]byte, error) {
	data, err := json.Marshal(TraceSnapshot{ScenarioName: name, Trace: result.Trace})
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	v, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return ir.MarshalCanonical(v)
}

// RunWithGolden runs scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
