package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/formflow/internal/journal"
)

// TraceSnapshot captures the complete trace of a scenario execution.
type TraceSnapshot struct {
	ScenarioName string           `json:"scenario_name"`
	Form         string           `json:"form"`
	Trace        []journal.Record `json:"trace"`
}

// MarshalTrace renders a snapshot as indented JSON with a trailing newline.
// HTML escaping is disabled so the output matches the journal rows.
func MarshalTrace(s TraceSnapshot) ([]byte, error) {
	if s.Trace == nil {
		s.Trace = []journal.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to marshal trace: %w", err)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against the golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := MarshalTrace(TraceSnapshot{ScenarioName: scenario.Name, Form: scenario.Form, Trace: result.Trace})
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

// CompareGolden checks a trace against {dir}/{name}.golden outside of go
// test. With update set the file is (re)written instead.
func CompareGolden(dir string, scenario *Scenario, result *Result, update bool) error {
	data, err := MarshalTrace(TraceSnapshot{ScenarioName: scenario.Name, Form: scenario.Form, Trace: result.Trace})
	if err != nil {
		return err
	}

	path := filepath.Join(dir, scenario.Name+".golden")
	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create golden dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return fmt.Errorf("trace does not match %s", path)
	}
	return nil
}
