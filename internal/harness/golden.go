package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/memimg/internal/canonical"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// The log itself is summarized by its length; the ledger codec has its own
// golden files for the entry encoding.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		m := map[string]any{
			"step":    event.Step,
			"command": event.Command,
			"outcome": event.Outcome,
			"seq":     event.Seq,
		}
		if event.Error != "" {
			m["error"] = event.Error
		}
		trace[i] = m
	}

	accounts := make([]any, len(result.Accounts))
	for i, acc := range result.Accounts {
		accounts[i] = map[string]any{
			"id":      acc.ID,
			"name":    acc.Name,
			"balance": int64(acc.Balance),
		}
	}

	return canonical.Marshal(map[string]any{
		"scenario_name": name,
		"trace":         trace,
		"accounts":      accounts,
		"log_entries":   len(result.Log),
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := Snapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}
