package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one ledger conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Flow is applied in order against an empty ledger.
	Flow []Step `yaml:"flow"`

	// Assertions are checked against the ledger after the flow.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one command and its expected outcome.
type Step struct {
	// Command is a ledger command type (e.g. "deposit").
	Command string `yaml:"command"`

	// Args is the command payload, keyed as in the log encoding.
	Args map[string]any `yaml:"args"`

	// Expect is OutcomeCommitted (the default) or OutcomeRejected.
	Expect string `yaml:"expect,omitempty"`

	// Error, if set, must appear in the rejection cause.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final ledger or log.
type Assertion struct {
	// Type specifies the assertion type:
	// - "balance": Account has Balance
	// - "account_missing": Account does not exist
	// - "account_count": Ledger holds Count accounts
	// - "total_balance": Balances sum to Balance
	// - "log_count": Log holds Count entries
	Type string `yaml:"type"`

	Account string `yaml:"account,omitempty"`
	Balance *int64 `yaml:"balance,omitempty"`
	Count   *int   `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertBalance        = "balance"
	AssertAccountMissing = "account_missing"
	AssertAccountCount   = "account_count"
	AssertTotalBalance   = "total_balance"
	AssertLogCount       = "log_count"
)

// Step outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Command == "" {
			return fmt.Errorf("flow[%d]: command is required", i)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required", i)
		}
		switch step.Expect {
		case "", OutcomeCommitted, OutcomeRejected:
		default:
			return fmt.Errorf("flow[%d]: expect must be %q or %q, got %q", i, OutcomeCommitted, OutcomeRejected, step.Expect)
		}
		if step.Error != "" && step.Expect != OutcomeRejected {
			return fmt.Errorf("flow[%d]: error requires expect: %s", i, OutcomeRejected)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertBalance:
		if a.Account == "" || a.Balance == nil {
			return fmt.Errorf("assertions[%d]: account and balance are required for %s", index, a.Type)
		}
	case AssertAccountMissing:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for %s", index, a.Type)
		}
	case AssertTotalBalance:
		if a.Balance == nil {
			return fmt.Errorf("assertions[%d]: balance is required for %s", index, a.Type)
		}
	case AssertAccountCount, AssertLogCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
