package harness

import "github.com/roach88/memimg/internal/ledger"

// TraceEvent records what happened to one flow step. Step is 1-based; Seq
// is the processor sequence after the step, so it does not advance on a
// rejection.
type TraceEvent struct {
	Step    int    `json:"step"`
	Command string `json:"command"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
	Seq     int64  `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step met its expectation, every assertion held
	// and replay reproduced the final ledger.
	Pass bool `json:"pass"`

	Trace    []TraceEvent     `json:"trace"`
	Errors   []string         `json:"errors,omitempty"`
	Accounts []ledger.Account `json:"accounts"`
	Log      [][]byte         `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		Accounts: []ledger.Account{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
