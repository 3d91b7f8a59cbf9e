// Package metrics records processor activity.
//
// The processor depends only on the Recorder interface; NopRecorder is the
// default and PrometheusRecorder exports the same signals to a registry.
package metrics

import "time"

// Outcome labels the result of a single apply.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "persistence_failed"
)

// Recorder receives processor events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveApply(commandType string, outcome Outcome, d time.Duration)
	ObserveQuery(failed bool)
	ObserveReplay(entries int, d time.Duration, err error)
	SetSeq(seq int64)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) ObserveApply(string, Outcome, time.Duration) {}
func (NopRecorder) ObserveQuery(bool) {}
func (NopRecorder) ObserveReplay(int, time.Duration, error) {}
func (NopRecorder) SetSeq(int64) {}
