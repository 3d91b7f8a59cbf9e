package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "memimg"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	applyDuration  *prom.HistogramVec
	applyOutcomes  *prom.CounterVec
	queries        *prom.CounterVec
	replayDuration prom.Histogram
	replayEntries  prom.Counter
	replayFailures prom.Counter
	seq            prom.Gauge
}

// NewPrometheusRecorder constructs and registers the processor metrics.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.applyDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "apply_duration_seconds",
		Help:      "Duration of command applies including persistence",
		Buckets:   prom.DefBuckets,
	}, []string{"command"})
	pr.applyOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "apply_total",
		Help:      "Command applies by command type and outcome",
	}, []string{"command", "outcome"})
	pr.queries = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Queries by result",
	}, []string{"result"})
	pr.replayDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "replay_duration_seconds",
		Help:      "Duration of startup log replay",
		Buckets:   prom.DefBuckets,
	})
	pr.replayEntries = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "replay_entries_total",
		Help:      "Log entries applied during replay",
	})
	pr.replayFailures = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "replay_failures_total",
		Help:      "Replays aborted because of a corrupt or unreadable log",
	})
	pr.seq = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "log_sequence",
		Help:      "Number of log entries reflected in the committed state",
	})
	reg.MustRegister(pr.applyDuration, pr.applyOutcomes, pr.queries,
		pr.replayDuration, pr.replayEntries, pr.replayFailures, pr.seq)
	return pr
}

func (p *PrometheusRecorder) ObserveApply(commandType string, outcome Outcome, d time.Duration) {
	if p == nil || p.applyOutcomes == nil {
		return
	}
	p.applyDuration.WithLabelValues(commandType).Observe(d.Seconds())
	p.applyOutcomes.WithLabelValues(commandType, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveQuery(failed bool) {
	if p == nil || p.queries == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	p.queries.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) ObserveReplay(entries int, d time.Duration, err error) {
	if p == nil || p.replayDuration == nil {
		return
	}
	p.replayDuration.Observe(d.Seconds())
	p.replayEntries.Add(float64(entries))
	if err != nil {
		p.replayFailures.Inc()
	}
}

func (p *PrometheusRecorder) SetSeq(seq int64) {
	if p == nil || p.seq == nil {
		return
	}
	p.seq.Set(float64(seq))
}
