package memimg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/roach88/memimg/internal/metrics"
)

var errBoom = errors.New("boom")

// tally is a minimal state: named counters.
type tally struct {
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: map[string]int{}}
}

func (t *tally) Clone() *tally {
	return &tally{counts: maps.Clone(t.counts)}
}

// bump increments each key in order and fails after mutating FailAt keys
// when FailAt >= 0.
type bump struct {
	Keys   []string `json:"keys"`
	By     int      `json:"by"`
	FailAt int      `json:"fail_at"`
}

func (bump) CommandType() string { return "bump" }

func (b bump) Apply(t *tally) error {
	for i, k := range b.Keys {
		if b.FailAt >= 0 && i == b.FailAt {
			return fmt.Errorf("bump %s: %w", k, errBoom)
		}
		t.counts[k] += b.By
	}
	return nil
}

func inc(by int, keys ...string) bump {
	return bump{Keys: keys, By: by, FailAt: -1}
}

// unencodable validates but cannot be encoded by jsonCodec.
type unencodable struct{}

func (unencodable) CommandType() string { return "unencodable" }

func (unencodable) Apply(t *tally) error {
	t.counts["x"]++
	return nil
}

type jsonCodec struct{}

func (jsonCodec) Encode(cmd Command[*tally]) ([]byte, error) {
	b, isBump := cmd.(bump)
	if !isBump {
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
	return json.Marshal(b)
}

func (jsonCodec) Decode(entry []byte) (Command[*tally], error) {
	var b bump
	if err := json.Unmarshal(entry, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func getCount(key string) Query[*tally, int] {
	return QueryFunc[*tally, int](func(t *tally) (int, error) {
		v, found := t.counts[key]
		if !found {
			return 0, fmt.Errorf("no counter %q", key)
		}
		return v, nil
	})
}

// failingLog fails every Append once fail is set.
type failingLog struct {
	*MemoryLog
	mu   sync.Mutex
	fail error
}

func (l *failingLog) setFail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

func (l *failingLog) Append(ctx context.Context, entry []byte) error {
	l.mu.Lock()
	fail := l.fail
	l.mu.Unlock()
	if fail != nil {
		return fail
	}
	return l.MemoryLog.Append(ctx, entry)
}

// brokenReadLog yields its entries then, if err is set, a read error.
type brokenReadLog struct {
	entries [][]byte
	err     error
}

func (l *brokenReadLog) Append(context.Context, []byte) error { return nil }

func (l *brokenReadLog) ReadAll(context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, e := range l.entries {
			if !yield(e, nil) {
				return
			}
		}
		if l.err != nil {
			yield(nil, l.err)
		}
	}
}

type applyRecord struct {
	command string
	outcome metrics.Outcome
}

type fakeRecorder struct {
	mu       sync.Mutex
	applies  []applyRecord
	queries  int
	failedQ  int
	replays  []int
	replayed []error
	seq      int64
}

func (r *fakeRecorder) ObserveApply(cmd string, outcome metrics.Outcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applies = append(r.applies, applyRecord{cmd, outcome})
}

func (r *fakeRecorder) ObserveQuery(failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	if failed {
		r.failedQ++
	}
}

func (r *fakeRecorder) ObserveReplay(entries int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replays = append(r.replays, entries)
	r.replayed = append(r.replayed, err)
}

func (r *fakeRecorder) SetSeq(seq int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq = seq
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcessor(t *testing.T, log Log, opts ...Option) *Processor[*tally] {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return New(newTally(), log, Codec[*tally](jsonCodec{}), opts...)
}

func snapshot(p *Processor[*tally]) map[string]int {
	var out map[string]int
	_ = p.View(func(t *tally) error {
		out = maps.Clone(t.counts)
		return nil
	})
	return out
}
