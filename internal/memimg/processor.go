package memimg

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/memimg/internal/metrics"
)

// Processor owns the committed state and the log it is derived from.
//
// Thread-safety model:
//   - Apply: safe from any goroutine; concurrent calls serialize
//   - Execute, View, Seq: safe from any goroutine; run concurrently
//   - Replay: call once, before the processor is shared
type Processor[S State[S]] struct {
	// writeMu serializes Apply and Replay across clone, apply, append and swap.
	writeMu sync.Mutex

	// mu guards the committed state and seq. Held exclusively only for the swap.
	mu    sync.RWMutex
	state S
	seq   int64

	log   Log
	codec Codec[S]

	// Guarded by writeMu.
	replayed  bool
	applied   bool
	replayErr error

	logger   *slog.Logger
	recorder metrics.Recorder
}

type settings struct {
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Processor.
type Option func(*settings)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder. Default: metrics.NopRecorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates a processor over initial state and a log. It does not replay:
// callers that start from an existing log must call Replay before accepting
// traffic, or use Open.
func New[S State[S]](initial S, log Log, codec Codec[S], opts ...Option) *Processor[S] {
	cfg := settings{
		logger:   slog.Default(),
		recorder: metrics.NopRecorder{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Processor[S]{
		state:    initial,
		log:      log,
		codec:    codec,
		logger:   cfg.logger,
		recorder: cfg.recorder,
	}
}

// Open creates a processor and replays the log into initial.
// Returns the replay error if the log cannot be trusted.
func Open[S State[S]](ctx context.Context, initial S, log Log, codec Codec[S], opts ...Option) (*Processor[S], error) {
	p := New(initial, log, codec, opts...)
	if err := p.Replay(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply runs cmd against a working copy of the committed state, appends it
// to the log, and only then commits the working copy.
//
// Returns a *Error of kind KindCommandRejected if the command refused the
// mutation, or KindPersistenceFailure if it could not be logged. In both
// cases the committed state is exactly what it was before the call.
func (p *Processor[S]) Apply(ctx context.Context, cmd Command[S]) error {
	if cmd == nil {
		return &Error{Kind: KindCommandRejected, Op: "apply", Err: ErrNilCommand}
	}

	start := time.Now()
	cmdType := cmd.CommandType()

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.replayErr != nil {
		return &Error{Kind: KindReplayCorruption, Op: "apply", Type: cmdType, Err: p.replayErr}
	}

	// Only this goroutine can change p.state while writeMu is held.
	working := p.state.Clone()

	if err := cmd.Apply(working); err != nil {
		p.logger.Info("command rejected", "command", cmdType, "error", err)
		p.recorder.ObserveApply(cmdType, metrics.OutcomeRejected, time.Since(start))
		return &Error{Kind: KindCommandRejected, Op: "apply", Type: cmdType, Err: err}
	}

	entry, err := p.codec.Encode(cmd)
	if err != nil {
		p.logger.Error("command encode failed", "command", cmdType, "error", err)
		p.recorder.ObserveApply(cmdType, metrics.OutcomeFailed, time.Since(start))
		return &Error{Kind: KindPersistenceFailure, Op: "encode", Type: cmdType, Err: err}
	}

	if err := p.log.Append(ctx, entry); err != nil {
		p.logger.Error("command append failed", "command", cmdType, "error", err)
		p.recorder.ObserveApply(cmdType, metrics.OutcomeFailed, time.Since(start))
		return &Error{Kind: KindPersistenceFailure, Op: "append", Type: cmdType, Err: err}
	}

	p.mu.Lock()
	p.state = working
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	p.applied = true

	p.logger.Debug("command applied", "command", cmdType, "seq", seq)
	p.recorder.ObserveApply(cmdType, metrics.OutcomeCommitted, time.Since(start))
	p.recorder.SetSeq(seq)

	return nil
}

// Execute runs q against the committed state under a shared lock.
// The log is never touched. A failing query returns a *Error of kind
// KindQueryFailure.
func Execute[S State[S], R any](p *Processor[S], q Query[S, R]) (R, error) {
	result, err := func() (R, error) {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return q.Extract(p.state)
	}()

	p.recorder.ObserveQuery(err != nil)
	if err != nil {
		var zero R
		return zero, &Error{Kind: KindQueryFailure, Op: "query", Type: typeName(q), Err: err}
	}
	return result, nil
}

// View calls fn with the committed state under a shared lock.
// fn must not mutate or retain the state.
func (p *Processor[S]) View(fn func(state S) error) error {
	_, err := Execute(p, QueryFunc[S, struct{}](func(state S) (struct{}, error) {
		return struct{}{}, fn(state)
	}))
	return err
}

// Seq returns the number of log entries reflected in the committed state.
func (p *Processor[S]) Seq() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.seq
}
