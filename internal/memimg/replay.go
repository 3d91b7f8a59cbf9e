package memimg

import (
	"context"
	"fmt"
	"time"
)

// Replay rebuilds the committed state from the log.
//
// Every stored entry is decoded and applied, in log order, to a working copy
// of the initial state. Any read, decode or apply failure aborts replay with
// a *Error of kind KindReplayCorruption carrying the 1-based entry position;
// the committed state stays at its initial value and further Apply calls
// are refused until a later Replay succeeds.
//
// Replay must run before any Apply and at most once successfully.
func (p *Processor[S]) Replay(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.replayed {
		return ErrAlreadyReplayed
	}
	if p.applied {
		return ErrReplayAfterApply
	}

	start := time.Now()
	working := p.state.Clone()

	var position int64
	for entry, err := range p.log.ReadAll(ctx) {
		position++
		if err != nil {
			return p.failReplay(start, position, &Error{Kind: KindReplayCorruption, Op: "read", Position: position, Err: err})
		}

		cmd, err := p.codec.Decode(entry)
		if err != nil {
			return p.failReplay(start, position, &Error{Kind: KindReplayCorruption, Op: "decode", Position: position, Err: err})
		}
		if cmd == nil {
			return p.failReplay(start, position, &Error{Kind: KindReplayCorruption, Op: "decode", Position: position, Err: fmt.Errorf("codec returned %w", ErrNilCommand)})
		}

		if err := cmd.Apply(working); err != nil {
			return p.failReplay(start, position, &Error{Kind: KindReplayCorruption, Op: "apply", Type: cmd.CommandType(), Position: position, Err: err})
		}
	}

	p.mu.Lock()
	p.state = working
	p.seq = position
	p.mu.Unlock()

	p.replayed = true
	p.replayErr = nil

	p.logger.Info("log replayed", "entries", position, "duration", time.Since(start))
	p.recorder.ObserveReplay(int(position), time.Since(start), nil)
	p.recorder.SetSeq(position)

	return nil
}

// failReplay records a replay failure. Called with writeMu held.
func (p *Processor[S]) failReplay(start time.Time, position int64, err *Error) error {
	p.replayErr = err
	p.logger.Error("replay aborted",
		"op", err.Op,
		"position", position,
		"command", err.Type,
		"error", err.Err,
	)
	p.recorder.ObserveReplay(int(position-1), time.Since(start), err)
	return err
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
