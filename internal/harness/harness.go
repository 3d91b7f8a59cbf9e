package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/memimg/internal/canonical"
	"github.com/roach88/memimg/internal/ledger"
	"github.com/roach88/memimg/internal/memimg"
)

// Run executes a scenario against a fresh in-memory ledger.
//
// A step whose outcome differs from its expectation, a failed assertion, or
// a replay that does not reproduce the final ledger is recorded in
// Result.Errors. The returned error is reserved for scenarios that cannot
// run at all, such as a step the codec cannot decode.
func Run(s *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec := ledger.NewCodec()
	log := memimg.NewMemoryLog()
	p := memimg.New(ledger.New(), log, codec, memimg.WithLogger(logger))

	result := NewResult()

	for i, step := range s.Flow {
		cmd, err := buildCommand(codec, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}

		event := TraceEvent{Step: i + 1, Command: cmd.CommandType(), Outcome: OutcomeCommitted}
		if err := p.Apply(ctx, cmd); err != nil {
			event.Outcome = OutcomeFailed
			if memimg.IsKind(err, memimg.KindCommandRejected) {
				event.Outcome = OutcomeRejected
			}
			event.Error = cause(err)
		}
		event.Seq = p.Seq()
		result.Trace = append(result.Trace, event)

		checkStep(result, step, event)
	}

	result.Log = log.Entries()

	accounts, err := memimg.Execute(p, ledger.ListAccounts{})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	result.Accounts = accounts

	checkReplay(ctx, result, p, codec, logger)

	if err := p.View(func(l *ledger.Ledger) error {
		for _, a := range s.Assertions {
			if err := evaluate(l, len(result.Log), a); err != nil {
				result.AddError(err.Error())
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// buildCommand turns a step into a command by round-tripping it through
// the log encoding.
func buildCommand(codec *ledger.Codec, step Step) (ledger.Command, error) {
	entry, err := canonical.Marshal(map[string]any{"type": step.Command, "data": step.Args})
	if err != nil {
		return nil, fmt.Errorf("encode step: %w", err)
	}
	cmd, err := codec.Decode(entry)
	if err != nil {
		return nil, fmt.Errorf("decode step: %w", err)
	}
	lc, ok := cmd.(ledger.Command)
	if !ok {
		return nil, fmt.Errorf("decode step: unexpected command %T", cmd)
	}
	return lc, nil
}

// cause strips the processor wrapper so traces show the domain error only.
func cause(err error) string {
	var merr *memimg.Error
	if errors.As(err, &merr) && merr.Err != nil {
		return merr.Err.Error()
	}
	return err.Error()
}

func checkStep(result *Result, step Step, event TraceEvent) {
	want := step.Expect
	if want == "" {
		want = OutcomeCommitted
	}
	if event.Outcome != want {
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s %s",
			event.Step, event.Command, want, event.Outcome, event.Error))
		return
	}
	if step.Error != "" && !strings.Contains(event.Error, step.Error) {
		result.AddError(fmt.Sprintf("step %d (%s): expected error containing %q, got %q",
			event.Step, event.Command, step.Error, event.Error))
	}
}

func checkReplay(ctx context.Context, result *Result, live *memimg.Processor[*ledger.Ledger], codec *ledger.Codec, logger *slog.Logger) {
	replayed, err := memimg.Open(ctx, ledger.New(), memimg.NewMemoryLog(result.Log...), codec, memimg.WithLogger(logger))
	if err != nil {
		result.AddError(fmt.Sprintf("replay: %v", err))
		return
	}

	var same bool
	_ = live.View(func(a *ledger.Ledger) error {
		return replayed.View(func(b *ledger.Ledger) error {
			same = a.Equal(b)
			return nil
		})
	})
	if !same {
		result.AddError("replay: replayed ledger differs from live ledger")
	}
}
