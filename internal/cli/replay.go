package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/memimg/internal/ledger"
	"github.com/roach88/memimg/internal/memimg"
)

// ReplayResult holds the replay verification result.
type ReplayResult struct {
	Backend       string        `json:"backend"`
	Entries       int64         `json:"entries"`
	Accounts      int           `json:"accounts"`
	TotalBalance  ledger.Amount `json:"total_balance"`
	Deterministic bool          `json:"deterministic"`
}

func (r ReplayResult) String() string {
	status := "✓ Replay verified deterministic"
	if !r.Deterministic {
		status = "✗ Determinism verification failed"
	}
	return fmt.Sprintf("Replayed %d entries from %s log: %d account(s), total balance %d\n%s",
		r.Entries, r.Backend, r.Accounts, r.TotalBalance, status)
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the command log and verify determinism",
		Long: `Replay the command log and verify determinism.

The log is replayed twice into fresh ledgers and the two results are
compared. Nothing is appended.

Exit codes:
  0 - Both replays succeeded and agree
  1 - Replay failed (corrupt log) or the replays differ
  2 - Command error (log cannot be opened, etc.)

Examples:
  memimg replay --log-path ./memimg.log
  memimg replay --log-backend sqlite --log-path ./memimg.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runReplay(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	b, err := openBackend(opts)
	if err != nil {
		return f.Fail(CodePersistence, ExitCommandError, fmt.Errorf("open %s log: %w", opts.Config.Log.Backend, err))
	}
	defer b.close()

	first, err := b.openLedger(ctx)
	if err != nil {
		return f.FailProcessor(fmt.Errorf("first replay: %w", err))
	}
	f.VerboseLog("first replay: %d entries", first.Seq())

	second, err := b.openLedger(ctx)
	if err != nil {
		return f.FailProcessor(fmt.Errorf("second replay: %w", err))
	}
	f.VerboseLog("second replay: %d entries", second.Seq())

	result := ReplayResult{
		Backend: b.name,
		Entries: first.Seq(),
	}
	sameSeq := first.Seq() == second.Seq()
	err = first.View(func(left *ledger.Ledger) error {
		return second.View(func(right *ledger.Ledger) error {
			result.Deterministic = sameSeq && left.Equal(right)
			result.Accounts = left.Len()
			return nil
		})
	})
	if err != nil {
		return f.FailProcessor(err)
	}
	result.TotalBalance, err = memimg.Execute(first, ledger.TotalBalance{})
	if err != nil {
		return f.FailProcessor(err)
	}

	return outputReplay(f, result)
}

// outputReplay writes the result and turns a determinism failure into
// exit code 1.
func outputReplay(f *OutputFormatter, result ReplayResult) error {
	if result.Deterministic {
		return f.Success(result)
	}

	if f.Format == "json" {
		return f.Fail(CodeDeterminism, ExitFailure, fmt.Errorf("determinism verification failed after %d entries", result.Entries))
	}
	if err := f.Success(result); err != nil {
		return err
	}
	exitErr := NewExitError(ExitFailure, "determinism verification failed")
	exitErr.Reported = true
	return exitErr
}
