package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/memimg/internal/ledger"
	"github.com/roach88/memimg/internal/memimg"
)

// TransferResult is the output of the transfer command.
type TransferResult struct {
	From   ledger.Account `json:"from"`
	To     ledger.Account `json:"to"`
	Amount ledger.Amount  `json:"amount"`
}

func (r TransferResult) String() string {
	return fmt.Sprintf("Transferred %d from %s to %s: balances %d, %d",
		r.Amount, r.From.ID, r.To.ID, r.From.Balance, r.To.Balance)
}

// parseAmount parses a decimal amount in minor units. Sign is left to the
// ledger, which rejects non-positive amounts as a command rejection.
func parseAmount(f *OutputFormatter, s string) (ledger.Amount, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, f.Fail(CodeUsage, ExitCommandError, fmt.Errorf("invalid amount %q: must be an integer number of minor units", s))
	}
	return ledger.Amount(n), nil
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <account-id> <amount>",
		Short: "Credit an account",
		Long: `Credit an account by a positive amount in minor units.

Example:
  memimg deposit a1 100`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			amount, err := parseAmount(f, args[1])
			if err != nil {
				return err
			}
			return applyAndReport(cmd.Context(), rootOpts, f, ledger.NewDeposit(args[0], amount), "Deposited to")
		},
	}
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <account-id> <amount>",
		Short: "Debit an account",
		Long: `Debit an account by a positive amount in minor units.

A withdrawal larger than the balance is rejected and not logged (exit code 1).

Example:
  memimg withdraw a1 30`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			amount, err := parseAmount(f, args[1])
			if err != nil {
				return err
			}
			return applyAndReport(cmd.Context(), rootOpts, f, ledger.NewWithdrawal(args[0], amount), "Withdrew from")
		},
	}
}

func applyAndReport(ctx context.Context, opts *RootOptions, f *OutputFormatter, cmd ledger.Command, action string) error {
	b, p, err := session(ctx, opts, f)
	if err != nil {
		return err
	}
	defer b.close()

	if err := p.Apply(ctx, cmd); err != nil {
		return f.FailProcessor(err)
	}

	var id string
	switch c := cmd.(type) {
	case ledger.Deposit:
		id = c.AccountID
	case ledger.Withdrawal:
		id = c.AccountID
	}
	return reportAccount(p, f, action, id)
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from-account-id> <to-account-id> <amount>",
		Short: "Move an amount between two accounts",
		Long: `Move an amount between two accounts.

The transfer is all-or-nothing: if the source balance is too low neither
account changes.

Example:
  memimg transfer acc1 acc2 30`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), rootOpts, cmd, args)
		},
	}
}

func runTransfer(ctx context.Context, opts *RootOptions, cmd *cobra.Command, args []string) error {
	f := opts.formatter(cmd)
	amount, err := parseAmount(f, args[2])
	if err != nil {
		return err
	}
	transfer := ledger.NewTransfer(args[0], args[1], amount)

	b, p, err := session(ctx, opts, f)
	if err != nil {
		return err
	}
	defer b.close()

	if err := p.Apply(ctx, transfer); err != nil {
		return f.FailProcessor(err)
	}

	var res TransferResult
	err = p.View(func(l *ledger.Ledger) error {
		from, _ := ledger.GetAccount{ID: transfer.FromAccountID}.Extract(l)
		to, _ := ledger.GetAccount{ID: transfer.ToAccountID}.Extract(l)
		res = TransferResult{From: from.Account, To: to.Account, Amount: transfer.Amount}
		return nil
	})
	if err != nil {
		return f.FailProcessor(err)
	}
	return f.Success(res)
}

// BalanceResult is the output of the balance command.
type BalanceResult struct {
	ID      string        `json:"id"`
	Balance ledger.Amount `json:"balance"`
}

func (r BalanceResult) String() string {
	return fmt.Sprintf("%s: %d", r.ID, r.Balance)
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account balance",
		Long: `Show an account balance.

Exit codes:
  0 - Account found
  1 - No such account`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := rootOpts.formatter(cmd)

			b, p, err := session(ctx, rootOpts, f)
			if err != nil {
				return err
			}
			defer b.close()

			balance, err := memimg.Execute(p, ledger.GetBalance{ID: args[0]})
			if err != nil {
				return f.FailProcessor(err)
			}
			return f.Success(BalanceResult{ID: args[0], Balance: balance})
		},
	}
}
