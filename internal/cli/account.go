package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/memimg/internal/ledger"
	"github.com/roach88/memimg/internal/memimg"
)

// AccountResult is the output of commands that touch one account.
type AccountResult struct {
	Account ledger.Account `json:"account"`
	Action  string         `json:"action"`
}

func (r AccountResult) String() string {
	return fmt.Sprintf("%s account %s (%s): balance %d", r.Action, r.Account.ID, r.Account.Name, r.Account.Balance)
}

// AccountsResult is the output of the accounts command.
type AccountsResult struct {
	Accounts []ledger.Account `json:"accounts"`
	Total    ledger.Amount    `json:"total"`
}

func (r AccountsResult) String() string {
	if len(r.Accounts) == 0 {
		return "No accounts."
	}
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBALANCE")
	for _, acc := range r.Accounts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", acc.ID, acc.Name, acc.Balance)
	}
	fmt.Fprintf(tw, "\t\t%d\n", r.Total)
	tw.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

// AccountCreateOptions holds flags for the account create command.
type AccountCreateOptions struct {
	*RootOptions
	ID   string
	Name string
}

// NewAccountCommand creates the account command group.
func NewAccountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountCreateCommand(rootOpts))
	return cmd
}

func newAccountCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account with a zero balance",
		Long: `Open a new account with a zero balance.

When --id is omitted a UUIDv7 is generated. The generated ID is part of the
logged command, so replay recreates the same account.

Examples:
  memimg account create --name Alice
  memimg account create --id a1 --name Alice --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountCreate(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "account ID (generated when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "account holder name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runAccountCreate(ctx context.Context, opts *AccountCreateOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	id := opts.ID
	if id == "" {
		id = opts.NewID()
	}
	create := ledger.NewCreateAccount(id, opts.Name)

	b, p, err := session(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer b.close()

	if err := p.Apply(ctx, create); err != nil {
		return f.FailProcessor(err)
	}
	return reportAccount(p, f, "Created", create.ID)
}

// reportAccount prints the committed state of account id.
func reportAccount(p *memimg.Processor[*ledger.Ledger], f *OutputFormatter, action, id string) error {
	res, err := memimg.Execute(p, ledger.GetAccount{ID: id})
	if err != nil {
		return f.FailProcessor(err)
	}
	return f.Success(AccountResult{Account: res.Account, Action: action})
}

// NewAccountsCommand creates the accounts command.
func NewAccountsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "accounts",
		Short:         "List all accounts ordered by ID",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccounts(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runAccounts(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	b, p, err := session(ctx, opts, f)
	if err != nil {
		return err
	}
	defer b.close()

	accounts, err := memimg.Execute(p, ledger.ListAccounts{})
	if err != nil {
		return f.FailProcessor(err)
	}
	total, err := memimg.Execute(p, ledger.TotalBalance{})
	if err != nil {
		return f.FailProcessor(err)
	}
	return f.Success(AccountsResult{Accounts: accounts, Total: total})
}
