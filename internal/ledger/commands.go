package ledger

import (
	"fmt"

	"github.com/roach88/memimg/internal/memimg"
)

// Command type names. These are also the "type" tag in the log encoding.
const (
	TypeCreateAccount = "create_account"
	TypeDeposit       = "deposit"
	TypeWithdrawal    = "withdrawal"
	TypeTransfer      = "transfer"
)

// Command is the closed set of ledger commands.
type Command interface {
	memimg.Command[*Ledger]
	payload() map[string]any
}

var (
	_ Command = CreateAccount{}
	_ Command = Deposit{}
	_ Command = Withdrawal{}
	_ Command = Transfer{}
)

// CreateAccount opens an account with a zero balance.
type CreateAccount struct {
	ID   string
	Name string
}

// NewCreateAccount builds a CreateAccount with normalized fields.
func NewCreateAccount(id, name string) CreateAccount {
	return CreateAccount{ID: normalize(id), Name: normalize(name)}
}

func (CreateAccount) CommandType() string { return TypeCreateAccount }

func (c CreateAccount) Apply(l *Ledger) error {
	if err := checkText("id", c.ID); err != nil {
		return err
	}
	if err := checkText("name", c.Name); err != nil {
		return err
	}
	if _, exists := l.accounts[c.ID]; exists {
		return &AccountError{ID: c.ID, Err: ErrAccountExists}
	}
	l.accounts[c.ID] = Account{ID: c.ID, Name: c.Name}
	return nil
}

func (c CreateAccount) payload() map[string]any {
	return map[string]any{"id": c.ID, "name": c.Name}
}

// Deposit credits an account.
type Deposit struct {
	AccountID string
	Amount    Amount
}

// NewDeposit builds a Deposit with a normalized account ID.
func NewDeposit(accountID string, amount Amount) Deposit {
	return Deposit{AccountID: normalize(accountID), Amount: amount}
}

func (Deposit) CommandType() string { return TypeDeposit }

func (c Deposit) Apply(l *Ledger) error {
	if c.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, c.Amount)
	}
	if err := checkText("account id", c.AccountID); err != nil {
		return err
	}
	acc, err := l.account(c.AccountID)
	if err != nil {
		return err
	}
	if acc, err = credit(acc, c.Amount); err != nil {
		return err
	}
	l.accounts[acc.ID] = acc
	return nil
}

func (c Deposit) payload() map[string]any {
	return map[string]any{"account_id": c.AccountID, "amount": int64(c.Amount)}
}

// Withdrawal debits an account. Rejected if the balance is too low.
type Withdrawal struct {
	AccountID string
	Amount    Amount
}

// NewWithdrawal builds a Withdrawal with a normalized account ID.
func NewWithdrawal(accountID string, amount Amount) Withdrawal {
	return Withdrawal{AccountID: normalize(accountID), Amount: amount}
}

func (Withdrawal) CommandType() string { return TypeWithdrawal }

func (c Withdrawal) Apply(l *Ledger) error {
	if c.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, c.Amount)
	}
	if err := checkText("account id", c.AccountID); err != nil {
		return err
	}
	acc, err := l.account(c.AccountID)
	if err != nil {
		return err
	}
	if acc.Balance < c.Amount {
		return &AccountError{ID: acc.ID, Err: fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, acc.Balance, c.Amount)}
	}
	acc.Balance -= c.Amount
	l.accounts[acc.ID] = acc
	return nil
}

func (c Withdrawal) payload() map[string]any {
	return map[string]any{"account_id": c.AccountID, "amount": int64(c.Amount)}
}

// Transfer moves an amount between two accounts.
//
// The destination is credited before the source is checked and debited, so
// a rejected transfer leaves the working copy half-applied. The processor's
// shadow copy is what keeps that from becoming visible.
type Transfer struct {
	FromAccountID string
	ToAccountID   string
	Amount        Amount
}

// NewTransfer builds a Transfer with normalized account IDs.
func NewTransfer(from, to string, amount Amount) Transfer {
	return Transfer{FromAccountID: normalize(from), ToAccountID: normalize(to), Amount: amount}
}

func (Transfer) CommandType() string { return TypeTransfer }

func (c Transfer) Apply(l *Ledger) error {
	if c.Amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, c.Amount)
	}
	if err := checkText("source account id", c.FromAccountID); err != nil {
		return err
	}
	if err := checkText("destination account id", c.ToAccountID); err != nil {
		return err
	}
	if c.FromAccountID == c.ToAccountID {
		return fmt.Errorf("%w: transfer to self (%s)", ErrInvalidAccount, c.FromAccountID)
	}

	to, err := l.account(c.ToAccountID)
	if err != nil {
		return err
	}
	if to, err = credit(to, c.Amount); err != nil {
		return err
	}
	l.accounts[to.ID] = to

	from, err := l.account(c.FromAccountID)
	if err != nil {
		return err
	}
	if from.Balance < c.Amount {
		return &AccountError{ID: from.ID, Err: fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, from.Balance, c.Amount)}
	}
	from.Balance -= c.Amount
	l.accounts[from.ID] = from
	return nil
}

func (c Transfer) payload() map[string]any {
	return map[string]any{
		"from_account_id": c.FromAccountID,
		"to_account_id":   c.ToAccountID,
		"amount":          int64(c.Amount),
	}
}
