package ledger

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Amount is a quantity of money in minor units (e.g. cents).
type Amount int64

// Domain errors returned by commands and queries.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidAccount    = errors.New("invalid account")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Account is one named balance.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance Amount `json:"balance"`
}

// Ledger is the state: all accounts keyed by ID.
// Account is a plain value, so cloning the map is a deep copy.
type Ledger struct {
	accounts map[string]Account
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{accounts: make(map[string]Account)}
}

// Clone returns an independent copy of l.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{accounts: maps.Clone(l.accounts)}
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	return len(l.accounts)
}

// Equal reports whether two ledgers hold the same accounts.
func (l *Ledger) Equal(other *Ledger) bool {
	return maps.Equal(l.accounts, other.accounts)
}

func (l *Ledger) account(id string) (Account, error) {
	acc, found := l.accounts[id]
	if !found {
		return Account{}, &AccountError{ID: id, Err: ErrAccountNotFound}
	}
	return acc, nil
}

// AccountError ties a domain error to the account it concerns.
type AccountError struct {
	ID  string
	Err error
}

func (e *AccountError) Error() string {
	return e.Err.Error() + ": " + e.ID
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

// normalize NFC-normalizes and trims an identifier or name so that
// visually identical input maps to one account.
func normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// checkText rejects an identifier or name that would not survive the log
// encoding unchanged: it must be non-empty valid UTF-8 in NFC, free of
// control characters and of surrounding whitespace.
func checkText(field, s string) error {
	switch {
	case s == "":
		return fmt.Errorf("%w: empty %s", ErrInvalidAccount, field)
	case !utf8.ValidString(s):
		return fmt.Errorf("%w: %s %q is not valid UTF-8", ErrInvalidAccount, field, s)
	case !norm.NFC.IsNormalString(s):
		return fmt.Errorf("%w: %s %q is not NFC normalized", ErrInvalidAccount, field, s)
	case strings.TrimSpace(s) != s:
		return fmt.Errorf("%w: %s %q has surrounding whitespace", ErrInvalidAccount, field, s)
	case strings.ContainsFunc(s, unicode.IsControl):
		return fmt.Errorf("%w: %s %q contains a control character", ErrInvalidAccount, field, s)
	}
	return nil
}

// credit adds amount to acc, refusing to wrap past the int64 range.
func credit(acc Account, amount Amount) (Account, error) {
	if acc.Balance > math.MaxInt64-amount {
		return acc, &AccountError{ID: acc.ID, Err: fmt.Errorf("%w: %d + %d", ErrBalanceOverflow, acc.Balance, amount)}
	}
	acc.Balance += amount
	return acc, nil
}
