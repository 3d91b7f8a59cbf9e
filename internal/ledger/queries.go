package ledger

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// GetAccount looks up one account. Found is false if it does not exist.
type GetAccount struct {
	ID string
}

// AccountResult is the result of GetAccount.
type AccountResult struct {
	Account Account
	Found   bool
}

func (q GetAccount) Extract(l *Ledger) (AccountResult, error) {
	acc, found := l.accounts[normalize(q.ID)]
	return AccountResult{Account: acc, Found: found}, nil
}

// GetBalance returns an account's balance, or ErrAccountNotFound.
type GetBalance struct {
	ID string
}

func (q GetBalance) Extract(l *Ledger) (Amount, error) {
	acc, err := l.account(normalize(q.ID))
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// ListAccounts returns every account ordered by ID.
type ListAccounts struct{}

func (ListAccounts) Extract(l *Ledger) ([]Account, error) {
	out := make([]Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		out = append(out, acc)
	}
	slices.SortFunc(out, func(a, b Account) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// TotalBalance sums every balance. Transfers leave it unchanged.
type TotalBalance struct{}

func (TotalBalance) Extract(l *Ledger) (Amount, error) {
	var total Amount
	for _, acc := range l.accounts {
		if total > math.MaxInt64-acc.Balance {
			return 0, fmt.Errorf("%w: total exceeds %d", ErrBalanceOverflow, int64(math.MaxInt64))
		}
		total += acc.Balance
	}
	return total, nil
}
