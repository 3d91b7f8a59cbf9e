package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/memimg/internal/ledger"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluate checks one assertion against the final ledger. logLen is the
// number of entries in the log.
func evaluate(l *ledger.Ledger, logLen int, a Assertion) error {
	switch a.Type {
	case AssertBalance:
		return assertBalance(l, a)
	case AssertAccountMissing:
		return assertAccountMissing(l, a)
	case AssertAccountCount:
		return assertCount(a.Type, l.Len(), *a.Count)
	case AssertLogCount:
		return assertCount(a.Type, logLen, *a.Count)
	case AssertTotalBalance:
		total, _ := ledger.TotalBalance{}.Extract(l)
		if int64(total) != *a.Balance {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("total %d", *a.Balance),
				Actual:   fmt.Sprintf("total %d", total),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertBalance(l *ledger.Ledger, a Assertion) error {
	balance, err := ledger.GetBalance{ID: a.Account}.Extract(l)
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("account %s with balance %d", a.Account, *a.Balance),
			Actual:   err.Error(),
		}
	}
	if int64(balance) != *a.Balance {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("account %s with balance %d", a.Account, *a.Balance),
			Actual:   fmt.Sprintf("balance %d", balance),
		}
	}
	return nil
}

func assertAccountMissing(l *ledger.Ledger, a Assertion) error {
	res, _ := ledger.GetAccount{ID: a.Account}.Extract(l)
	if res.Found {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("no account %s", a.Account),
			Actual:   fmt.Sprintf("account %s (%s) with balance %d", res.Account.ID, res.Account.Name, res.Account.Balance),
		}
	}
	return nil
}

func assertCount(kind string, got, want int) error {
	if got != want {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%d", want),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}
