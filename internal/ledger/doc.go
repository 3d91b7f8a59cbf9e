// Package ledger is a small banking domain run on the memory image
// processor: named accounts holding integer balances, changed by
// CreateAccount, Deposit, Withdrawal and Transfer commands and read through
// GetAccount, GetBalance and ListAccounts queries.
//
// Amounts are integer minor units. Floats never enter the state or the log.
package ledger
