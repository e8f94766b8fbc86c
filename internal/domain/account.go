package domain

import (
	"fmt"
	"math"
	"time"
)

// Account is the ledger of a single account. Balance never drops below
// -Limit; Transactions is ordered oldest first and only ever appended to.
//
// Account is not safe for concurrent use. Stores serialize access to it.
type Account struct {
	ID           int64
	Limit        int64
	Balance      int64
	Transactions []Transaction
}

func NewAccount(id, limit, initialBalance int64) (*Account, error) {
	if limit < 0 {
		return nil, fmt.Errorf("NewAccount: %w", ErrInvalidLimit)
	}
	if initialBalance < -limit {
		return nil, fmt.Errorf("NewAccount: %w", ErrInvalidInitialBalance)
	}
	return &Account{ID: id, Limit: limit, Balance: initialBalance}, nil
}

// Apply posts a transaction stamped with at. On error the account is left
// untouched.
func (a *Account) Apply(value int64, kind TransactionKind, description string, at time.Time) (Transaction, error) {
	if value <= 0 {
		return Transaction{}, fmt.Errorf("Apply: %w", ErrInvalidValue)
	}

	var candidate int64
	switch kind {
	case KindCredit:
		if a.Balance > math.MaxInt64-value {
			return Transaction{}, fmt.Errorf("Apply: credit overflows balance: %w", ErrInvalidValue)
		}
		candidate = a.Balance + value
	case KindDebit:
		candidate = a.Balance - value
		if candidate < -a.Limit {
			return Transaction{}, fmt.Errorf("Apply: %w", ErrOverLimit)
		}
	default:
		return Transaction{}, fmt.Errorf("Apply: %w", ErrInvalidKind)
	}

	t := Transaction{
		Value:       value,
		Kind:        kind,
		Description: description,
		CreatedAt:   at,
	}
	a.Balance = candidate
	a.Transactions = append(a.Transactions, t)
	return t, nil
}

// Snapshot returns a deep copy holding at most the last n transactions.
// n <= 0 keeps the whole history.
func (a *Account) Snapshot(n int) *Account {
	history := a.Transactions
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	cp := &Account{
		ID:      a.ID,
		Limit:   a.Limit,
		Balance: a.Balance,
	}
	if len(history) > 0 {
		cp.Transactions = make([]Transaction, len(history))
		copy(cp.Transactions, history)
	}
	return cp
}

// BalanceSnapshot is what a successful submission reports back.
type BalanceSnapshot struct {
	Limit   int64
	Balance int64
}

type Statement struct {
	Balance          int64
	Limit            int64
	GeneratedAt      time.Time
	LastTransactions []Transaction
}

// NewStatement lists the n most recent transactions of a, newest first.
func NewStatement(a *Account, n int, at time.Time) *Statement {
	history := a.Transactions
	size := min(n, len(history))
	if size < 0 {
		size = 0
	}
	last := make([]Transaction, 0, size)
	for i := len(history) - 1; i >= 0 && len(last) < size; i-- {
		last = append(last, history[i])
	}
	return &Statement{
		Balance:          a.Balance,
		Limit:            a.Limit,
		GeneratedAt:      at,
		LastTransactions: last,
	}
}
