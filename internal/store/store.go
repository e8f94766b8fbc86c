// Package store resolves account ids to ledgers and serializes mutation per
// account. MemoryStore keeps ledgers in process behind a per-account lock;
// PostgresStore relies on the row lock taken inside a database transaction.
package store

import (
	"context"
	"time"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
)

type Store interface {
	// Find returns a consistent snapshot of the account. historyLimit > 0
	// keeps only that many of the most recent transactions; otherwise the
	// whole history is returned. Transactions are ordered oldest first.
	Find(ctx context.Context, id int64, historyLimit int) (*domain.Account, error)
	SubmitTransaction(ctx context.Context, id int64, req domain.TransactionRequest) (*domain.BalanceSnapshot, error)
	// Provision creates the account if it does not exist yet and reports
	// whether it did.
	Provision(ctx context.Context, id, limit, initialBalance int64) (bool, error)
	Ping(ctx context.Context) error
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to stamp transactions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
