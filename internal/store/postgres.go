package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
)

type accountRepo interface {
	GetInTx(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id int64, newBalance int64) error
	Create(ctx context.Context, account *domain.Account) (bool, error)
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, accountID int64, t *domain.Transaction) error
	ListByAccount(ctx context.Context, tx *sql.Tx, accountID int64, limit int) ([]domain.Transaction, error)
}

type PostgresStore struct {
	db           *sql.DB
	accounts     accountRepo
	transactions transactionRepo
	now          func() time.Time
}

func NewPostgresStore(db *sql.DB, accounts accountRepo, transactions transactionRepo, opts ...Option) *PostgresStore {
	o := buildOptions(opts)
	return &PostgresStore{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
		now:          o.now,
	}
}

func (s *PostgresStore) Provision(ctx context.Context, id, limit, initialBalance int64) (bool, error) {
	a, err := domain.NewAccount(id, limit, initialBalance)
	if err != nil {
		return false, fmt.Errorf("Provision: %w", err)
	}
	created, err := s.accounts.Create(ctx, a)
	if err != nil {
		return false, fmt.Errorf("Provision: %w", err)
	}
	return created, nil
}

// Find reads the account row and its history in one repeatable-read
// transaction so the balance always matches the listed transactions.
func (s *PostgresStore) Find(ctx context.Context, id int64, historyLimit int) (*domain.Account, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("Find: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetInTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}

	txs, err := s.transactions.ListByAccount(ctx, tx, id, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	account.Transactions = txs

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Find: commit: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) SubmitTransaction(ctx context.Context, id int64, req domain.TransactionRequest) (*domain.BalanceSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SubmitTransaction: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("SubmitTransaction: %w", err)
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("SubmitTransaction: %w", err)
	}

	// timestamptz keeps microseconds
	at := s.now().UTC().Truncate(time.Microsecond)
	t, err := account.Apply(req.Value, req.Kind, req.Description, at)
	if err != nil {
		return nil, fmt.Errorf("SubmitTransaction: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, id, account.Balance); err != nil {
		return nil, fmt.Errorf("SubmitTransaction: %w", err)
	}
	if err := s.transactions.Create(ctx, tx, id, &t); err != nil {
		return nil, fmt.Errorf("SubmitTransaction: insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SubmitTransaction: commit: %w", err)
	}

	return &domain.BalanceSnapshot{
		Limit:   account.Limit,
		Balance: account.Balance,
	}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("Ping: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
