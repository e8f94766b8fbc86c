package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
)

const transactionColumns = `value, kind, description, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, accountID int64, t *domain.Transaction) error {
	kind, err := t.Kind.ColumnValue()
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (account_id, value, kind, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		accountID, t.Value, kind, t.Description, t.CreatedAt,
	)
	if err != nil {
		return translate("Create", err)
	}
	return nil
}

// ListByAccount returns the account's transactions oldest first. With
// limit > 0 only the most recent limit rows are returned.
func (r *TransactionRepository) ListByAccount(ctx context.Context, tx *sql.Tx, accountID int64, limit int) ([]domain.Transaction, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = tx.QueryContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions
			WHERE account_id = $1 ORDER BY id DESC LIMIT $2`,
			accountID, limit,
		)
	} else {
		rows, err = tx.QueryContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions
			WHERE account_id = $1 ORDER BY id`,
			accountID,
		)
	}
	if err != nil {
		return nil, translate("ListByAccount", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("ListByAccount: rows", err)
	}

	if limit > 0 {
		slices.Reverse(txs)
	}
	return txs, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var (
		t    domain.Transaction
		kind string
	)
	if err := s.Scan(&t.Value, &kind, &t.Description, &t.CreatedAt); err != nil {
		return nil, err
	}
	k, err := domain.KindFromColumn(kind)
	if err != nil {
		return nil, err
	}
	t.Kind = k
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}
