package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
	"github.com/josh-kwaku/overdraft-ledger/internal/logging"
	"github.com/josh-kwaku/overdraft-ledger/internal/metrics"
)

type accountStore interface {
	Find(ctx context.Context, id int64, historyLimit int) (*domain.Account, error)
	SubmitTransaction(ctx context.Context, id int64, req domain.TransactionRequest) (*domain.BalanceSnapshot, error)
	Ping(ctx context.Context) error
}

type AccountService struct {
	store         accountStore
	metrics       *metrics.Metrics
	statementSize int
	now           func() time.Time
}

func NewAccountService(store accountStore, m *metrics.Metrics, statementSize int) *AccountService {
	return &AccountService{
		store:         store,
		metrics:       m,
		statementSize: statementSize,
		now:           time.Now,
	}
}

func (s *AccountService) SubmitTransaction(ctx context.Context, accountID int64, req domain.TransactionRequest) (*domain.BalanceSnapshot, error) {
	ctx = logging.With(ctx, "account_id", accountID)
	log := logging.FromContext(ctx)

	kindLabel := string(req.Kind)
	if !req.Kind.IsValid() {
		kindLabel = "unknown"
	}

	res, err := s.store.SubmitTransaction(ctx, accountID, req)
	if err != nil {
		outcome := classify(err)
		s.metrics.RecordTransaction(kindLabel, outcome)
		if outcome == metrics.OutcomeError {
			log.Error("transaction failed", "kind", kindLabel, "value", req.Value, "error", err)
		} else {
			log.Warn("transaction rejected", "kind", kindLabel, "value", req.Value, "reason", outcome)
		}
		return nil, fmt.Errorf("SubmitTransaction: %w", err)
	}

	s.metrics.RecordTransaction(kindLabel, metrics.OutcomeApplied)
	log.Info("transaction applied",
		"kind", req.Kind,
		"value", req.Value,
		"balance", res.Balance,
	)
	return res, nil
}

// GetStatement reports the balance with the most recent transactions, newest
// first.
func (s *AccountService) GetStatement(ctx context.Context, accountID int64) (*domain.Statement, error) {
	account, err := s.store.Find(ctx, accountID, s.statementSize)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logging.FromContext(ctx).Error("statement read failed", "account_id", accountID, "error", err)
		}
		return nil, fmt.Errorf("GetStatement: %w", err)
	}
	return domain.NewStatement(account, s.statementSize, s.now().UTC()), nil
}

func (s *AccountService) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("Ready: %w", err)
	}
	return nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrOverLimit):
		return metrics.OutcomeOverLimit
	case errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrInvalidKind):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
