package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
)

// MemoryStore holds every ledger in process. The table lock only guards the
// id -> slot map; each account has its own lock, so two accounts never
// contend.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[int64]*slot
	now   func() time.Time
}

type slot struct {
	mu      sync.RWMutex
	account *domain.Account
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		slots: make(map[int64]*slot),
		now:   o.now,
	}
}

func (s *MemoryStore) lookup(id int64) (*slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[id]
	return sl, ok
}

func (s *MemoryStore) Provision(_ context.Context, id, limit, initialBalance int64) (bool, error) {
	a, err := domain.NewAccount(id, limit, initialBalance)
	if err != nil {
		return false, fmt.Errorf("Provision: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[id]; ok {
		return false, nil
	}
	s.slots[id] = &slot{account: a}
	return true, nil
}

func (s *MemoryStore) Find(_ context.Context, id int64, historyLimit int) (*domain.Account, error) {
	sl, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("Find: %w", domain.ErrNotFound)
	}

	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.account.Snapshot(historyLimit), nil
}

func (s *MemoryStore) SubmitTransaction(_ context.Context, id int64, req domain.TransactionRequest) (*domain.BalanceSnapshot, error) {
	sl, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("SubmitTransaction: %w", domain.ErrNotFound)
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("SubmitTransaction: %w", err)
	}

	if _, err := sl.account.Apply(req.Value, req.Kind, req.Description, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("SubmitTransaction: %w", err)
	}

	return &domain.BalanceSnapshot{
		Limit:   sl.account.Limit,
		Balance: sl.account.Balance,
	}, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
