package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
)

type BreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive storage failures that opens
	// the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a
	// trial request through.
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	OnStateChange    func(name string, from, to gobreaker.State)
}

// Breaker fails fast with domain.ErrStorageUnavailable while the wrapped
// store keeps failing. It never retries.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Store, cfg BreakerConfig) *Breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	name := cfg.Name
	if name == "" {
		name = "store"
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: max(cfg.HalfOpenRequests, 1),
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful:  isHealthyOutcome,
		OnStateChange: cfg.OnStateChange,
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// isHealthyOutcome reports whether err says nothing about storage health.
// Business rejections, bad rows on a single account and caller cancellation
// must not trip the breaker.
func isHealthyOutcome(err error) bool {
	if err == nil {
		return true
	}
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrInvalidDescription,
		domain.ErrInvalidValue,
		domain.ErrInvalidKind,
		domain.ErrInvalidLimit,
		domain.ErrInvalidInitialBalance,
		domain.ErrOverLimit,
		domain.ErrConflict,
		domain.ErrUnknownKindCode,
		context.Canceled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func run[T any](b *Breaker, op string, fn func() (T, error)) (T, error) {
	var zero T
	v, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
		}
		return zero, err
	}
	return v.(T), nil
}

func (b *Breaker) Find(ctx context.Context, id int64, historyLimit int) (*domain.Account, error) {
	return run(b, "Find", func() (*domain.Account, error) {
		return b.next.Find(ctx, id, historyLimit)
	})
}

func (b *Breaker) SubmitTransaction(ctx context.Context, id int64, req domain.TransactionRequest) (*domain.BalanceSnapshot, error) {
	return run(b, "SubmitTransaction", func() (*domain.BalanceSnapshot, error) {
		return b.next.SubmitTransaction(ctx, id, req)
	})
}

func (b *Breaker) Provision(ctx context.Context, id, limit, initialBalance int64) (bool, error) {
	return run(b, "Provision", func() (bool, error) {
		return b.next.Provision(ctx, id, limit, initialBalance)
	})
}

func (b *Breaker) Ping(ctx context.Context) error {
	_, err := run(b, "Ping", func() (struct{}, error) {
		return struct{}{}, b.next.Ping(ctx)
	})
	return err
}

var _ Store = (*Breaker)(nil)
