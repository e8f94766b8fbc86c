// Package seed loads the accounts a fresh deployment starts with.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type AccountSeed struct {
	ID      int64 `yaml:"id"`
	Limit   int64 `yaml:"limit"`
	Balance int64 `yaml:"balance"`
}

type File struct {
	Accounts []AccountSeed `yaml:"accounts"`
}

// Provisioner creates an account unless it already exists.
type Provisioner interface {
	Provision(ctx context.Context, id, limit, initialBalance int64) (bool, error)
}

var ErrInvalidSeed = errors.New("invalid seed")

// Defaults are the five accounts every deployment is provisioned with when no
// seed file is configured.
func Defaults() []AccountSeed {
	return []AccountSeed{
		{ID: 1, Limit: 100000},
		{ID: 2, Limit: 80000},
		{ID: 3, Limit: 1000000},
		{ID: 4, Limit: 10000000},
		{ID: 5, Limit: 500000},
	}
}

func Load(path string) ([]AccountSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	seeds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Load %s: %w", path, err)
	}
	return seeds, nil
}

func Parse(data []byte) ([]AccountSeed, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}

	seen := make(map[int64]struct{}, len(f.Accounts))
	for i, a := range f.Accounts {
		switch {
		case a.ID <= 0:
			return nil, fmt.Errorf("Parse: accounts[%d]: id must be positive: %w", i, ErrInvalidSeed)
		case a.Limit < 0:
			return nil, fmt.Errorf("Parse: accounts[%d]: limit must not be negative: %w", i, ErrInvalidSeed)
		case a.Balance < -a.Limit:
			return nil, fmt.Errorf("Parse: accounts[%d]: balance below overdraft limit: %w", i, ErrInvalidSeed)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("Parse: accounts[%d]: duplicate id %d: %w", i, a.ID, ErrInvalidSeed)
		}
		seen[a.ID] = struct{}{}
	}
	return f.Accounts, nil
}

// Apply provisions every seed and returns how many accounts were newly
// created. Accounts that already exist are left as they are.
func Apply(ctx context.Context, p Provisioner, seeds []AccountSeed) (int, error) {
	var created int
	for _, s := range seeds {
		ok, err := p.Provision(ctx, s.ID, s.Limit, s.Balance)
		if err != nil {
			return created, fmt.Errorf("Apply: account %d: %w", s.ID, err)
		}
		if ok {
			created++
			slog.InfoContext(ctx, "account provisioned", "account_id", s.ID, "limit", s.Limit, "balance", s.Balance)
		}
	}
	return created, nil
}
