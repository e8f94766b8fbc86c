package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/overdraft-ledger/internal/store"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []AccountSeed
		wantErr bool
	}{
		{
			name: "valid",
			input: `
accounts:
  - id: 1
    limit: 1000
  - id: 2
    limit: 50
    balance: -20
`,
			want: []AccountSeed{{ID: 1, Limit: 1000}, {ID: 2, Limit: 50, Balance: -20}},
		},
		{name: "empty", input: ``, want: nil},
		{name: "zero id", input: "accounts:\n  - id: 0\n    limit: 1\n", wantErr: true},
		{name: "negative limit", input: "accounts:\n  - id: 1\n    limit: -1\n", wantErr: true},
		{name: "balance below limit", input: "accounts:\n  - id: 1\n    limit: 10\n    balance: -11\n", wantErr: true},
		{name: "duplicate id", input: "accounts:\n  - id: 1\n  - id: 1\n", wantErr: true},
		{name: "malformed yaml", input: "accounts: [", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts:\n  - id: 7\n    limit: 70\n"), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []AccountSeed{{ID: 7, Limit: 70}}, got)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "seeds", "accounts.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestApply(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	created, err := Apply(ctx, s, Defaults())
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	a, err := s.Find(ctx, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10000000), a.Limit)
	assert.Equal(t, int64(0), a.Balance)

	created, err = Apply(ctx, s, Defaults())
	require.NoError(t, err)
	assert.Zero(t, created, "second run must not recreate accounts")
}

type failingProvisioner struct{}

func (failingProvisioner) Provision(context.Context, int64, int64, int64) (bool, error) {
	return false, errors.New("db down")
}

func TestApply_StopsOnError(t *testing.T) {
	created, err := Apply(context.Background(), failingProvisioner{}, Defaults())
	require.Error(t, err)
	assert.Zero(t, created)
}
