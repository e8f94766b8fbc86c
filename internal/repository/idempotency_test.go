package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryIdempotencyCache()
	c.now = func() time.Time { return now }

	got, err := c.Get(ctx, "k1", "/accounts/1/transactions")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, &IdempotencyCacheEntry{
		Key:          "k1",
		Scope:        "/accounts/1/transactions",
		RequestHash:  "h1",
		StatusCode:   200,
		ResponseBody: []byte(`{"limit":1000,"balance":10}`),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}))

	// first write wins while the entry is live
	require.NoError(t, c.Set(ctx, &IdempotencyCacheEntry{
		Key: "k1", Scope: "/accounts/1/transactions", RequestHash: "h2",
		StatusCode: 422, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	got, err = c.Get(ctx, "k1", "/accounts/1/transactions")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.RequestHash)
	assert.Equal(t, 200, got.StatusCode)

	got, err = c.Get(ctx, "k1", "/accounts/2/transactions")
	require.NoError(t, err)
	assert.Nil(t, got, "keys are scoped by path")

	now = now.Add(2 * time.Hour)
	got, err = c.Get(ctx, "k1", "/accounts/1/transactions")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
