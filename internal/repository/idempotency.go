package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// IdempotencyCacheEntry is a stored response keyed by the client's
// Idempotency-Key and the request path it was used on.
type IdempotencyCacheEntry struct {
	Key          string
	Scope        string
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Get(ctx context.Context, key, scope string) (*IdempotencyCacheEntry, error) {
	var e IdempotencyCacheEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, scope, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND scope = $2 AND expires_at > now()`,
		key, scope,
	).Scan(&e.Key, &e.Scope, &e.RequestHash, &e.StatusCode, &e.ResponseBody, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &e, nil
}

func (r *IdempotencyRepository) Set(ctx context.Context, entry *IdempotencyCacheEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, scope, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key, scope) DO UPDATE SET
			request_hash = EXCLUDED.request_hash,
			status_code = EXCLUDED.status_code,
			response_body = EXCLUDED.response_body,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_cache.expires_at <= now()`,
		entry.Key, entry.Scope, entry.RequestHash, entry.StatusCode, entry.ResponseBody, entry.CreatedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("PurgeExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("PurgeExpired: rows affected: %w", err)
	}
	return n, nil
}

type idempotencyKey struct {
	key   string
	scope string
}

// MemoryIdempotencyCache is the in-process counterpart of
// IdempotencyRepository, used with the memory store backend.
type MemoryIdempotencyCache struct {
	mu      sync.Mutex
	entries map[idempotencyKey]IdempotencyCacheEntry
	now     func() time.Time
}

func NewMemoryIdempotencyCache() *MemoryIdempotencyCache {
	return &MemoryIdempotencyCache{
		entries: make(map[idempotencyKey]IdempotencyCacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryIdempotencyCache) Get(_ context.Context, key, scope string) (*IdempotencyCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[idempotencyKey{key, scope}]
	if !ok || !e.ExpiresAt.After(c.now()) {
		return nil, nil
	}
	e.ResponseBody = append([]byte(nil), e.ResponseBody...)
	return &e, nil
}

func (c *MemoryIdempotencyCache) Set(_ context.Context, entry *IdempotencyCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := idempotencyKey{entry.Key, entry.Scope}
	if cur, ok := c.entries[k]; ok && cur.ExpiresAt.After(c.now()) {
		return nil
	}
	e := *entry
	e.ResponseBody = append([]byte(nil), entry.ResponseBody...)
	c.entries[k] = e
	return nil
}

func (c *MemoryIdempotencyCache) PurgeExpired(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	now := c.now()
	for k, e := range c.entries {
		if !e.ExpiresAt.After(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}
