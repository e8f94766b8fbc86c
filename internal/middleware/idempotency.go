package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/josh-kwaku/overdraft-ledger/internal/handler"
	"github.com/josh-kwaku/overdraft-ledger/internal/logging"
	"github.com/josh-kwaku/overdraft-ledger/internal/repository"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	replayedHeader       = "X-Idempotent-Replayed"
	maxIdempotencyKeyLen = 255
)

type idempotencyStore interface {
	Get(ctx context.Context, key, scope string) (*repository.IdempotencyCacheEntry, error)
	Set(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
}

// Idempotency replays the stored response when a request is retried with the
// same Idempotency-Key on the same path. Requests without the header pass
// through untouched. Retryable failures are not stored.
func Idempotency(store idempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		inflight = make(map[string]struct{})
	)
	claim := func(k string) bool {
		mu.Lock()
		defer mu.Unlock()
		if _, busy := inflight[k]; busy {
			return false
		}
		inflight[k] = struct{}{}
		return true
	}
	release := func(k string) {
		mu.Lock()
		delete(inflight, k)
		mu.Unlock()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				handler.RespondAppError(w, handler.ErrInvalidRequest)
				return
			}

			log := logging.FromContext(r.Context()).With("idempotency_key", key)
			scope := r.URL.Path

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, handler.MaxBodyBytes))
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, scope, body)

			inflightKey := scope + "\x00" + key
			if !claim(inflightKey) {
				handler.RespondAppError(w, handler.ErrConflict)
				return
			}
			defer release(inflightKey)

			cached, err := store.Get(r.Context(), key, scope)
			if err != nil {
				log.Error("idempotency cache lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError)
				return
			}

			if cached != nil {
				if cached.RequestHash != reqHash {
					handler.RespondAppError(w, handler.ErrIdempotencyConflict)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(replayedHeader, "true")
				w.WriteHeader(cached.StatusCode)
				if _, err := w.Write(cached.ResponseBody); err != nil {
					log.Error("failed to write idempotent replay", "error", err)
				}
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if !storable(rec.statusCode) {
				return
			}

			now := time.Now().UTC()
			entry := &repository.IdempotencyCacheEntry{
				Key:          key,
				Scope:        scope,
				RequestHash:  reqHash,
				StatusCode:   rec.statusCode,
				ResponseBody: rec.body.Bytes(),
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
			}
			if err := store.Set(r.Context(), entry); err != nil {
				log.Error("idempotency cache store failed", "error", err)
			}
		})
	}
}

// storable reports whether a response is final for its key. Server errors and
// concurrent-update conflicts ask the client to retry, so replaying them
// would pin the key to a transient failure.
func storable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusConflict
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
