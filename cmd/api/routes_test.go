package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/overdraft-ledger/internal/handler"
	"github.com/josh-kwaku/overdraft-ledger/internal/metrics"
	"github.com/josh-kwaku/overdraft-ledger/internal/middleware"
	"github.com/josh-kwaku/overdraft-ledger/internal/repository"
	"github.com/josh-kwaku/overdraft-ledger/internal/seed"
	"github.com/josh-kwaku/overdraft-ledger/internal/service"
	"github.com/josh-kwaku/overdraft-ledger/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewBreaker(store.NewMemoryStore(), store.BreakerConfig{Name: "memory"})
	_, err := seed.Apply(context.Background(), st, seed.Defaults())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New("ledger")
	require.NoError(t, m.Register(reg))

	svc := service.NewAccountService(st, m, 5)
	srv := httptest.NewServer(newRouter(routerDeps{
		accounts:    handler.NewAccountHandler(svc),
		health:      handler.NewHealthHandler(svc, "test"),
		idempotency: middleware.Idempotency(repository.NewMemoryIdempotencyCache(), time.Hour),
		metrics:     m,
		gatherer:    reg,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_SeededAccountsAndStatement(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/accounts/1/transactions", `{"value":100000,"kind":"d","description":"all in"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var snap struct {
		Limit   int64 `json:"limit"`
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(100000), snap.Limit)
	assert.Equal(t, int64(-100000), snap.Balance)

	resp = post(t, srv, "/accounts/1/transactions", `{"value":1,"kind":"d","description":"one more"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = get(t, srv, "/accounts/1/statement")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st struct {
		Balance struct {
			Total int64 `json:"total"`
			Limit int64 `json:"limit"`
		} `json:"balance"`
		LastTransactions []struct {
			Value int64  `json:"value"`
			Kind  string `json:"kind"`
		} `json:"lastTransactions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, int64(-100000), st.Balance.Total)
	require.Len(t, st.LastTransactions, 1)
	assert.Equal(t, "d", st.LastTransactions[0].Kind)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/accounts/6/statement").StatusCode)
}

func TestRouter_IdempotentRetry(t *testing.T) {
	srv := newTestServer(t)
	h := http.Header{"Idempotency-Key": []string{"retry-1"}}

	first := post(t, srv, "/accounts/2/transactions", `{"value":10,"kind":"c","description":"tip"}`, h)
	require.Equal(t, http.StatusOK, first.StatusCode)
	second := post(t, srv, "/accounts/2/transactions", `{"value":10,"kind":"c","description":"tip"}`, h)
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("X-Idempotent-Replayed"))

	conflict := post(t, srv, "/accounts/2/transactions", `{"value":11,"kind":"c","description":"tip"}`, h)
	assert.Equal(t, http.StatusConflict, conflict.StatusCode)

	resp := get(t, srv, "/accounts/2/statement")
	var st struct {
		Balance struct {
			Total int64 `json:"total"`
		} `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, int64(10), st.Balance.Total, "retry must not apply twice")
}

func TestRouter_ConcurrentClients(t *testing.T) {
	srv := newTestServer(t)

	var g errgroup.Group
	for range 50 {
		g.Go(func() error {
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/accounts/3/transactions",
				strings.NewReader(`{"value":2,"kind":"c","description":"x"}`))
			if err != nil {
				return err
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		})
	}
	require.NoError(t, g.Wait())

	resp := get(t, srv, "/accounts/3/statement")
	var st struct {
		Balance struct {
			Total int64 `json:"total"`
		} `json:"balance"`
		LastTransactions []json.RawMessage `json:"lastTransactions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, int64(100), st.Balance.Total)
	assert.Len(t, st.LastTransactions, 5)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(t, srv, "/health/live").StatusCode)
	assert.Equal(t, http.StatusOK, get(t, srv, "/health/ready").StatusCode)

	post(t, srv, "/accounts/4/transactions", `{"value":1,"kind":"c","description":"x"}`, nil)

	resp := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sb strings.Builder
	_, err := io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `ledger_transactions_total{kind="c",outcome="applied"} 1`)
	assert.Contains(t, sb.String(), `route="POST /accounts/{id}/transactions"`)
}
