package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
	"github.com/josh-kwaku/overdraft-ledger/internal/service"
	"github.com/josh-kwaku/overdraft-ledger/internal/store"
)

var testClock = time.Date(2024, 1, 17, 2, 34, 38, 0, time.UTC)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	st := store.NewMemoryStore(store.WithClock(func() time.Time { return testClock }))
	_, err := st.Provision(context.Background(), 1, 1000, 0)
	require.NoError(t, err)

	h := NewAccountHandler(service.NewAccountService(st, nil, 5))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /accounts/{id}/transactions", h.SubmitTransaction)
	mux.HandleFunc("GET /accounts/{id}/statement", h.Statement)
	return mux
}

func postTransaction(t *testing.T, mux http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestSubmitTransaction(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
		wantBody   string
	}{
		{
			name:       "debit within limit",
			path:       "/accounts/1/transactions",
			body:       `{"value":1000,"kind":"d","description":"rent"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"limit":1000,"balance":-1000}`,
		},
		{
			name:       "credit",
			path:       "/accounts/1/transactions",
			body:       `{"value":15,"kind":"c","description":"salary"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"limit":1000,"balance":15}`,
		},
		{
			name:       "over limit",
			path:       "/accounts/1/transactions",
			body:       `{"value":1001,"kind":"d","description":"car"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "OVER_LIMIT",
		},
		{
			name:       "unknown account",
			path:       "/accounts/6/transactions",
			body:       `{"value":1,"kind":"c","description":"x"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
		{
			name:       "non numeric id",
			path:       "/accounts/abc/transactions",
			body:       `{"value":1,"kind":"c","description":"x"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
		{
			name:       "description too long",
			path:       "/accounts/1/transactions",
			body:       `{"value":1,"kind":"c","description":"12345678901"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DESCRIPTION",
		},
		{
			name:       "missing description",
			path:       "/accounts/1/transactions",
			body:       `{"value":1,"kind":"c"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DESCRIPTION",
		},
		{
			name:       "zero value",
			path:       "/accounts/1/transactions",
			body:       `{"value":0,"kind":"c","description":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_VALUE",
		},
		{
			name:       "fractional value",
			path:       "/accounts/1/transactions",
			body:       `{"value":1.5,"kind":"c","description":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "unknown kind",
			path:       "/accounts/1/transactions",
			body:       `{"value":1,"kind":"x","description":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_KIND",
		},
		{
			name:       "malformed json",
			path:       "/accounts/1/transactions",
			body:       `{"value":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postTransaction(t, newTestMux(t), tc.path, tc.body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantCode != "" {
				apiErr := decodeError(t, rec)
				assert.Equal(t, tc.wantCode, apiErr.Code)
				assert.NotContains(t, rec.Body.String(), "balance")
			}
		})
	}
}

func TestStatement(t *testing.T) {
	mux := newTestMux(t)

	for i := range 7 {
		body := fmt.Sprintf(`{"value":%d,"kind":"c","description":"t%d"}`, i+1, i+1)
		rec := postTransaction(t, mux, "/accounts/1/transactions", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/accounts/1/statement", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got statementDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(28), got.Balance.Total)
	assert.Equal(t, int64(1000), got.Balance.Limit)
	require.Len(t, got.LastTransactions, 5)

	for i, tx := range got.LastTransactions {
		assert.Equal(t, int64(7-i), tx.Value)
		assert.Equal(t, "c", tx.Kind)
		assert.Equal(t, fmt.Sprintf("t%d", 7-i), tx.Description)
		assert.True(t, testClock.Equal(tx.Timestamp))
	}
}

func TestStatement_EmptyHistory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts/1/statement", nil)
	rec := httptest.NewRecorder()
	newTestMux(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lastTransactions":[]`)
}

func TestStatement_UnknownAccount(t *testing.T) {
	for _, path := range []string{"/accounts/6/statement", "/accounts/0/statement", "/accounts/-1/statement"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		newTestMux(t).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "RESOURCE_NOT_FOUND", decodeError(t, rec).Code)
	}
}

func TestAppErrorFor(t *testing.T) {
	tests := []struct {
		err  error
		want *AppError
	}{
		{fmt.Errorf("Find: %w", domain.ErrNotFound), ErrResourceNotFound},
		{domain.ErrInvalidDescription, ErrInvalidDescription},
		{domain.ErrInvalidValue, ErrInvalidValue},
		{domain.ErrInvalidKind, ErrInvalidKind},
		{domain.ErrOverLimit, ErrOverLimit},
		{fmt.Errorf("GetForUpdate: %w: %w", domain.ErrConflict, errors.New("pq: deadlock")), ErrConflict},
		{domain.ErrStorageUnavailable, ErrStorageUnavailable},
		{domain.ErrUnknownKindCode, ErrInternalError},
		{errors.New("boom"), ErrInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, AppErrorFor(tc.err))
		})
	}
}
