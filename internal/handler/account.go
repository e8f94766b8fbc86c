package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 4 << 10

type accountService interface {
	SubmitTransaction(ctx context.Context, accountID int64, req domain.TransactionRequest) (*domain.BalanceSnapshot, error)
	GetStatement(ctx context.Context, accountID int64) (*domain.Statement, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type transactionRequest struct {
	Value       int64  `json:"value"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

type balanceSnapshotDTO struct {
	Limit   int64 `json:"limit"`
	Balance int64 `json:"balance"`
}

type statementBalanceDTO struct {
	Total     int64     `json:"total"`
	Limit     int64     `json:"limit"`
	Timestamp time.Time `json:"timestamp"`
}

type transactionDTO struct {
	Value       int64     `json:"value"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type statementDTO struct {
	Balance          statementBalanceDTO `json:"balance"`
	LastTransactions []transactionDTO    `json:"lastTransactions"`
}

func toStatementDTO(s *domain.Statement) statementDTO {
	txs := make([]transactionDTO, 0, len(s.LastTransactions))
	for _, t := range s.LastTransactions {
		txs = append(txs, transactionDTO{
			Value:       t.Value,
			Kind:        string(t.Kind),
			Description: t.Description,
			Timestamp:   t.CreatedAt,
		})
	}
	return statementDTO{
		Balance: statementBalanceDTO{
			Total:     s.Balance,
			Limit:     s.Limit,
			Timestamp: s.GeneratedAt,
		},
		LastTransactions: txs,
	}
}

// accountIDFromPath treats an id that cannot name an account as unknown.
func accountIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *AccountHandler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound)
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	res, err := h.accounts.SubmitTransaction(r.Context(), id, domain.TransactionRequest{
		Value:       req.Value,
		Kind:        domain.TransactionKind(req.Kind),
		Description: req.Description,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, balanceSnapshotDTO{Limit: res.Limit, Balance: res.Balance})
}

func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound)
		return
	}

	st, err := h.accounts.GetStatement(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toStatementDTO(st))
}
