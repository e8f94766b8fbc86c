package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/overdraft-ledger/internal/domain"
)

type errorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondAppError(w http.ResponseWriter, appErr *AppError) {
	RespondJSON(w, appErr.Status, errorResponse{
		Error: APIError{Code: appErr.Code, Message: appErr.Message},
	})
}

// AppErrorFor maps a domain error to the response it is reported as.
func AppErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	case errors.Is(err, domain.ErrInvalidDescription):
		return ErrInvalidDescription
	case errors.Is(err, domain.ErrInvalidValue):
		return ErrInvalidValue
	case errors.Is(err, domain.ErrInvalidKind):
		return ErrInvalidKind
	case errors.Is(err, domain.ErrOverLimit):
		return ErrOverLimit
	case errors.Is(err, domain.ErrConflict):
		return ErrConflict
	case errors.Is(err, domain.ErrStorageUnavailable):
		return ErrStorageUnavailable
	default:
		return ErrInternalError
	}
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr := AppErrorFor(err)
	if appErr == ErrInternalError {
		slog.Error("unhandled domain error", "error", err)
	}
	RespondAppError(w, appErr)
}
