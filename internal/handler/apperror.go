package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidDescription  = &AppError{http.StatusBadRequest, "INVALID_DESCRIPTION", "Description must be between 1 and 10 characters"}
	ErrInvalidValue        = &AppError{http.StatusBadRequest, "INVALID_VALUE", "Value must be a positive integer"}
	ErrInvalidKind         = &AppError{http.StatusBadRequest, "INVALID_KIND", "Kind must be c or d"}
	ErrOverLimit           = &AppError{http.StatusUnprocessableEntity, "OVER_LIMIT", "Transaction exceeds the overdraft limit"}
	ErrConflict            = &AppError{http.StatusConflict, "CONFLICT", "Account was modified concurrently, please retry"}
	ErrStorageUnavailable  = &AppError{http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage is temporarily unavailable"}
	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
