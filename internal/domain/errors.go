package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInitialBalance = errors.New("initial balance below overdraft limit")
	ErrInvalidLimit          = errors.New("limit must not be negative")
	ErrInvalidDescription    = errors.New("description must be between 1 and 10 characters")
	ErrInvalidValue          = errors.New("value must be a positive integer")
	ErrInvalidKind           = errors.New("kind must be c or d")
	ErrOverLimit             = errors.New("transaction exceeds overdraft limit")
	ErrConflict              = errors.New("concurrent update conflict")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrUnknownKindCode       = errors.New("unknown stored transaction kind")
)
