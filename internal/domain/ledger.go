package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TransactionKind is the wire code of a transaction: "c" for credit, "d" for debit.
type TransactionKind string

const (
	KindCredit TransactionKind = "c"
	KindDebit  TransactionKind = "d"
)

const MaxDescriptionLength = 10

func (k TransactionKind) IsValid() bool {
	return k == KindCredit || k == KindDebit
}

// Column values written to transactions.kind.
var kindToColumn = map[TransactionKind]string{
	KindCredit: "credit",
	KindDebit:  "debit",
}

var columnToKind = map[string]TransactionKind{
	"c":      KindCredit,
	"credit": KindCredit,
	"d":      KindDebit,
	"debit":  KindDebit,
}

// ColumnValue returns the stored representation of k.
func (k TransactionKind) ColumnValue() (string, error) {
	v, ok := kindToColumn[k]
	if !ok {
		return "", fmt.Errorf("ColumnValue: %q: %w", string(k), ErrInvalidKind)
	}
	return v, nil
}

// KindFromColumn parses a stored kind. Matching is case-insensitive and
// accepts both the short and the long form.
func KindFromColumn(s string) (TransactionKind, error) {
	k, ok := columnToKind[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("KindFromColumn: %q: %w", s, ErrUnknownKindCode)
	}
	return k, nil
}

type Transaction struct {
	Value       int64
	Kind        TransactionKind
	Description string
	CreatedAt   time.Time
}

type TransactionRequest struct {
	Value       int64
	Kind        TransactionKind
	Description string
}

func (r TransactionRequest) Validate() error {
	n := utf8.RuneCountInString(r.Description)
	if n == 0 || n > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	if r.Value <= 0 {
		return ErrInvalidValue
	}
	if !r.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}
