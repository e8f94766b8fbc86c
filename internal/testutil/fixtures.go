package testutil

import (
	"database/sql"
	"testing"
)

func SeedAccount(t *testing.T, db *sql.DB, id, limit, balance int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO accounts (id, "limit", balance) VALUES ($1, $2, $3)`,
		id, limit, balance,
	)
	if err != nil {
		t.Fatalf("seed account %d: %v", id, err)
	}
}

func GetAccountBalance(t *testing.T, db *sql.DB, id int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %d: %v", id, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, accountID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for account %d: %v", accountID, err)
	}
	return count
}

// InsertRawTransaction writes a row bypassing the repository, for tests that
// need legacy or corrupt kind codes.
func InsertRawTransaction(t *testing.T, db *sql.DB, accountID, value int64, kind, description string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO transactions (account_id, value, kind, description, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		accountID, value, kind, description,
	)
	if err != nil {
		t.Fatalf("insert raw transaction for account %d: %v", accountID, err)
	}
}
