package store

import (
	"database/sql"
	"fmt"
)

// adjustBalanceTx applies delta to a user's points balance. It is the
// only code path that writes points_balance, and it only accepts a
// *sql.Tx: every adjustment commits together with the chore or
// redemption state change that caused it.
//
// It does not clamp at zero. Callers guarantee non-negativity by
// re-checking the balance inside the same transaction before debiting.
func adjustBalanceTx(tx *sql.Tx, userID int64, delta int) error {
	res, err := tx.Exec(
		`UPDATE users SET points_balance = points_balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		delta, userID,
	)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance rows: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("adjust balance: user %d not found", userID)
	}
	return nil
}

// balanceTx reads the user's current balance within the transaction.
func balanceTx(tx *sql.Tx, userID int64) (int, error) {
	var balance int
	err := tx.QueryRow(`SELECT points_balance FROM users WHERE id = ?`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}
