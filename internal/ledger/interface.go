package ledger

import (
	"context"
	"database/sql"
)

// Ledger moves points and feathers between users and the house. Every
// mutating method takes the caller's transaction so balance changes commit or
// roll back together with the operation that triggered them.
type Ledger interface {
	// Debit removes Amount from the user's balance. It fails with
	// apperr.ErrInsufficientFunds if the balance would go negative.
	Debit(ctx context.Context, tx *sql.Tx, m Movement) (*Entry, error)
	// Credit adds Amount to the user's balance.
	Credit(ctx context.Context, tx *sql.Tx, m Movement) (*Entry, error)
	// Refund reverses every debit tied to sessionID that has not been
	// refunded yet and returns how many debits were reversed. Calling it
	// again is a no-op.
	Refund(ctx context.Context, tx *sql.Tx, sessionID string, reason Reason) (int, error)

	// Deposit credits a user outside of any session, in its own transaction.
	Deposit(ctx context.Context, userID string, currency Currency, amount int64, reason Reason) (*Entry, error)
	Balance(ctx context.Context, userID string) (Balance, error)
	History(ctx context.Context, userID string, limit int) ([]Entry, error)
}
