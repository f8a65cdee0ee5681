package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/mauv0809/smashclub/internal/database"
)

// Currency is one of the two wallet balances.
type Currency string

const (
	Points   Currency = "POINTS"
	Feathers Currency = "FEATHERS"
)

// Valid reports whether c names a known currency.
func (c Currency) Valid() bool {
	return c == Points || c == Feathers
}

// column maps a currency to its wallets column. Never built from user input.
func (c Currency) column() string {
	if c == Feathers {
		return "feathers"
	}
	return "points"
}

// Reason explains why a balance moved.
type Reason string

const (
	ReasonCreationCost Reason = "CREATION_COST"
	ReasonEntryFee     Reason = "ENTRY_FEE"
	ReasonBetEscrow    Reason = "BET_ESCROW"
	ReasonRefund       Reason = "REFUND"
	ReasonBetPayout    Reason = "BET_PAYOUT"
	ReasonWinnerBonus  Reason = "WINNER_BONUS"
	ReasonTopUp        Reason = "TOP_UP"
)

// Entry is one movement of a user's balance.
type Entry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Currency     Currency  `json:"currency"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balance_after"`
	Reason       Reason    `json:"reason"`
	SessionID    string    `json:"session_id,omitempty"`
	RefundedBy   string    `json:"refunded_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Movement is a requested debit or credit. Amount is always positive.
type Movement struct {
	UserID    string
	Currency  Currency
	Amount    int64
	Reason    Reason
	SessionID string
}

// Balance is a user's current wallet.
type Balance struct {
	UserID   string `json:"user_id"`
	Points   int64  `json:"points"`
	Feathers int64  `json:"feathers"`
}

// Of returns the balance of a single currency.
func (b Balance) Of(c Currency) int64 {
	if c == Feathers {
		return b.Feathers
	}
	return b.Points
}

// Store implements Ledger on top of the wallets and ledger_entries tables.
type Store struct {
	runner *database.TxRunner
	now    func() time.Time
	// onInsufficientFunds is called for every debit rejected for lack of balance.
	onInsufficientFunds func()
}

var _ Ledger = (*Store)(nil)

// querier is satisfied by *sql.Tx and *sql.DB.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
