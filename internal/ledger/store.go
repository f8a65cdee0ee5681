package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/database"
)

// New creates a new ledger Store. onInsufficientFunds may be nil.
func New(runner *database.TxRunner, onInsufficientFunds func()) *Store {
	return &Store{
		runner:              runner,
		now:                 time.Now,
		onInsufficientFunds: onInsufficientFunds,
	}
}

// WithClock replaces the store's time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func validateMovement(m Movement) error {
	if m.UserID == "" {
		return apperr.Validation("ledger movement requires a user")
	}
	if !m.Currency.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown currency %q", m.Currency))
	}
	if m.Amount < 0 {
		return apperr.Validation("amount must not be negative")
	}
	return nil
}

// Debit removes m.Amount from the user's balance. A zero amount writes nothing
// and returns a nil entry.
func (s *Store) Debit(ctx context.Context, tx *sql.Tx, m Movement) (*Entry, error) {
	if err := validateMovement(m); err != nil {
		return nil, err
	}
	if m.Amount == 0 {
		return nil, nil
	}
	now := s.now().Unix()
	if err := ensureWallet(ctx, tx, m.UserID, now); err != nil {
		return nil, err
	}

	col := m.Currency.column()
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET `+col+` = `+col+` - ?, updated_at = ? WHERE user_id = ? AND `+col+` >= ?`,
		m.Amount, now, m.UserID, m.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}
	if affected == 0 {
		if s.onInsufficientFunds != nil {
			s.onInsufficientFunds()
		}
		log.Info("Debit rejected, insufficient funds", "user_id", m.UserID, "currency", m.Currency, "amount", m.Amount, "reason", m.Reason)
		return nil, fmt.Errorf("debit %d %s: %w", m.Amount, m.Currency, apperr.ErrInsufficientFunds)
	}
	return s.record(ctx, tx, m, -m.Amount, now)
}

// Credit adds m.Amount to the user's balance. A zero amount writes nothing and
// returns a nil entry.
func (s *Store) Credit(ctx context.Context, tx *sql.Tx, m Movement) (*Entry, error) {
	if err := validateMovement(m); err != nil {
		return nil, err
	}
	if m.Amount == 0 {
		return nil, nil
	}
	now := s.now().Unix()
	if err := ensureWallet(ctx, tx, m.UserID, now); err != nil {
		return nil, err
	}

	col := m.Currency.column()
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET `+col+` = `+col+` + ?, updated_at = ? WHERE user_id = ?`,
		m.Amount, now, m.UserID); err != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return s.record(ctx, tx, m, m.Amount, now)
}

// Refund credits back every unrefunded debit recorded against sessionID.
func (s *Store) Refund(ctx context.Context, tx *sql.Tx, sessionID string, reason Reason) (int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, user_id, currency, delta
		FROM ledger_entries
		WHERE session_id = ? AND delta < 0 AND refunded_by IS NULL
		ORDER BY created_at, rowid
	`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to query refundable entries: %w", err)
	}
	var debits []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Currency, &e.Delta); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		debits = append(debits, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read refundable entries: %w", err)
	}

	if len(debits) == 0 {
		log.Info("Nothing left to refund for session", "session_id", sessionID)
		return 0, nil
	}

	for _, debit := range debits {
		refund, err := s.Credit(ctx, tx, Movement{
			UserID:    debit.UserID,
			Currency:  debit.Currency,
			Amount:    -debit.Delta,
			Reason:    reason,
			SessionID: sessionID,
		})
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE ledger_entries SET refunded_by = ? WHERE id = ?`, refund.ID, debit.ID); err != nil {
			return 0, fmt.Errorf("failed to mark entry refunded: %w", err)
		}
	}
	log.Info("Refunded session debits", "session_id", sessionID, "entries", len(debits))
	return len(debits), nil
}

// Deposit credits a user in its own transaction.
func (s *Store) Deposit(ctx context.Context, userID string, currency Currency, amount int64, reason Reason) (*Entry, error) {
	if amount <= 0 {
		return nil, apperr.Validation("deposit amount must be positive")
	}
	var entry *Entry
	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = s.Credit(ctx, tx, Movement{UserID: userID, Currency: currency, Amount: amount, Reason: reason})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Deposited to wallet", "user_id", userID, "currency", currency, "amount", amount, "reason", reason)
	return entry, nil
}

// Balance returns the user's wallet. Users without a wallet have zero balances.
func (s *Store) Balance(ctx context.Context, userID string) (Balance, error) {
	return balanceOf(ctx, s.runner.DB(), userID)
}

// History returns the most recent entries first.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.runner.DB().QueryContext(ctx, `
		SELECT id, user_id, currency, delta, balance_after, reason, session_id, refunded_by, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var sessionID, refundedBy sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Currency, &e.Delta, &e.BalanceAfter, &e.Reason, &sessionID, &refundedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.SessionID = sessionID.String
		e.RefundedBy = refundedBy.String
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func ensureWallet(ctx context.Context, tx *sql.Tx, userID string, now int64) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO wallets (user_id, points, feathers, updated_at) VALUES (?, 0, 0, ?)`, userID, now)
	if err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil
}

func balanceOf(ctx context.Context, q querier, userID string) (Balance, error) {
	b := Balance{UserID: userID}
	err := q.QueryRowContext(ctx, `SELECT points, feathers FROM wallets WHERE user_id = ?`, userID).Scan(&b.Points, &b.Feathers)
	if err == sql.ErrNoRows {
		return b, nil
	}
	if err != nil {
		return b, fmt.Errorf("failed to get balance: %w", err)
	}
	return b, nil
}

func (s *Store) record(ctx context.Context, tx *sql.Tx, m Movement, delta int64, now int64) (*Entry, error) {
	balance, err := balanceOf(ctx, tx, m.UserID)
	if err != nil {
		return nil, err
	}
	entry := &Entry{
		ID:           uuid.New().String(),
		UserID:       m.UserID,
		Currency:     m.Currency,
		Delta:        delta,
		BalanceAfter: balance.Of(m.Currency),
		Reason:       m.Reason,
		SessionID:    m.SessionID,
		CreatedAt:    time.Unix(now, 0),
	}
	var sessionID sql.NullString
	if m.SessionID != "" {
		sessionID = sql.NullString{String: m.SessionID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, currency, delta, balance_after, reason, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Currency, entry.Delta, entry.BalanceAfter, entry.Reason, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return entry, nil
}
