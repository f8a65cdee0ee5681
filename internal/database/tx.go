package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"
	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/sethvargo/go-retry"
)

// TxRunner runs units of work in a single write transaction and retries them
// with bounded backoff when the database reports lock contention.
type TxRunner struct {
	db         *sql.DB
	maxRetries uint64
	baseDelay  time.Duration
	onRetry    func()
}

// NewTxRunner creates a TxRunner. onRetry may be nil.
func NewTxRunner(db *sql.DB, maxRetries uint64, baseDelay time.Duration, onRetry func()) *TxRunner {
	if baseDelay <= 0 {
		baseDelay = 25 * time.Millisecond
	}
	return &TxRunner{
		db:         db,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		onRetry:    onRetry,
	}
}

// DB returns the underlying pool for read-only queries.
func (r *TxRunner) DB() *sql.DB {
	return r.db
}

// Run executes fn inside a transaction. fn must do all of its reads and writes
// through tx. Business errors returned by fn roll the transaction back and are
// returned unchanged; lock contention is retried and, once retries run out,
// reported as apperr.ErrTransient.
func (r *TxRunner) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return r.run(ctx, fn, true)
}

// Read executes fn inside a transaction that is always rolled back, so every
// query fn makes sees the same snapshot.
func (r *TxRunner) Read(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return r.run(ctx, fn, false)
}

func (r *TxRunner) run(ctx context.Context, fn func(tx *sql.Tx) error, commit bool) error {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.WithJitterPercent(20, retry.NewExponential(r.baseDelay)))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 && r.onRetry != nil {
			r.onRetry()
		}
		err := r.runOnce(ctx, fn, commit)
		if err != nil && IsBusy(err) {
			log.Debug("Transaction hit lock contention, retrying", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil && IsBusy(err) {
		log.Warn("Transaction retries exhausted", "attempts", attempt, "error", err)
		return fmt.Errorf("%w: %v", apperr.ErrTransient, err)
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(tx *sql.Tx) error, commit bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsBusy reports whether err is a lock-contention error from SQLite or libSQL.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
