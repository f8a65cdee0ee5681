package ledger_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*ledger.Store, *database.TxRunner) {
	t.Helper()

	db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "ledger.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	runner := database.NewTxRunner(db, 5, time.Millisecond, nil)
	return ledger.New(runner, nil), runner
}

// sumOfEntries recomputes a balance from the entry log.
func sumOfEntries(t *testing.T, runner *database.TxRunner, userID string, currency ledger.Currency) int64 {
	t.Helper()
	var sum int64
	err := runner.DB().QueryRow(`SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE user_id = ? AND currency = ?`, userID, currency).Scan(&sum)
	require.NoError(t, err)
	return sum
}

func TestDepositAndDebit(t *testing.T) {
	store, runner := setupTestDB(t)
	ctx := context.Background()

	_, err := store.Deposit(ctx, "u1", ledger.Feathers, 100, ledger.ReasonTopUp)
	require.NoError(t, err)

	err = runner.Run(ctx, func(tx *sql.Tx) error {
		entry, err := store.Debit(ctx, tx, ledger.Movement{UserID: "u1", Currency: ledger.Feathers, Amount: 30, Reason: ledger.ReasonEntryFee, SessionID: "s1"})
		require.NoError(t, err)
		assert.Equal(t, int64(-30), entry.Delta)
		assert.Equal(t, int64(70), entry.BalanceAfter)
		return nil
	})
	require.NoError(t, err)

	balance, err := store.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance.Feathers)
	assert.Equal(t, int64(0), balance.Points)
	assert.Equal(t, balance.Feathers, sumOfEntries(t, runner, "u1", ledger.Feathers))
}

func TestDebit_InsufficientFundsLeavesNoTrace(t *testing.T) {
	store, runner := setupTestDB(t)
	ctx := context.Background()
	_, err := store.Deposit(ctx, "u1", ledger.Points, 10, ledger.ReasonTopUp)
	require.NoError(t, err)

	err = runner.Run(ctx, func(tx *sql.Tx) error {
		_, err := store.Debit(ctx, tx, ledger.Movement{UserID: "u1", Currency: ledger.Points, Amount: 11, Reason: ledger.ReasonEntryFee, SessionID: "s1"})
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	balance, err := store.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance.Points)

	history, err := store.History(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the deposit should be recorded")
}

func TestDebit_RollsBackWithCallerTransaction(t *testing.T) {
	store, runner := setupTestDB(t)
	ctx := context.Background()
	_, err := store.Deposit(ctx, "u1", ledger.Points, 100, ledger.ReasonTopUp)
	require.NoError(t, err)

	err = runner.Run(ctx, func(tx *sql.Tx) error {
		if _, err := store.Debit(ctx, tx, ledger.Movement{UserID: "u1", Currency: ledger.Points, Amount: 40, Reason: ledger.ReasonEntryFee, SessionID: "s1"}); err != nil {
			return err
		}
		return apperr.ErrSessionFull
	})
	assert.ErrorIs(t, err, apperr.ErrSessionFull)

	balance, err := store.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Points)
}

func TestMovementValidation(t *testing.T) {
	store, runner := setupTestDB(t)
	ctx := context.Background()

	err := runner.Run(ctx, func(tx *sql.Tx) error {
		_, err := store.Debit(ctx, tx, ledger.Movement{UserID: "u1", Currency: "GOLD", Amount: 1})
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = runner.Run(ctx, func(tx *sql.Tx) error {
		_, err := store.Credit(ctx, tx, ledger.Movement{UserID: "u1", Currency: ledger.Points, Amount: -5})
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = runner.Run(ctx, func(tx *sql.Tx) error {
		entry, err := store.Debit(ctx, tx, ledger.Movement{UserID: "u1", Currency: ledger.Points, Amount: 0})
		assert.Nil(t, entry, "zero amounts are no-ops")
		return err
	})
	assert.NoError(t, err)
}

func TestRefund_IsIdempotent(t *testing.T) {
	store, runner := setupTestDB(t)
	ctx := context.Background()
	_, err := store.Deposit(ctx, "creator", ledger.Feathers, 100, ledger.ReasonTopUp)
	require.NoError(t, err)
	_, err = store.Deposit(ctx, "joiner", ledger.Points, 50, ledger.ReasonTopUp)
	require.NoError(t, err)

	err = runner.Run(ctx, func(tx *sql.Tx) error {
		if _, err := store.Debit(ctx, tx, ledger.Movement{UserID: "creator", Currency: ledger.Feathers, Amount: 50, Reason: ledger.ReasonCreationCost, SessionID: "s1"}); err != nil {
			return err
		}
		if _, err := store.Debit(ctx, tx, ledger.Movement{UserID: "joiner", Currency: ledger.Points, Amount: 20, Reason: ledger.ReasonEntryFee, SessionID: "s1"}); err != nil {
			return err
		}
		// A debit for another session must be left alone.
		_, err := store.Debit(ctx, tx, ledger.Movement{UserID: "joiner", Currency: ledger.Points, Amount: 5, Reason: ledger.ReasonEntryFee, SessionID: "s2"})
		return err
	})
	require.NoError(t, err)

	var refunded int
	err = runner.Run(ctx, func(tx *sql.Tx) error {
		refunded, err = store.Refund(ctx, tx, "s1", ledger.ReasonRefund)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, refunded)

	err = runner.Run(ctx, func(tx *sql.Tx) error {
		refunded, err = store.Refund(ctx, tx, "s1", ledger.ReasonRefund)
		return err
	})
	require.NoError(t, err, "refunding twice is not an error")
	assert.Equal(t, 0, refunded)

	creator, err := store.Balance(ctx, "creator")
	require.NoError(t, err)
	assert.Equal(t, int64(100), creator.Feathers)

	joiner, err := store.Balance(ctx, "joiner")
	require.NoError(t, err)
	assert.Equal(t, int64(45), joiner.Points)
	assert.Equal(t, joiner.Points, sumOfEntries(t, runner, "joiner", ledger.Points))
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	store, runner := setupTestDB(t)
	ctx := context.Background()
	_, err := store.Deposit(ctx, "u1", ledger.Points, 100, ledger.ReasonTopUp)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.Run(ctx, func(tx *sql.Tx) error {
				_, err := store.Debit(ctx, tx, ledger.Movement{UserID: "u1", Currency: ledger.Points, Amount: 10, Reason: ledger.ReasonEntryFee})
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 5, rejected)

	balance, err := store.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Points)
	assert.Equal(t, int64(0), sumOfEntries(t, runner, "u1", ledger.Points))
}

func TestHistory_NewestFirst(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := store.Deposit(ctx, "u1", ledger.Points, 10, ledger.ReasonTopUp)
	require.NoError(t, err)
	_, err = store.Deposit(ctx, "u1", ledger.Points, 20, ledger.ReasonTopUp)
	require.NoError(t, err)

	history, err := store.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(20), history[0].Delta)
	assert.Equal(t, int64(30), history[0].BalanceAfter)
}

func TestDeposit_RejectsNonPositive(t *testing.T) {
	store, _ := setupTestDB(t)
	_, err := store.Deposit(context.Background(), "u1", ledger.Points, 0, ledger.ReasonTopUp)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
