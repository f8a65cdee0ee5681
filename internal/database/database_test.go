package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{"profiles", "wallets", "ledger_entries", "match_sessions", "match_participants", "match_invitations", "ratings"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "Querying for %s table should not produce an error", table)
		assert.Equal(t, table, name, "The '%s' table should be created", table)
	}
}

func TestInitDB_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smashclub.db")

	db, teardown, err := InitDB(path, "", "")
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO profiles (id, nickname, updated_at) VALUES ('u1', 'Lin', 0)`)
	require.NoError(t, err)
	teardown()

	db, teardown, err = InitDB(path, "", "")
	require.NoError(t, err, "re-running migrations on an existing file should be a no-op")
	defer teardown()

	var nickname string
	require.NoError(t, db.QueryRow(`SELECT nickname FROM profiles WHERE id = 'u1'`).Scan(&nickname))
	assert.Equal(t, "Lin", nickname)
}

func TestInitDB_WalletBalanceCannotGoNegative(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO wallets (user_id, points, feathers, updated_at) VALUES ('u1', -1, 0, 0)`)
	assert.Error(t, err, "the CHECK constraint should reject negative balances")
}
