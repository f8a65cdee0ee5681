package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/notifier"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/rating"
	"github.com/mauv0809/smashclub/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_MatchesFlag(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{"--matches", "3"}))
	assert.Equal(t, 3, numMatches)

	flag := rootCmd.Flags().Lookup("matches")
	require.NotNil(t, flag)
	assert.Equal(t, "200", flag.DefValue)
}

func TestPlayMatch(t *testing.T) {
	db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "seed.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	ctx := context.Background()
	runner := database.NewTxRunner(db, 5, time.Millisecond, nil)
	wallet := ledger.New(runner, nil)
	ratings := rating.NewStore(db, 1500)
	sessions := session.New(runner, wallet, ratings, rating.NewCalculator(32, 0, 1500),
		profile.New(db), metrics.NewMock(), pubsub.NewMock("TEST"), notifier.Nop{})

	players := []profile.Profile{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	for _, p := range players {
		_, err := wallet.Deposit(ctx, p.ID, ledger.Points, 1000, ledger.ReasonTopUp)
		require.NoError(t, err)
	}

	require.NoError(t, playMatch(ctx, sessions, players))
	require.NoError(t, playMatch(ctx, sessions, players))

	var total int64
	for _, p := range players {
		records, err := ratings.ForUser(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, string(session.MensDoubles), records[0].MatchType)
		assert.Equal(t, 2, records[0].GamesPlayed)

		balance, err := wallet.Balance(ctx, p.ID)
		require.NoError(t, err)
		total += balance.Points
	}
	// Fees leave the pool, bets move between players and winners get 20 each.
	assert.Equal(t, int64(4000-2*30+2*2*20), total)
}
