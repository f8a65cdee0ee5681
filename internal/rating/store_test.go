package rating_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (rating.RatingStore, *sql.DB) {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)
	return rating.NewStore(db, 1500), db
}

func TestGet_DefaultsToInitialRating(t *testing.T) {
	store, db := setupTestDB(t)
	ctx := context.Background()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	rec, err := store.Get(ctx, tx, "u1", "MS")
	require.NoError(t, err)
	assert.Equal(t, 1500, rec.Rating)
	assert.Equal(t, 1500, rec.PeakRating)
	assert.Equal(t, 0, rec.GamesPlayed)
}

func TestSave_KeepsMatchTypesIndependent(t *testing.T) {
	store, db := setupTestDB(t)
	ctx := context.Background()

	tx, err := db.Begin()
	require.NoError(t, err)
	rec, err := store.Get(ctx, tx, "u1", "MS")
	require.NoError(t, err)
	rec.CountGame(true)
	rec.SetRating(1516)
	require.NoError(t, store.Save(ctx, tx, rec))
	require.NoError(t, tx.Commit())

	records, err := store.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "MS", records[0].MatchType)
	assert.Equal(t, 1516, records[0].Rating)
	assert.Equal(t, 1516, records[0].PeakRating)
	assert.Equal(t, 1, records[0].Wins)

	tx, err = db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	md, err := store.Get(ctx, tx, "u1", "MD")
	require.NoError(t, err)
	assert.Equal(t, 1500, md.Rating, "an MS result must not touch MD")
}

func TestRecord_PeakOnlyRises(t *testing.T) {
	rec := rating.Record{Rating: 1500, PeakRating: 1520}
	rec.SetRating(1490)
	assert.Equal(t, 1490, rec.Rating)
	assert.Equal(t, 1520, rec.PeakRating)
	rec.SetRating(1530)
	assert.Equal(t, 1530, rec.PeakRating)
}

func TestLeaderboard(t *testing.T) {
	store, db := setupTestDB(t)
	ctx := context.Background()
	_, err := db.Exec(`INSERT INTO profiles (id, nickname, updated_at) VALUES ('u1', 'Lin', 0), ('u2', 'Lee', 0)`)
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	for _, r := range []rating.Record{
		{UserID: "u1", MatchType: "MS", Rating: 1516, PeakRating: 1516, GamesPlayed: 1, Wins: 1},
		{UserID: "u2", MatchType: "MS", Rating: 1484, PeakRating: 1500, GamesPlayed: 2, Wins: 1, Losses: 1},
		{UserID: "u3", MatchType: "MD", Rating: 1600, PeakRating: 1600, GamesPlayed: 1, Wins: 1},
	} {
		require.NoError(t, store.Save(ctx, tx, r))
	}
	require.NoError(t, tx.Commit())

	board, err := store.Leaderboard(ctx, "MS", 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "Lin", board[0].Nickname)
	assert.Equal(t, 1516, board[0].Rating)
	assert.Equal(t, "Lee", board[1].Nickname)
	assert.InDelta(t, 50.0, board[1].WinPercentage, 0.001)
}

func TestSave_StampsUpdatedAt(t *testing.T) {
	store, db := setupTestDB(t)
	ctx := context.Background()
	at := time.Unix(1750000000, 0)

	tx, err := db.Begin()
	require.NoError(t, err)
	rec, err := store.Get(ctx, tx, "u1", "WS")
	require.NoError(t, err)
	rec.CountGame(false)
	rec.UpdatedAt = at
	require.NoError(t, store.Save(ctx, tx, rec))

	unstamped, err := store.Get(ctx, tx, "u2", "WS")
	require.NoError(t, err)
	unstamped.CountGame(true)
	require.NoError(t, store.Save(ctx, tx, unstamped))
	require.NoError(t, tx.Commit())

	records, err := store.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, at.Equal(records[0].UpdatedAt), "got %s", records[0].UpdatedAt)

	records, err = store.ForUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.WithinDuration(t, time.Now(), records[0].UpdatedAt, time.Minute)
}
