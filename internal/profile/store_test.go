package profile_test

import (
	"context"
	"testing"

	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (profile.ProfileStore, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return profile.New(db), teardown
}

func TestUpsertAndGet(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, profile.Profile{ID: "u1", Nickname: "Lin", ProfileImage: "a.png"}))

	p, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Lin", p.Nickname)

	t.Run("empty fields keep stored values", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, profile.Profile{ID: "u1"}))
		p, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Lin", p.Nickname)
		assert.Equal(t, "a.png", p.ProfileImage)
	})

	t.Run("new values overwrite", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, profile.Profile{ID: "u1", Nickname: "Lin Dan"}))
		p, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Lin Dan", p.Nickname)
		assert.Equal(t, "a.png", p.ProfileImage)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := store.Get(ctx, "nobody")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestGetMany(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	for _, p := range []profile.Profile{{ID: "p1", Nickname: "One"}, {ID: "p2", Nickname: "Two"}, {ID: "p3", Nickname: "Three"}} {
		require.NoError(t, store.Upsert(ctx, p))
	}

	profiles, err := store.GetMany(ctx, []string{"p1", "p3", "p9"})
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	byID := make(map[string]profile.Profile)
	for _, p := range profiles {
		byID[p.ID] = p
	}
	assert.Equal(t, "One", byID["p1"].Nickname)
	assert.Equal(t, "Three", byID["p3"].Nickname)

	empty, err := store.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, empty, 0)
}
