package rating

import (
	"context"
	"database/sql"
)

// RatingStore persists per-user, per-match-type ratings.
type RatingStore interface {
	// Get returns the user's record for matchType inside tx. Users without a
	// record start at the initial rating.
	Get(ctx context.Context, tx *sql.Tx, userID, matchType string) (Record, error)
	// Save upserts rec. A zero UpdatedAt is stamped with the current time.
	Save(ctx context.Context, tx *sql.Tx, rec Record) error
	ForUser(ctx context.Context, userID string) ([]Record, error)
	Leaderboard(ctx context.Context, matchType string, limit int) ([]LeaderboardEntry, error)
}
