package rating

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// NewStore creates a RatingStore. initial is the rating of users without a record.
func NewStore(db *sql.DB, initial int) RatingStore {
	return &store{db: db, initial: initial}
}

func (s *store) Get(ctx context.Context, tx *sql.Tx, userID, matchType string) (Record, error) {
	rec := Record{UserID: userID, MatchType: matchType, Rating: s.initial, PeakRating: s.initial}
	var updatedAt int64
	err := tx.QueryRowContext(ctx, `
		SELECT rating, peak_rating, games_played, wins, losses, updated_at
		FROM ratings WHERE user_id = ? AND match_type = ?
	`, userID, matchType).Scan(&rec.Rating, &rec.PeakRating, &rec.GamesPlayed, &rec.Wins, &rec.Losses, &updatedAt)
	if err == sql.ErrNoRows {
		return rec, nil
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get rating: %w", err)
	}
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return rec, nil
}

func (s *store) Save(ctx context.Context, tx *sql.Tx, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ratings (user_id, match_type, rating, peak_rating, games_played, wins, losses, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, match_type) DO UPDATE SET
			rating = excluded.rating,
			peak_rating = excluded.peak_rating,
			games_played = excluded.games_played,
			wins = excluded.wins,
			losses = excluded.losses,
			updated_at = excluded.updated_at;
	`, rec.UserID, rec.MatchType, rec.Rating, rec.PeakRating, rec.GamesPlayed, rec.Wins, rec.Losses, rec.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

func (s *store) ForUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, match_type, rating, peak_rating, games_played, wins, losses, updated_at
		FROM ratings WHERE user_id = ?
		ORDER BY match_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var updatedAt int64
		if err := rows.Scan(&rec.UserID, &rec.MatchType, &rec.Rating, &rec.PeakRating, &rec.GamesPlayed, &rec.Wins, &rec.Losses, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Leaderboard returns the top rated players of a match type.
func (s *store) Leaderboard(ctx context.Context, matchType string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.user_id, r.match_type, r.rating, r.peak_rating, r.games_played, r.wins, r.losses, r.updated_at,
			COALESCE(p.nickname, '')
		FROM ratings r
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.match_type = ? AND r.games_played > 0
		ORDER BY r.rating DESC, r.wins DESC, r.user_id
		LIMIT ?
	`, matchType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		var updatedAt int64
		if err := rows.Scan(&e.UserID, &e.MatchType, &e.Rating, &e.PeakRating, &e.GamesPlayed, &e.Wins, &e.Losses, &updatedAt, &e.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.UpdatedAt = time.Unix(updatedAt, 0)
		if e.GamesPlayed > 0 {
			e.WinPercentage = float64(e.Wins) / float64(e.GamesPlayed) * 100
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
