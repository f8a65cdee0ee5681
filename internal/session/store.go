package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/database"
)

const sessionColumns = `id, match_type, status, entry_fee_points, entry_fee_feathers, winner_points,
	bet_currency_type, bet_amount_per_player, creation_cost_points, creation_cost_feathers, password,
	is_ranked, creator_id, session_date, result, team1_score, team2_score,
	created_at, updated_at, started_at, completed_at, cancelled_at`

const participantColumns = `id, session_id, user_id, team, entry_currency, entry_fee_points_paid,
	entry_fee_feathers_paid, bet_amount_paid, rating_before, rating_after, rating_change,
	points_earned, result_confirmed, joined_at`

// querier is satisfied by *sql.Tx and *sql.DB.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var s Session
	var password, result sql.NullString
	var sessionDate, createdAt, updatedAt int64
	var startedAt, completedAt, cancelledAt sql.NullInt64
	err := row.Scan(&s.ID, &s.MatchType, &s.Status, &s.EntryFeePoints, &s.EntryFeeFeathers, &s.WinnerPoints,
		&s.BetCurrency, &s.BetAmountPerPlayer, &s.CreationCostPoints, &s.CreationCostFeathers, &password,
		&s.IsRanked, &s.CreatorID, &sessionDate, &result, &s.Team1Score, &s.Team2Score,
		&createdAt, &updatedAt, &startedAt, &completedAt, &cancelledAt)
	if err != nil {
		return nil, err
	}
	s.Password = password.String
	s.Result = Result(result.String)
	s.SessionDate = time.Unix(sessionDate, 0)
	s.CreatedAt = time.Unix(createdAt, 0)
	s.UpdatedAt = time.Unix(updatedAt, 0)
	s.StartedAt = unixPtr(startedAt)
	s.CompletedAt = unixPtr(completedAt)
	s.CancelledAt = unixPtr(cancelledAt)
	return &s, nil
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func getSession(ctx context.Context, q querier, sessionID string) (*Session, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM match_sessions WHERE id = ?`, sessionID)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func insertSession(ctx context.Context, tx *sql.Tx, s *Session) error {
	var password sql.NullString
	if s.Password != "" {
		password = sql.NullString{String: s.Password, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO match_sessions (id, match_type, status, entry_fee_points, entry_fee_feathers, winner_points,
			bet_currency_type, bet_amount_per_player, creation_cost_points, creation_cost_feathers, password,
			is_ranked, creator_id, session_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.MatchType, s.Status, s.EntryFeePoints, s.EntryFeeFeathers, s.WinnerPoints,
		s.BetCurrency, s.BetAmountPerPlayer, s.CreationCostPoints, s.CreationCostFeathers, password,
		s.IsRanked, s.CreatorID, s.SessionDate.Unix(), s.CreatedAt.Unix(), s.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

var transitionColumn = map[Status]string{
	StatusInProgress: "started_at",
	StatusCompleted:  "completed_at",
	StatusCancelled:  "cancelled_at",
}

// transition moves s to status `to`. The UPDATE only matches while the row is
// still in the status s was read with, so a concurrent transition loses with
// ErrInvalidState.
func transition(ctx context.Context, tx *sql.Tx, s *Session, to Status, now time.Time) error {
	col, ok := transitionColumn[to]
	if !ok {
		return fmt.Errorf("no transition into %s", to)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE match_sessions SET status = ?, updated_at = ?, `+col+` = ? WHERE id = ? AND status = ?`,
		to, now.Unix(), now.Unix(), s.ID, s.Status)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if affected == 0 {
		return apperr.ErrInvalidState
	}

	s.Status = to
	s.UpdatedAt = now
	switch to {
	case StatusInProgress:
		s.StartedAt = &now
	case StatusCompleted:
		s.CompletedAt = &now
	case StatusCancelled:
		s.CancelledAt = &now
	}
	return nil
}

func recordResult(ctx context.Context, tx *sql.Tx, s *Session, req CompleteRequest) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE match_sessions SET result = ?, team1_score = ?, team2_score = ? WHERE id = ?`,
		req.Result, req.Team1Score, req.Team2Score, s.ID)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	s.Result = req.Result
	s.Team1Score = req.Team1Score
	s.Team2Score = req.Team2Score
	return nil
}

// loadSessionProfiles returns the profiles of a session's participants by user id.
func loadSessionProfiles(ctx context.Context, q querier, sessionID string) (map[string]PlayerProfile, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.nickname, p.profile_image
		FROM profiles p
		JOIN match_participants mp ON mp.user_id = p.id
		WHERE mp.session_id = ?
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant profiles: %w", err)
	}
	defer rows.Close()

	profiles := map[string]PlayerProfile{}
	for rows.Next() {
		var p PlayerProfile
		if err := rows.Scan(&p.ID, &p.Nickname, &p.ProfileImage); err != nil {
			return nil, fmt.Errorf("failed to scan participant profile: %w", err)
		}
		profiles[p.ID] = p
	}
	return profiles, rows.Err()
}

func loadParticipants(ctx context.Context, q querier, sessionID string) ([]Participant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+participantColumns+`
		FROM match_participants
		WHERE session_id = ?
		ORDER BY team, joined_at, rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := []Participant{}
	for rows.Next() {
		var p Participant
		var before, after, change sql.NullInt64
		var joinedAt int64
		if err := rows.Scan(&p.ID, &p.SessionID, &p.UserID, &p.Team, &p.EntryCurrency, &p.EntryFeePointsPaid,
			&p.EntryFeeFeathersPaid, &p.BetAmountPaid, &before, &after, &change,
			&p.PointsEarned, &p.ResultConfirmed, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.RatingBefore = intPtr(before)
		p.RatingAfter = intPtr(after)
		p.RatingChange = intPtr(change)
		p.JoinedAt = time.Unix(joinedAt, 0)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func insertParticipant(ctx context.Context, tx *sql.Tx, p *Participant) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO match_participants (id, session_id, user_id, team, entry_currency, entry_fee_points_paid,
			entry_fee_feathers_paid, bet_amount_paid, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.SessionID, p.UserID, p.Team, p.EntryCurrency, p.EntryFeePointsPaid,
		p.EntryFeeFeathersPaid, p.BetAmountPaid, p.JoinedAt.Unix())
	if database.IsUniqueViolation(err) {
		return apperr.ErrAlreadyJoined
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func updateParticipantOutcome(ctx context.Context, tx *sql.Tx, p *Participant) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE match_participants
		SET rating_before = ?, rating_after = ?, rating_change = ?, points_earned = ?, result_confirmed = ?
		WHERE id = ?
	`, nullInt(p.RatingBefore), nullInt(p.RatingAfter), nullInt(p.RatingChange), p.PointsEarned, p.ResultConfirmed, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return nil
}

// cancelPendingInvitations closes every outstanding invitation to a session.
func cancelPendingInvitations(ctx context.Context, tx *sql.Tx, sessionID string, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE match_invitations SET status = 'CANCELLED', responded_at = ? WHERE session_id = ? AND status = 'PENDING'`,
		now.UnixMilli(), sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel invitations: %w", err)
	}
	return res.RowsAffected()
}
