package invitation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mauv0809/smashclub/internal/apperr"
)

const invitationColumns = `id, session_id, inviter_id, invitee_id, team, status, message, created_at, expires_at, responded_at`

// querier is satisfied by *sql.Tx and *sql.DB.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row scanner) (*Invitation, error) {
	var inv Invitation
	var createdAt, expiresAt int64
	var respondedAt sql.NullInt64
	if err := row.Scan(&inv.ID, &inv.SessionID, &inv.InviterID, &inv.InviteeID, &inv.Team, &inv.Status,
		&inv.Message, &createdAt, &expiresAt, &respondedAt); err != nil {
		return nil, err
	}
	inv.CreatedAt = time.UnixMilli(createdAt)
	inv.ExpiresAt = time.UnixMilli(expiresAt)
	if respondedAt.Valid {
		t := time.UnixMilli(respondedAt.Int64)
		inv.RespondedAt = &t
	}
	return &inv, nil
}

func getInvitation(ctx context.Context, q querier, invitationID string) (*Invitation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM match_invitations WHERE id = ?`, invitationID)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

func isParticipant(ctx context.Context, tx *sql.Tx, sessionID, userID string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_participants WHERE session_id = ? AND user_id = ?`, sessionID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return n > 0, nil
}
