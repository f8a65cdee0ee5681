package invitation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/pubsub"
)

var _ InvitationService = (*Service)(nil)

// New creates an invitation Service. Invitations expire ttl after creation.
func New(runner *database.TxRunner, roster Roster, ttl time.Duration, metrics metrics.Metrics, events pubsub.PubSubClient) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		runner:  runner,
		roster:  roster,
		ttl:     ttl,
		metrics: metrics,
		events:  events,
		now:     time.Now,
	}
}

// WithClock replaces the service's time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, inviterID string, req CreateRequest) (*Invitation, error) {
	if inviterID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if req.SessionID == "" || req.InviteeID == "" {
		return nil, apperr.Validation("sessionId and inviteeId are required")
	}
	if req.InviteeID == inviterID {
		return nil, apperr.Validation("you cannot invite yourself")
	}
	if req.Team < 0 || req.Team > 2 {
		return nil, apperr.Validation("team must be 0, 1 or 2")
	}
	if len(req.Message) > maxMessageLength {
		return nil, apperr.Validation(fmt.Sprintf("message must be at most %d characters", maxMessageLength))
	}

	now := s.now().Truncate(time.Millisecond)
	inv := &Invitation{
		ID:        uuid.New().String(),
		SessionID: req.SessionID,
		InviterID: inviterID,
		InviteeID: req.InviteeID,
		Team:      req.Team,
		Status:    StatusPending,
		Message:   req.Message,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM match_sessions WHERE id = ?`, req.SessionID).Scan(&status)
		if err == sql.ErrNoRows {
			return apperr.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		inviterSeated, err := isParticipant(ctx, tx, req.SessionID, inviterID)
		if err != nil {
			return err
		}
		if !inviterSeated {
			return apperr.ErrNotParticipant
		}
		inviteeSeated, err := isParticipant(ctx, tx, req.SessionID, req.InviteeID)
		if err != nil {
			return err
		}
		if inviteeSeated {
			return apperr.ErrAlreadyParticipant
		}
		if status != "PENDING" {
			return apperr.ErrInvalidState
		}

		var outstanding int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM match_invitations
			WHERE session_id = ? AND inviter_id = ? AND invitee_id = ? AND status = 'PENDING' AND expires_at >= ?
		`, req.SessionID, inviterID, req.InviteeID, now.UnixMilli()).Scan(&outstanding); err != nil {
			return fmt.Errorf("failed to check for duplicate invitations: %w", err)
		}
		if outstanding > 0 {
			return apperr.ErrDuplicateInvitation
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO match_invitations (id, session_id, inviter_id, invitee_id, team, status, message, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, inv.ID, inv.SessionID, inv.InviterID, inv.InviteeID, inv.Team, inv.Status, inv.Message, inv.CreatedAt.UnixMilli(), inv.ExpiresAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Info("Invitation rejected", "session_id", req.SessionID, "inviter_id", inviterID, "invitee_id", req.InviteeID, "error", err)
		return nil, err
	}

	log.Info("Created invitation", "invitation_id", inv.ID, "session_id", inv.SessionID, "invitee_id", inv.InviteeID)
	s.metrics.IncInvitationActions("create")
	s.publish(ctx, pubsub.EventInvitationSent, inv)
	return inv, nil
}

// Respond applies an action to a pending invitation. The actor is checked
// first, then expiry, then status.
func (s *Service) Respond(ctx context.Context, invitationID, actorID string, req RespondRequest) (*Invitation, error) {
	next, ok := actionStatus[req.Action]
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("unknown action %q, expected accept, decline or cancel", req.Action))
	}

	var inv *Invitation
	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		var err error
		inv, err = getInvitation(ctx, tx, invitationID)
		if err != nil {
			return err
		}
		switch req.Action {
		case ActionAccept, ActionDecline:
			if inv.InviteeID != actorID {
				return apperr.ErrNotInvitee
			}
		case ActionCancel:
			if inv.InviterID != actorID {
				return apperr.ErrNotInviter
			}
		}

		now := s.now().Truncate(time.Millisecond)
		if now.After(inv.ExpiresAt) {
			return apperr.ErrExpired
		}
		if inv.Status != StatusPending {
			return apperr.ErrInvalidTransition
		}

		if req.Action == ActionAccept {
			if _, err := s.roster.Enroll(ctx, tx, inv.SessionID, inv.InviteeID, inv.Team, req.Currency); err != nil {
				if errors.Is(err, apperr.ErrAlreadyJoined) {
					return apperr.ErrAlreadyParticipant
				}
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE match_invitations SET status = ?, responded_at = ? WHERE id = ? AND status = 'PENDING'`,
			next, now.UnixMilli(), inv.ID)
		if err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}
		if affected == 0 {
			return apperr.ErrInvalidTransition
		}
		inv.Status = next
		inv.RespondedAt = &now
		return nil
	})
	if err != nil {
		log.Info("Invitation response rejected", "invitation_id", invitationID, "actor_id", actorID, "action", req.Action, "error", err)
		return nil, err
	}

	log.Info("Invitation answered", "invitation_id", inv.ID, "session_id", inv.SessionID, "status", inv.Status)
	s.metrics.IncInvitationActions(string(req.Action))
	if req.Action == ActionAccept {
		s.metrics.IncParticipantsJoined("invitation")
	}
	s.publish(ctx, pubsub.EventInvitationAnswer, inv)
	return inv, nil
}

func (s *Service) Get(ctx context.Context, invitationID string) (*Invitation, error) {
	inv, err := getInvitation(ctx, s.runner.DB(), invitationID)
	if err != nil {
		return nil, err
	}
	inv.Expired = inv.Status == StatusPending && s.now().Truncate(time.Millisecond).After(inv.ExpiresAt)
	return inv, nil
}

func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Invitation, error) {
	column := "invitee_id"
	switch filter.Type {
	case "", Received:
	case Sent:
		column = "inviter_id"
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown invitation type %q, expected received or sent", filter.Type))
	}
	if filter.Status != "" && !filter.Status.valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown invitation status %q", filter.Status))
	}

	query := `SELECT ` + invitationColumns + ` FROM match_invitations WHERE ` + column + ` = ?`
	args := []any{userID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.runner.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer rows.Close()

	now := s.now().Truncate(time.Millisecond)
	invitations := []Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		inv.Expired = inv.Status == StatusPending && now.After(inv.ExpiresAt)
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

func (s *Service) publish(ctx context.Context, topic pubsub.EventType, inv *Invitation) {
	event := pubsub.InvitationEvent{
		InvitationID: inv.ID,
		SessionID:    inv.SessionID,
		InviterID:    inv.InviterID,
		InviteeID:    inv.InviteeID,
		Status:       string(inv.Status),
		OccurredAt:   s.now().Unix(),
	}
	if err := s.events.SendMessage(ctx, topic, event); err != nil {
		log.Error("Failed to publish invitation event", "topic", topic, "invitation_id", inv.ID, "error", err)
	}
}
