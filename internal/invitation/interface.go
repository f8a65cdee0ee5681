package invitation

import (
	"context"
	"database/sql"

	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/session"
)

// InvitationService handles invitations to pending match sessions.
type InvitationService interface {
	// Create invites a user into a session the inviter is playing in.
	Create(ctx context.Context, inviterID string, req CreateRequest) (*Invitation, error)

	// Respond applies accept, decline or cancel. Accepting seats the invitee.
	Respond(ctx context.Context, invitationID, actorID string, req RespondRequest) (*Invitation, error)

	// Get retrieves an invitation by ID
	Get(ctx context.Context, invitationID string) (*Invitation, error)

	// List returns the invitations a user received or sent, newest first.
	List(ctx context.Context, userID string, filter ListFilter) ([]Invitation, error)
}

// Roster defines the session operation required to accept an invitation.
// This keeps the invitation package decoupled from the session service.
type Roster interface {
	// Enroll seats userID in a pending session inside tx, charging its fees.
	Enroll(ctx context.Context, tx *sql.Tx, sessionID, userID string, team int, currency ledger.Currency) (*session.Participant, error)
}
