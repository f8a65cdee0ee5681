package invitation

import (
	"time"

	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/pubsub"
)

// Status represents the status of an invitation
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// Action is a response to an invitation.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

var actionStatus = map[Action]Status{
	ActionAccept:  StatusAccepted,
	ActionDecline: StatusDeclined,
	ActionCancel:  StatusCancelled,
}

// Invitation represents a user's invitation into a match session
type Invitation struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	InviterID string `json:"inviter_id"`
	InviteeID string `json:"invitee_id"`
	// Team is 1 or 2, or 0 to balance the teams when the invitee accepts.
	Team        int        `json:"team"`
	Status      Status     `json:"status"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	// Expired is computed when the invitation is read.
	Expired bool `json:"expired"`
}

// CreateRequest is the body of a new invitation.
type CreateRequest struct {
	SessionID string `json:"sessionId"`
	InviteeID string `json:"inviteeId"`
	Team      int    `json:"team"`
	Message   string `json:"message"`
}

// RespondRequest is an action on an invitation. Currency is only used on accept.
type RespondRequest struct {
	Action   Action          `json:"action"`
	Currency ledger.Currency `json:"entryCurrency,omitempty"`
}

// ListType selects which side of an invitation a user is on.
type ListType string

const (
	Received ListType = "received"
	Sent     ListType = "sent"
)

// ListFilter narrows List. An empty Type means Received, an empty Status any.
type ListFilter struct {
	Type   ListType
	Status Status
}

const maxMessageLength = 500

// Service implements InvitationService.
type Service struct {
	runner  *database.TxRunner
	roster  Roster
	ttl     time.Duration
	metrics metrics.Metrics
	events  pubsub.PubSubClient
	now     func() time.Time
}
