package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// discard is used when no GCP project is configured.
type discard struct{}

// EventType represents the type of event/message sent via pubsub.
// It doubles as the topic name.
type EventType string

const (
	EventSessionCreated   EventType = "match-session-created"
	EventSessionJoined    EventType = "match-session-joined"
	EventSessionStarted   EventType = "match-session-started"
	EventSessionCompleted EventType = "match-session-completed"
	EventSessionCancelled EventType = "match-session-cancelled"
	EventInvitationSent   EventType = "match-invitation-sent"
	EventInvitationAnswer EventType = "match-invitation-answered"
)

// SessionEvent is the payload published for every session lifecycle change.
type SessionEvent struct {
	SessionID string `msgpack:"session_id"`
	MatchType string `msgpack:"match_type"`
	Status    string `msgpack:"status"`
	ActorID   string `msgpack:"actor_id"`
	Result    string `msgpack:"result,omitempty"`
	Team1     int    `msgpack:"team1_score,omitempty"`
	Team2     int    `msgpack:"team2_score,omitempty"`
	// OccurredAt is Unix seconds.
	OccurredAt int64 `msgpack:"occurred_at"`
}

// InvitationEvent is the payload published for invitation changes.
type InvitationEvent struct {
	InvitationID string `msgpack:"invitation_id"`
	SessionID    string `msgpack:"session_id"`
	InviterID    string `msgpack:"inviter_id"`
	InviteeID    string `msgpack:"invitee_id"`
	Status       string `msgpack:"status"`
	OccurredAt   int64  `msgpack:"occurred_at"`
}
