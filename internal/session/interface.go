package session

import "context"

// SessionService manages match sessions from creation to settlement.
type SessionService interface {
	Create(ctx context.Context, creatorID string, cfg Config) (*Session, error)
	Join(ctx context.Context, sessionID, userID string, req JoinRequest) (*Participant, error)
	Start(ctx context.Context, sessionID, requesterID string) (*Session, error)
	Complete(ctx context.Context, sessionID, requesterID string, req CompleteRequest) (*Session, error)
	Cancel(ctx context.Context, sessionID, requesterID string) (*Session, error)

	Get(ctx context.Context, sessionID, currentUserID string) (*View, error)
	List(ctx context.Context, filter ListFilter) ([]Session, error)
}
