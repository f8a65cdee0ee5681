package profile

import "context"

// ProfileStore defines the interface for interacting with user profiles.
type ProfileStore interface {
	Upsert(ctx context.Context, p Profile) error
	Get(ctx context.Context, userID string) (*Profile, error)
	GetMany(ctx context.Context, userIDs []string) ([]Profile, error)
}
