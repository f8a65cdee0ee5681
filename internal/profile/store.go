package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smashclub/internal/apperr"
)

// New creates a new ProfileStore.
func New(db *sql.DB) ProfileStore {
	return &store{
		db: db,
	}
}

// Upsert mirrors identity claims into the profiles table. Empty fields never
// overwrite values that are already stored.
func (s *store) Upsert(ctx context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, nickname, profile_image, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nickname = CASE WHEN excluded.nickname != '' THEN excluded.nickname ELSE profiles.nickname END,
			profile_image = CASE WHEN excluded.profile_image != '' THEN excluded.profile_image ELSE profiles.profile_image END,
			updated_at = excluded.updated_at
		WHERE excluded.nickname != profiles.nickname OR excluded.profile_image != profiles.profile_image;
	`, p.ID, p.Nickname, p.ProfileImage, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	log.Debug("Upserted profile", "user_id", p.ID)
	return nil
}

// Get returns a single profile.
func (s *store) Get(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Profile
	err := s.db.QueryRowContext(ctx, `SELECT id, nickname, profile_image FROM profiles WHERE id = ?`, userID).
		Scan(&p.ID, &p.Nickname, &p.ProfileImage)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// GetMany returns the profiles that exist for the given ids, in no particular order.
func (s *store) GetMany(ctx context.Context, userIDs []string) ([]Profile, error) {
	if len(userIDs) == 0 {
		return []Profile{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.Repeat("?,", len(userIDs)-1) + "?"
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, nickname, profile_image FROM profiles WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Nickname, &p.ProfileImage); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
