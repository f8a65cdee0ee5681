package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Get builds the read model of a session for currentUserID. It never mutates.
func (s *Service) Get(ctx context.Context, sessionID, currentUserID string) (*View, error) {
	var sess *Session
	var participants []Participant
	var profiles map[string]PlayerProfile
	err := s.runner.Read(ctx, func(tx *sql.Tx) error {
		var err error
		if sess, err = getSession(ctx, tx, sessionID); err != nil {
			return err
		}
		if participants, err = loadParticipants(ctx, tx, sessionID); err != nil {
			return err
		}
		profiles, err = loadSessionProfiles(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	view := &View{
		Session:            *sess,
		HasPassword:        sess.Password != "",
		MaxPlayers:         sess.MatchType.MaxPlayers(),
		AcceptedCurrencies: sess.AcceptedCurrencies(),
		Participants:       make([]ParticipantView, 0, len(participants)),
		Teams: Teams{
			Team1: []ParticipantView{},
			Team2: []ParticipantView{},
		},
		CurrentUserID: currentUserID,
		IsCreator:     currentUserID != "" && sess.CreatorID == currentUserID,
	}
	for _, p := range participants {
		profile, ok := profiles[p.UserID]
		if !ok {
			profile = PlayerProfile{ID: p.UserID}
		}
		pv := ParticipantView{Participant: p, Profile: profile}
		view.Participants = append(view.Participants, pv)
		if p.Team == 1 {
			view.Teams.Team1 = append(view.Teams.Team1, pv)
		} else {
			view.Teams.Team2 = append(view.Teams.Team2, pv)
		}
		if p.UserID == currentUserID {
			view.IsParticipant = true
		}
	}
	return view, nil
}

// List returns sessions newest session date first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Session, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.MatchType != "" {
		where = append(where, "match_type = ?")
		args = append(args, filter.MatchType)
	}
	query := `SELECT ` + sessionColumns + ` FROM match_sessions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY session_date DESC, created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.runner.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func (s *Service) loadProfiles(ctx context.Context, userIDs []string) (map[string]PlayerProfile, error) {
	found, err := s.profiles.GetMany(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]PlayerProfile, len(found))
	for _, p := range found {
		profiles[p.ID] = PlayerProfile{ID: p.ID, Nickname: p.Nickname, ProfileImage: p.ProfileImage}
	}
	return profiles, nil
}
