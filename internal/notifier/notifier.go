package notifier

import (
	"context"
	"time"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For newly opened sessions looking for players
	SendSessionOpened(ctx context.Context, summary SessionSummary) error
	// For completed matches
	SendMatchResult(ctx context.Context, summary SessionSummary) error
}

// Player is a participant as shown in announcements.
type Player struct {
	UserID   string
	Nickname string
	Team     int
	// RatingChange is nil for unranked matches.
	RatingChange *int
}

// SessionSummary carries what an announcement needs to know about a session.
type SessionSummary struct {
	SessionID        string
	MatchType        string
	SessionDate      time.Time
	IsRanked         bool
	EntryFeePoints   int64
	EntryFeeFeathers int64
	BetCurrency      string
	BetAmount        int64
	WinnerPoints     int64
	MaxPlayers       int
	Players          []Player
	Result           string
	WinningTeam      int
	Team1Score       int
	Team2Score       int
}

// TeamNames returns the display names of a team's players.
func (s SessionSummary) TeamNames(team int) []string {
	names := make([]string, 0, 2)
	for _, p := range s.Players {
		if p.Team != team {
			continue
		}
		name := p.Nickname
		if name == "" {
			name = "Unknown player"
		}
		names = append(names, name)
	}
	return names
}

// Nop drops every notification. Used when no provider is configured.
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) SendSessionOpened(ctx context.Context, summary SessionSummary) error { return nil }
func (Nop) SendMatchResult(ctx context.Context, summary SessionSummary) error   { return nil }
