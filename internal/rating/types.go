package rating

import (
	"database/sql"
	"time"
)

// Record is a user's rating in one match type.
type Record struct {
	UserID      string    `json:"user_id"`
	MatchType   string    `json:"match_type"`
	Rating      int       `json:"rating"`
	PeakRating  int       `json:"peak_rating"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CountGame increments the game counters.
func (r *Record) CountGame(won bool) {
	r.GamesPlayed++
	if won {
		r.Wins++
	} else {
		r.Losses++
	}
}

// SetRating stores a new rating and raises the peak if needed.
func (r *Record) SetRating(value int) {
	r.Rating = value
	if value > r.PeakRating {
		r.PeakRating = value
	}
}

// LeaderboardEntry is a Record with the player's display name.
type LeaderboardEntry struct {
	Record
	Nickname      string  `json:"nickname"`
	WinPercentage float64 `json:"win_percentage"`
}

// store handles rating persistence.
type store struct {
	db      *sql.DB
	initial int
}
