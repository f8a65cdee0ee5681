package profile

import (
	"database/sql"
	"sync"
)

// store handles all database operations for user profiles.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Profile is the minimal public user profile shown next to participants.
type Profile struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image"`
}
