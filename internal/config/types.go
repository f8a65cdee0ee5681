package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName    string
	Port      string
	Turso     TursoConfig
	Auth      AuthConfig
	Slack     SlackConfig
	ProjectID string
	Rating    RatingConfig
	Tx        TxConfig
	// InvitationTTL is how long a match invitation stays actionable.
	InvitationTTL time.Duration
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type AuthConfig struct {
	JWTSecret string
}
type SlackConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether match results should be posted to Slack.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

type RatingConfig struct {
	KFactor float64
	Floor   int
	Initial int
}
type TxConfig struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}
