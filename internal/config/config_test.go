package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_UsesDefaultsForOptionalKeys(t *testing.T) {
	t.Setenv("DB_NAME", "test.db")
	t.Setenv("PORT", "9090")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")

	cfg := Load()

	assert.Equal(t, "test.db", cfg.DBName)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 32.0, cfg.Rating.KFactor)
	assert.Equal(t, 1500, cfg.Rating.Initial)
	assert.Equal(t, uint64(5), cfg.Tx.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.InvitationTTL)
	assert.False(t, cfg.Slack.Enabled())
}

func TestLoad_OverridesOptionalKeys(t *testing.T) {
	t.Setenv("DB_NAME", "test.db")
	t.Setenv("PORT", "9090")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("RATING_K_FACTOR", "24")
	t.Setenv("RATING_FLOOR", "100")
	t.Setenv("INVITATION_TTL", "2h")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("SLACK_CHANNEL_ID", "C1")

	cfg := Load()

	assert.Equal(t, 24.0, cfg.Rating.KFactor)
	assert.Equal(t, 100, cfg.Rating.Floor)
	assert.Equal(t, 2*time.Hour, cfg.InvitationTTL)
	assert.True(t, cfg.Slack.Enabled())
}
