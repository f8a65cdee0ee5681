package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	cfg := Config{
		DBName: getEnv("DB_NAME"),
		Port:   getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: os.Getenv("TURSO_PRIMARY_URL"),
			AuthToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("SUPABASE_JWT_SECRET"),
		},
		Slack: SlackConfig{
			Token:     os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID: os.Getenv("SLACK_CHANNEL_ID"),
		},
		ProjectID: os.Getenv("GCP_PROJECT"),
		Rating: RatingConfig{
			KFactor: floatEnv("RATING_K_FACTOR", 32),
			Floor:   intEnv("RATING_FLOOR", 0),
			Initial: intEnv("RATING_INITIAL", 1500),
		},
		Tx: TxConfig{
			MaxRetries: uint64(intEnv("TX_MAX_RETRIES", 5)),
			BaseDelay:  durationEnv("TX_BASE_DELAY", 25*time.Millisecond),
		},
		InvitationTTL: durationEnv("INVITATION_TTL", 24*time.Hour),
	}
	return cfg
}

// Default returns a Config with every optional value set to its default.
// Tests and the seeder start from this instead of the environment.
func Default() Config {
	return Config{
		Port:          "8080",
		Rating:        RatingConfig{KFactor: 32, Floor: 0, Initial: 1500},
		Tx:            TxConfig{MaxRetries: 5, BaseDelay: 25 * time.Millisecond},
		InvitationTTL: 24 * time.Hour,
	}
}

func intEnv(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		log.Fatalf("Error: environment variable %s must be a non-negative integer, got %q", key, value)
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		log.Fatalf("Error: environment variable %s must be a positive number, got %q", key, value)
	}
	return f
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Fatalf("Error: environment variable %s must be a positive duration, got %q", key, value)
	}
	return d
}
