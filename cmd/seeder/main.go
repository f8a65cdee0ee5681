package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/smashclub/internal/config"
	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/notifier"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/rating"
	"github.com/mauv0809/smashclub/internal/session"
	"github.com/spf13/cobra"
)

var numMatches int

var rootCmd = &cobra.Command{
	Use:   "smashclub-seeder",
	Short: "Seed a smashclub database with funded players and ranked matches",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		seed(numMatches)
	},
}

func init() {
	rootCmd.Flags().IntVar(&numMatches, "matches", 200, "Number of ranked matches to play between the seeded players")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seed(total int) {
	log.Info("Starting database seeder...")
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "smashclub.db"
	}

	db, teardown, err := database.InitDB(dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	cfg := config.Default()
	runner := database.NewTxRunner(db, cfg.Tx.MaxRetries, cfg.Tx.BaseDelay, nil)
	wallet := ledger.New(runner, nil)
	profiles := profile.New(db)
	ratings := rating.NewStore(db, cfg.Rating.Initial)
	calc := rating.NewCalculator(cfg.Rating.KFactor, cfg.Rating.Floor, cfg.Rating.Initial)
	events, closeEvents := pubsub.New("")
	defer closeEvents()
	sessions := session.New(runner, wallet, ratings, calc, profiles, metrics.NewMock(), events, notifier.Nop{})

	ctx := context.Background()

	// Create 4 dummy players to use in matches
	players := []profile.Profile{
		{ID: "player-1", Nickname: "Seeder Player A"},
		{ID: "player-2", Nickname: "Seeder Player B"},
		{ID: "player-3", Nickname: "Seeder Player C"},
		{ID: "player-4", Nickname: "Seeder Player D"},
	}
	for _, p := range players {
		if err := profiles.Upsert(ctx, p); err != nil {
			log.Fatalf("Failed to insert dummy player %s: %s", p.Nickname, err)
		}
		if _, err := wallet.Deposit(ctx, p.ID, ledger.Points, 10000, ledger.ReasonTopUp); err != nil {
			log.Fatalf("Failed to fund %s: %s", p.Nickname, err)
		}
		if _, err := wallet.Deposit(ctx, p.ID, ledger.Feathers, 500, ledger.ReasonTopUp); err != nil {
			log.Fatalf("Failed to fund %s: %s", p.Nickname, err)
		}
	}
	log.Info("Ensured dummy players exist and are funded.")

	log.Info("Preparing to play dummy matches...", "total", total)
	startTime := time.Now()
	for i := 0; i < total; i++ {
		if err := playMatch(ctx, sessions, players); err != nil {
			log.Fatalf("Failed to play match %d: %s", i+1, err)
		}
		if (i+1)%50 == 0 {
			log.Info("Played batch", "completed", i+1, "total", total)
		}
	}

	log.Info("Successfully seeded all dummy matches.", "duration", time.Since(startTime))
}

// playMatch runs one ranked doubles session between shuffled players.
func playMatch(ctx context.Context, sessions *session.Service, players []profile.Profile) error {
	order := rand.Perm(len(players))
	matchDate := time.Now().Add(-time.Duration(rand.Intn(365*24)) * time.Hour)

	sess, err := sessions.Create(ctx, players[order[0]].ID, session.Config{
		MatchType:          session.MensDoubles,
		EntryFeePoints:     10,
		WinnerPoints:       20,
		BetCurrency:        session.BetPoints,
		BetAmountPerPlayer: 25,
		IsRanked:           true,
		SessionDate:        &matchDate,
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	for _, idx := range order[1:] {
		if _, err := sessions.Join(ctx, sess.ID, players[idx].ID, session.JoinRequest{}); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}
	if _, err := sessions.Start(ctx, sess.ID, players[order[0]].ID); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	req := session.CompleteRequest{Result: session.Team1Win, Team1Score: 21, Team2Score: rand.Intn(20)}
	if rand.Intn(2) == 0 {
		req = session.CompleteRequest{Result: session.Team2Win, Team1Score: rand.Intn(20), Team2Score: 21}
	}
	if _, err := sessions.Complete(ctx, sess.ID, players[order[0]].ID, req); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	return nil
}
