package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smashclub/internal/auth"
	"github.com/mauv0809/smashclub/internal/config"
	"github.com/mauv0809/smashclub/internal/database"
	server "github.com/mauv0809/smashclub/internal/http"
	"github.com/mauv0809/smashclub/internal/invitation"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/notifier"
	"github.com/mauv0809/smashclub/internal/notifier/slack"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/rating"
	"github.com/mauv0809/smashclub/internal/session"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	runner := database.NewTxRunner(db, cfg.Tx.MaxRetries, cfg.Tx.BaseDelay, metricsSvc.IncTxRetries)
	ledgerStore := ledger.New(runner, metricsSvc.IncInsufficientFunds)
	ratingStore := rating.NewStore(db, cfg.Rating.Initial)
	calculator := rating.NewCalculator(cfg.Rating.KFactor, cfg.Rating.Floor, cfg.Rating.Initial)
	profileStore := profile.New(db)

	events, closeEvents := pubsub.New(cfg.ProjectID)
	defer closeEvents()

	var matchNotifier notifier.Notifier = notifier.Nop{}
	if cfg.Slack.Enabled() {
		matchNotifier = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	} else {
		log.Info("Slack is not configured, match notifications are disabled")
	}

	sessionService := session.New(runner, ledgerStore, ratingStore, calculator, profileStore, metricsSvc, events, matchNotifier)
	invitationService := invitation.New(runner, sessionService, cfg.InvitationTTL, metricsSvc, events)

	s := server.NewServer(
		sessionService,
		invitationService,
		ledgerStore,
		ratingStore,
		profileStore,
		auth.NewJWTVerifier(cfg.Auth.JWTSecret),
		events,
		metricsSvc,
		metricsHandler,
		cfg,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
