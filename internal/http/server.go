package http

import (
	"net/http"

	"github.com/mauv0809/smashclub/internal/auth"
	"github.com/mauv0809/smashclub/internal/config"
	"github.com/mauv0809/smashclub/internal/invitation"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/rating"
	"github.com/mauv0809/smashclub/internal/session"
)

func NewServer(
	sessions session.SessionService,
	invitations invitation.InvitationService,
	ledger ledger.Ledger,
	ratings rating.RatingStore,
	profiles profile.ProfileStore,
	verifier auth.Verifier,
	events pubsub.PubSubClient,
	metricsSvc metrics.Metrics,
	metricsHandler http.Handler,
	cfg config.Config,
) *Server {
	server := &Server{
		Sessions:       sessions,
		Invitations:    invitations,
		Ledger:         ledger,
		Ratings:        ratings,
		Profiles:       profiles,
		Verifier:       verifier,
		Events:         events,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// Everything except health and metrics requires a verified bearer token.
	public := func(h http.Handler) http.Handler {
		return Chain(h, paramsMiddleware, s.metricsMiddleware)
	}
	private := func(h http.Handler) http.Handler {
		return Chain(h, paramsMiddleware, s.metricsMiddleware, s.authMiddleware)
	}

	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", public(s.HealthCheckHandler()))
	s.Router.Handle("POST /pubsub/session-events", public(s.SessionEventPushHandler()))

	s.Router.Handle("POST /matches/sessions", private(s.CreateSessionHandler()))
	s.Router.Handle("GET /matches/sessions", private(s.ListSessionsHandler()))
	s.Router.Handle("GET /matches/sessions/{id}", private(s.GetSessionHandler()))
	s.Router.Handle("POST /matches/sessions/{id}/join", private(s.JoinSessionHandler()))
	s.Router.Handle("POST /matches/sessions/{id}/start", private(s.StartSessionHandler()))
	s.Router.Handle("POST /matches/sessions/{id}/complete", private(s.CompleteSessionHandler()))
	s.Router.Handle("POST /matches/sessions/{id}/cancel", private(s.CancelSessionHandler()))

	s.Router.Handle("GET /invitations", private(s.ListInvitationsHandler()))
	s.Router.Handle("POST /invitations", private(s.CreateInvitationHandler()))
	s.Router.Handle("PATCH /invitations/{id}", private(s.RespondInvitationHandler()))

	s.Router.Handle("GET /wallet", private(s.WalletHandler()))
	s.Router.Handle("GET /wallet/transactions", private(s.WalletTransactionsHandler()))

	s.Router.Handle("GET /ratings", private(s.LeaderboardHandler()))
	s.Router.Handle("GET /users/{id}/ratings", private(s.UserRatingsHandler()))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
