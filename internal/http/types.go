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

type Server struct {
	Sessions       session.SessionService
	Invitations    invitation.InvitationService
	Ledger         ledger.Ledger
	Ratings        rating.RatingStore
	Profiles       profile.ProfileStore
	Verifier       auth.Verifier
	Events         pubsub.PubSubClient
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// pushEnvelope is the body Pub/Sub push subscriptions deliver.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
}
