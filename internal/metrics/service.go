package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		SessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smashclub_match_sessions_created_total",
			Help: "The total number of match sessions created, by match type.",
		}, []string{"match_type"}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smashclub_match_session_transitions_total",
			Help: "The total number of match session status transitions, by target status.",
		}, []string{"status"}),
		ParticipantsJoined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smashclub_match_participants_joined_total",
			Help: "The total number of participants enrolled into sessions, by path (direct, invitation, creator).",
		}, []string{"via"}),
		InvitationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smashclub_invitation_actions_total",
			Help: "The total number of invitation actions applied, by action.",
		}, []string{"action"}),
		InsufficientFunds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smashclub_ledger_insufficient_funds_total",
			Help: "The total number of debits rejected for insufficient balance.",
		}),
		TxRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smashclub_db_transaction_retries_total",
			Help: "The total number of transaction retries caused by lock contention.",
		}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smashclub_session_events_received_total",
			Help: "The total number of session lifecycle events received over Pub/Sub push, by status.",
		}, []string{"status"}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smashclub_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smashclub_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smashclub_http_request_duration_seconds",
			Help:    "The duration of HTTP requests, by route and status code.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "status"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smashclub_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.SessionsCreated,
		s.SessionTransitions,
		s.ParticipantsJoined,
		s.InvitationActions,
		s.InsufficientFunds,
		s.TxRetries,
		s.EventsReceived,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.RequestDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncSessionsCreated(matchType string) {
	s.SessionsCreated.WithLabelValues(matchType).Inc()
}

func (s *Service) IncSessionTransition(status string) {
	s.SessionTransitions.WithLabelValues(status).Inc()
}

func (s *Service) IncParticipantsJoined(via string) {
	s.ParticipantsJoined.WithLabelValues(via).Inc()
}

func (s *Service) IncInvitationActions(action string) {
	s.InvitationActions.WithLabelValues(action).Inc()
}

func (s *Service) IncInsufficientFunds() {
	s.InsufficientFunds.Inc()
}

func (s *Service) IncTxRetries() {
	s.TxRetries.Inc()
}

func (s *Service) IncSessionEventsReceived(status string) {
	s.EventsReceived.WithLabelValues(status).Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) ObserveRequestDuration(route string, status int, duration float64) {
	s.RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
