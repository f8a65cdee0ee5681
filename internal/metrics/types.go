package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	SessionsCreated    *prometheus.CounterVec
	SessionTransitions *prometheus.CounterVec
	ParticipantsJoined *prometheus.CounterVec
	InvitationActions  *prometheus.CounterVec
	InsufficientFunds  prometheus.Counter
	TxRetries          prometheus.Counter
	EventsReceived     *prometheus.CounterVec
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
	StartupTimeSeconds prometheus.Gauge
}
