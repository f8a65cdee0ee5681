package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncSessionsCreated(matchType string)
	IncSessionTransition(status string)
	IncParticipantsJoined(via string)
	IncInvitationActions(action string)
	IncInsufficientFunds()
	IncTxRetries()
	IncSessionEventsReceived(status string)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	ObserveRequestDuration(route string, status int, duration float64)
	SetStartupTime(duration float64)
}
