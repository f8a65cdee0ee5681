package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	sessionsCreated    map[string]int
	transitions        map[string]int
	participantsJoined map[string]int
	invitationActions  map[string]int
	insufficientFunds  int
	txRetries          int
	eventsReceived     map[string]int
	slackNotifSent     int
	slackNotifFailed   int
	requestDurations   []float64
	startupTime        float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		sessionsCreated:    make(map[string]int),
		transitions:        make(map[string]int),
		participantsJoined: make(map[string]int),
		invitationActions:  make(map[string]int),
		eventsReceived:     make(map[string]int),
	}
}

func (m *Mock) IncSessionsCreated(matchType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCreated[matchType]++
}

func (m *Mock) IncSessionTransition(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[status]++
}

func (m *Mock) IncParticipantsJoined(via string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participantsJoined[via]++
}

func (m *Mock) IncInvitationActions(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitationActions[action]++
}

func (m *Mock) IncInsufficientFunds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insufficientFunds++
}

func (m *Mock) IncTxRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txRetries++
}

func (m *Mock) IncSessionEventsReceived(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsReceived[status]++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) ObserveRequestDuration(route string, status int, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestDurations = append(m.requestDurations, duration)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Getters for assertions

func (m *Mock) SessionsCreated(matchType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsCreated[matchType]
}

func (m *Mock) Transitions(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions[status]
}

func (m *Mock) ParticipantsJoined(via string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.participantsJoined[via]
}

func (m *Mock) InvitationActions(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invitationActions[action]
}

func (m *Mock) InsufficientFunds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insufficientFunds
}

func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

func (m *Mock) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requestDurations)
}

func (m *Mock) SessionEventsReceived(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsReceived[status]
}
