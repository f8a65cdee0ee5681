package notifier

import (
	"context"
	"sync"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendSessionOpenedFunc func(summary SessionSummary) error
	SendMatchResultFunc   func(summary SessionSummary) error

	// Call records
	SendSessionOpenedCalls []SessionSummary
	SendMatchResultCalls   []SessionSummary
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendSessionOpenedCalls = nil
	m.SendMatchResultCalls = nil
}

func (m *Mock) SendSessionOpened(ctx context.Context, summary SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendSessionOpenedCalls = append(m.SendSessionOpenedCalls, summary)
	if m.SendSessionOpenedFunc != nil {
		return m.SendSessionOpenedFunc(summary)
	}
	return nil
}

func (m *Mock) SendMatchResult(ctx context.Context, summary SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, summary)
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(summary)
	}
	return nil
}

// MatchResults returns a copy of the recorded SendMatchResult calls.
func (m *Mock) MatchResults() []SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SessionSummary(nil), m.SendMatchResultCalls...)
}

// SessionsOpened returns a copy of the recorded SendSessionOpened calls.
func (m *Mock) SessionsOpened() []SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SessionSummary(nil), m.SendSessionOpenedCalls...)
}
