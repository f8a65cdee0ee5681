package auth

import "sync"

// Mock is a Verifier that treats the token itself as a user id lookup key.
// It is safe for concurrent use.
type Mock struct {
	mu         sync.Mutex
	identities map[string]*Identity
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{identities: make(map[string]*Identity)}
}

// Add registers token as a valid credential for identity.
func (m *Mock) Add(token string, identity Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[token] = &identity
}

func (m *Mock) Verify(token string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	copied := *identity
	return &copied, nil
}
