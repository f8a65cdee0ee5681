package auth

// Verifier validates access tokens issued by the identity provider.
type Verifier interface {
	// Verify validates a token and returns the caller's identity.
	Verify(token string) (*Identity, error)
}
