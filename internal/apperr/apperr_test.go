package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKindSentinel(t *testing.T) {
	wrapped := fmt.Errorf("join session s1: %w", ErrSessionFull)

	assert.True(t, errors.Is(wrapped, ErrSessionFull))
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
	assert.False(t, errors.Is(wrapped, ErrAlreadyJoined), "coded errors of the same kind are distinct")
}

func TestKindAndCodeOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("x: %w", ErrExpired)))
	assert.Equal(t, "EXPIRED", CodeOf(fmt.Errorf("x: %w", ErrExpired)))

	assert.Equal(t, KindValidation, KindOf(Validation("bad password")))
	assert.Equal(t, "VALIDATION_ERROR", CodeOf(Validation("bad password")))

	assert.Equal(t, "TRANSIENT", CodeOf(ErrTransient))

	plain := errors.New("disk on fire")
	assert.Equal(t, KindInternal, KindOf(plain))
	assert.Equal(t, "INTERNAL", CodeOf(plain))
}
