package session

import (
	"errors"
	"testing"

	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchTypeRosterSize(t *testing.T) {
	assert.Equal(t, 2, MensSingles.MaxPlayers())
	assert.Equal(t, 2, WomensSingles.MaxPlayers())
	assert.Equal(t, 4, MensDoubles.MaxPlayers())
	assert.Equal(t, 4, WomensDoubles.MaxPlayers())
	assert.Equal(t, 4, MixedDoubles.MaxPlayers())
	assert.False(t, MatchType("XS").Valid())
}

func TestResultWinningTeam(t *testing.T) {
	assert.Equal(t, 1, Team1Win.WinningTeam())
	assert.Equal(t, 1, Player1Win.WinningTeam())
	assert.Equal(t, 2, Team2Win.WinningTeam())
	assert.Equal(t, 2, Player2Win.WinningTeam())
	assert.Equal(t, 0, Result("DRAW").WinningTeam())
	assert.True(t, Player2Win.IsPlayerResult())
	assert.False(t, Team2Win.IsPlayerResult())
}

func TestResolveCurrency(t *testing.T) {
	both := &Session{EntryFeePoints: 10, EntryFeeFeathers: 5}
	c, err := both.resolveCurrency("")
	require.NoError(t, err)
	assert.Equal(t, ledger.Points, c)
	c, err = both.resolveCurrency(ledger.Feathers)
	require.NoError(t, err)
	assert.Equal(t, ledger.Feathers, c)

	feathersOnly := &Session{EntryFeeFeathers: 5}
	c, err = feathersOnly.resolveCurrency("")
	require.NoError(t, err)
	assert.Equal(t, ledger.Feathers, c)
	_, err = feathersOnly.resolveCurrency(ledger.Points)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = both.resolveCurrency("GOLD")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	free := &Session{}
	assert.Equal(t, []ledger.Currency{ledger.Points, ledger.Feathers}, free.AcceptedCurrencies())
}

func TestConfigValidateDefaultsBetCurrency(t *testing.T) {
	cfg := Config{MatchType: MensSingles, Password: "000123"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BetNone, cfg.BetCurrency)
}
