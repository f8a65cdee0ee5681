package session

import (
	"fmt"
	"regexp"
	"time"

	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/notifier"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/rating"
)

// MatchType is the badminton discipline played in a session.
type MatchType string

const (
	MensSingles   MatchType = "MS"
	WomensSingles MatchType = "WS"
	MensDoubles   MatchType = "MD"
	WomensDoubles MatchType = "WD"
	MixedDoubles  MatchType = "XD"
)

// Valid reports whether m is a known match type.
func (m MatchType) Valid() bool {
	switch m {
	case MensSingles, WomensSingles, MensDoubles, WomensDoubles, MixedDoubles:
		return true
	}
	return false
}

// IsSingles reports whether m is played one against one.
func (m MatchType) IsSingles() bool {
	return m == MensSingles || m == WomensSingles
}

// MaxPerTeam is the number of players on each side.
func (m MatchType) MaxPerTeam() int {
	if m.IsSingles() {
		return 1
	}
	return 2
}

// MaxPlayers is the full roster size.
func (m MatchType) MaxPlayers() int {
	return 2 * m.MaxPerTeam()
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// BetCurrency selects the currency of a session's bet, if any.
type BetCurrency string

const (
	BetNone     BetCurrency = "NONE"
	BetPoints   BetCurrency = "POINTS"
	BetFeathers BetCurrency = "FEATHERS"
)

// Currency returns the ledger currency of the bet. BetNone has none.
func (b BetCurrency) Currency() ledger.Currency {
	switch b {
	case BetPoints:
		return ledger.Points
	case BetFeathers:
		return ledger.Feathers
	}
	return ""
}

// Result is the reported outcome of a match.
type Result string

const (
	Team1Win   Result = "TEAM1_WIN"
	Team2Win   Result = "TEAM2_WIN"
	Player1Win Result = "PLAYER1_WIN"
	Player2Win Result = "PLAYER2_WIN"
)

// WinningTeam returns 1 or 2, or 0 for an unknown result.
func (r Result) WinningTeam() int {
	switch r {
	case Team1Win, Player1Win:
		return 1
	case Team2Win, Player2Win:
		return 2
	}
	return 0
}

// IsPlayerResult reports whether r names a singles player rather than a team.
func (r Result) IsPlayerResult() bool {
	return r == Player1Win || r == Player2Win
}

// Session is a single match from creation to completion or cancellation.
type Session struct {
	ID                   string      `json:"id"`
	MatchType            MatchType   `json:"match_type"`
	Status               Status      `json:"status"`
	EntryFeePoints       int64       `json:"entry_fee_points"`
	EntryFeeFeathers     int64       `json:"entry_fee_feathers"`
	WinnerPoints         int64       `json:"winner_points"`
	BetCurrency          BetCurrency `json:"bet_currency_type"`
	BetAmountPerPlayer   int64       `json:"bet_amount_per_player"`
	CreationCostPoints   int64       `json:"creation_cost_points"`
	CreationCostFeathers int64       `json:"creation_cost_feathers"`
	Password             string      `json:"-"`
	IsRanked             bool        `json:"is_ranked"`
	CreatorID            string      `json:"creator_id"`
	SessionDate          time.Time   `json:"session_date"`
	Result               Result      `json:"result,omitempty"`
	Team1Score           int         `json:"team1_score"`
	Team2Score           int         `json:"team2_score"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
	StartedAt            *time.Time  `json:"started_at,omitempty"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty"`
	CancelledAt          *time.Time  `json:"cancelled_at,omitempty"`
}

// BettingEnabled reports whether joining escrows a bet.
func (s *Session) BettingEnabled() bool {
	return s.BetCurrency != BetNone && s.BetAmountPerPlayer > 0
}

// EntryFee returns the fee payable in c.
func (s *Session) EntryFee(c ledger.Currency) int64 {
	if c == ledger.Feathers {
		return s.EntryFeeFeathers
	}
	return s.EntryFeePoints
}

// AcceptedCurrencies lists the currencies the entry fee can be paid in. A free
// session accepts both.
func (s *Session) AcceptedCurrencies() []ledger.Currency {
	var accepted []ledger.Currency
	if s.EntryFeePoints > 0 {
		accepted = append(accepted, ledger.Points)
	}
	if s.EntryFeeFeathers > 0 {
		accepted = append(accepted, ledger.Feathers)
	}
	if len(accepted) == 0 {
		return []ledger.Currency{ledger.Points, ledger.Feathers}
	}
	return accepted
}

// resolveCurrency picks the entry currency for a join. An empty choice takes
// the first accepted currency.
func (s *Session) resolveCurrency(choice ledger.Currency) (ledger.Currency, error) {
	accepted := s.AcceptedCurrencies()
	if choice == "" {
		return accepted[0], nil
	}
	if !choice.Valid() {
		return "", apperr.Validation(fmt.Sprintf("unknown entry currency %q", choice))
	}
	for _, c := range accepted {
		if c == choice {
			return c, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("entry fee cannot be paid in %s", choice))
}

// Participant is a user enrolled in a session.
type Participant struct {
	ID                   string          `json:"id"`
	SessionID            string          `json:"session_id"`
	UserID               string          `json:"user_id"`
	Team                 int             `json:"team"`
	EntryCurrency        ledger.Currency `json:"entry_currency"`
	EntryFeePointsPaid   int64           `json:"entry_fee_points_paid"`
	EntryFeeFeathersPaid int64           `json:"entry_fee_feathers_paid"`
	BetAmountPaid        int64           `json:"bet_amount_paid"`
	RatingBefore         *int            `json:"rating_before"`
	RatingAfter          *int            `json:"rating_after"`
	RatingChange         *int            `json:"rating_change"`
	PointsEarned         int64           `json:"points_earned"`
	ResultConfirmed      bool            `json:"result_confirmed"`
	JoinedAt             time.Time       `json:"joined_at"`
}

// Config is what a creator chooses for a new session.
type Config struct {
	MatchType            MatchType   `json:"matchType"`
	EntryFeePoints       int64       `json:"entryFeePoints"`
	EntryFeeFeathers     int64       `json:"entryFeeFeathers"`
	WinnerPoints         int64       `json:"winnerPoints"`
	BetCurrency          BetCurrency `json:"betCurrencyType"`
	BetAmountPerPlayer   int64       `json:"betAmountPerPlayer"`
	CreationCostPoints   int64       `json:"creationCostPoints"`
	CreationCostFeathers int64       `json:"creationCostFeathers"`
	Password             string      `json:"password,omitempty"`
	IsRanked             bool        `json:"isRanked"`
	// SessionDate defaults to the creation time.
	SessionDate *time.Time `json:"sessionDate,omitempty"`
}

var passwordPattern = regexp.MustCompile(`^[0-9]{6}$`)

// Validate checks the config and normalises an empty bet currency to NONE.
func (c *Config) Validate() error {
	if !c.MatchType.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown match type %q", c.MatchType))
	}
	if c.EntryFeePoints < 0 || c.EntryFeeFeathers < 0 || c.WinnerPoints < 0 ||
		c.BetAmountPerPlayer < 0 || c.CreationCostPoints < 0 || c.CreationCostFeathers < 0 {
		return apperr.Validation("amounts must not be negative")
	}
	if c.CreationCostPoints > 0 && c.CreationCostFeathers > 0 {
		return apperr.Validation("creation cost must be paid in points or feathers, not both")
	}
	if c.BetCurrency == "" {
		c.BetCurrency = BetNone
	}
	switch c.BetCurrency {
	case BetNone:
		if c.BetAmountPerPlayer != 0 {
			return apperr.Validation("bet amount requires a bet currency")
		}
	case BetPoints, BetFeathers:
		if c.BetAmountPerPlayer == 0 {
			return apperr.Validation("bet currency requires a positive bet amount")
		}
	default:
		return apperr.Validation(fmt.Sprintf("unknown bet currency %q", c.BetCurrency))
	}
	if c.Password != "" && !passwordPattern.MatchString(c.Password) {
		return apperr.Validation("password must be exactly 6 digits")
	}
	return nil
}

// JoinRequest is a player's request to enter a session.
type JoinRequest struct {
	// Team is 1 or 2, or 0 to join the team with fewer players.
	Team     int             `json:"team"`
	Password string          `json:"password,omitempty"`
	Currency ledger.Currency `json:"entryCurrency"`
}

// CompleteRequest reports the outcome of a match.
type CompleteRequest struct {
	Result     Result `json:"result"`
	Team1Score int    `json:"team1Score"`
	Team2Score int    `json:"team2Score"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status    Status
	MatchType MatchType
	Limit     int
}

// PlayerProfile is the public part of a participant's profile.
type PlayerProfile struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image"`
}

// ParticipantView is a participant with its profile attached.
type ParticipantView struct {
	Participant
	Profile PlayerProfile `json:"profile"`
}

// Teams groups participants by side.
type Teams struct {
	Team1 []ParticipantView `json:"team1"`
	Team2 []ParticipantView `json:"team2"`
}

// View is the read model of a session as seen by one user.
type View struct {
	Session
	HasPassword        bool              `json:"has_password"`
	MaxPlayers         int               `json:"max_players"`
	AcceptedCurrencies []ledger.Currency `json:"accepted_currencies"`
	Participants       []ParticipantView `json:"participants"`
	Teams              Teams             `json:"teams"`
	CurrentUserID      string            `json:"current_user_id"`
	IsCreator          bool              `json:"is_creator"`
	IsParticipant      bool              `json:"is_participant"`
}

// Service runs the session state machine.
type Service struct {
	runner   *database.TxRunner
	ledger   ledger.Ledger
	ratings  rating.RatingStore
	calc     rating.Calculator
	profiles profile.ProfileStore
	metrics  metrics.Metrics
	events   pubsub.PubSubClient
	notifier notifier.Notifier
	now      func() time.Time
}
