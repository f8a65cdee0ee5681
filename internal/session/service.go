package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/notifier"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/rating"
)

var _ SessionService = (*Service)(nil)

// New creates a session Service.
func New(
	runner *database.TxRunner,
	ledger ledger.Ledger,
	ratings rating.RatingStore,
	calc rating.Calculator,
	profiles profile.ProfileStore,
	metrics metrics.Metrics,
	events pubsub.PubSubClient,
	notifier notifier.Notifier,
) *Service {
	return &Service{
		runner:   runner,
		ledger:   ledger,
		ratings:  ratings,
		calc:     calc,
		profiles: profiles,
		metrics:  metrics,
		events:   events,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock replaces the service's time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create opens a new session, charges the creation cost and seats the creator
// on team 1. Nothing is persisted unless every step succeeds.
func (s *Service) Create(ctx context.Context, creatorID string, cfg Config) (*Session, error) {
	if creatorID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:                   uuid.New().String(),
		MatchType:            cfg.MatchType,
		Status:               StatusPending,
		EntryFeePoints:       cfg.EntryFeePoints,
		EntryFeeFeathers:     cfg.EntryFeeFeathers,
		WinnerPoints:         cfg.WinnerPoints,
		BetCurrency:          cfg.BetCurrency,
		BetAmountPerPlayer:   cfg.BetAmountPerPlayer,
		CreationCostPoints:   cfg.CreationCostPoints,
		CreationCostFeathers: cfg.CreationCostFeathers,
		Password:             cfg.Password,
		IsRanked:             cfg.IsRanked,
		CreatorID:            creatorID,
		SessionDate:          now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if cfg.SessionDate != nil {
		sess.SessionDate = *cfg.SessionDate
	}

	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		if err := s.chargeCreationCost(ctx, tx, sess); err != nil {
			return err
		}
		if err := insertSession(ctx, tx, sess); err != nil {
			return err
		}
		_, err := s.enroll(ctx, tx, sess, creatorID, 1, "", false)
		return err
	})
	if err != nil {
		log.Warn("Failed to create match session", "creator_id", creatorID, "match_type", cfg.MatchType, "error", err)
		return nil, err
	}

	log.Info("Created match session", "session_id", sess.ID, "creator_id", creatorID, "match_type", sess.MatchType, "ranked", sess.IsRanked)
	s.metrics.IncSessionsCreated(string(sess.MatchType))
	s.metrics.IncParticipantsJoined("creator")
	s.publish(ctx, pubsub.EventSessionCreated, sess, creatorID)
	if err := s.notifier.SendSessionOpened(ctx, s.summary(sess, []Participant{{UserID: creatorID, Team: 1}}, nil)); err != nil {
		log.Error("Failed to announce new session", "session_id", sess.ID, "error", err)
	}
	return sess, nil
}

func (s *Service) chargeCreationCost(ctx context.Context, tx *sql.Tx, sess *Session) error {
	m := ledger.Movement{
		UserID:    sess.CreatorID,
		Currency:  ledger.Points,
		Amount:    sess.CreationCostPoints,
		Reason:    ledger.ReasonCreationCost,
		SessionID: sess.ID,
	}
	if sess.CreationCostFeathers > 0 {
		m.Currency = ledger.Feathers
		m.Amount = sess.CreationCostFeathers
	}
	_, err := s.ledger.Debit(ctx, tx, m)
	return err
}

// Join seats userID in a pending session, charging the entry fee and escrowing
// the bet.
func (s *Service) Join(ctx context.Context, sessionID, userID string, req JoinRequest) (*Participant, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if req.Team < 0 || req.Team > 2 {
		return nil, apperr.Validation("team must be 0, 1 or 2")
	}

	var sess *Session
	var participant *Participant
	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		var err error
		sess, err = getSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Password != "" && req.Password != sess.Password {
			return apperr.ErrWrongPassword
		}
		if sess.Status != StatusPending {
			return apperr.ErrInvalidState
		}
		participant, err = s.enroll(ctx, tx, sess, userID, req.Team, req.Currency, true)
		return err
	})
	if err != nil {
		log.Info("Join rejected", "session_id", sessionID, "user_id", userID, "error", err)
		return nil, err
	}

	log.Info("Player joined session", "session_id", sessionID, "user_id", userID, "team", participant.Team, "currency", participant.EntryCurrency)
	s.metrics.IncParticipantsJoined("direct")
	s.publish(ctx, pubsub.EventSessionJoined, sess, userID)
	return participant, nil
}

// Enroll seats userID in a pending session inside the caller's transaction.
// Accepted invitations use it so the invitation and the seat commit together.
func (s *Service) Enroll(ctx context.Context, tx *sql.Tx, sessionID, userID string, team int, currency ledger.Currency) (*Participant, error) {
	sess, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusPending {
		return nil, apperr.ErrInvalidState
	}
	return s.enroll(ctx, tx, sess, userID, team, currency, true)
}

// enroll checks the roster, moves the money and inserts the participant. Team
// 0 picks the side with fewer players, team 1 on a tie.
func (s *Service) enroll(ctx context.Context, tx *sql.Tx, sess *Session, userID string, team int, choice ledger.Currency, chargeFee bool) (*Participant, error) {
	currency := ledger.Points
	if sess.CreationCostFeathers > 0 {
		currency = ledger.Feathers
	}
	if chargeFee {
		var err error
		if currency, err = sess.resolveCurrency(choice); err != nil {
			return nil, err
		}
	}

	participants, err := loadParticipants(ctx, tx, sess.ID)
	if err != nil {
		return nil, err
	}
	counts := map[int]int{}
	for _, p := range participants {
		if p.UserID == userID {
			return nil, apperr.ErrAlreadyJoined
		}
		counts[p.Team]++
	}
	if len(participants) >= sess.MatchType.MaxPlayers() {
		return nil, apperr.ErrSessionFull
	}
	if team == 0 {
		team = 1
		if counts[2] < counts[1] {
			team = 2
		}
	}
	if counts[team] >= sess.MatchType.MaxPerTeam() {
		return nil, apperr.ErrSessionFull
	}

	p := &Participant{
		ID:            uuid.New().String(),
		SessionID:     sess.ID,
		UserID:        userID,
		Team:          team,
		EntryCurrency: currency,
		JoinedAt:      s.now(),
	}

	if chargeFee {
		fee := sess.EntryFee(currency)
		if _, err := s.ledger.Debit(ctx, tx, ledger.Movement{
			UserID:    userID,
			Currency:  currency,
			Amount:    fee,
			Reason:    ledger.ReasonEntryFee,
			SessionID: sess.ID,
		}); err != nil {
			return nil, err
		}
		if currency == ledger.Feathers {
			p.EntryFeeFeathersPaid = fee
		} else {
			p.EntryFeePointsPaid = fee
		}
	}

	if sess.BettingEnabled() {
		if _, err := s.ledger.Debit(ctx, tx, ledger.Movement{
			UserID:    userID,
			Currency:  sess.BetCurrency.Currency(),
			Amount:    sess.BetAmountPerPlayer,
			Reason:    ledger.ReasonBetEscrow,
			SessionID: sess.ID,
		}); err != nil {
			return nil, err
		}
		p.BetAmountPaid = sess.BetAmountPerPlayer
	}

	if err := insertParticipant(ctx, tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Start moves a full pending session into play. Only the creator may start it.
func (s *Service) Start(ctx context.Context, sessionID, requesterID string) (*Session, error) {
	var sess *Session
	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		var err error
		sess, err = getSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.CreatorID != requesterID {
			return apperr.ErrNotCreator
		}
		if sess.Status != StatusPending {
			return apperr.ErrInvalidState
		}
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_participants WHERE session_id = ?`, sessionID).Scan(&count); err != nil {
			return err
		}
		if count != sess.MatchType.MaxPlayers() {
			return apperr.ErrRosterNotFull
		}
		return transition(ctx, tx, sess, StatusInProgress, s.now())
	})
	if err != nil {
		log.Info("Start rejected", "session_id", sessionID, "requester_id", requesterID, "error", err)
		return nil, err
	}

	log.Info("Match session started", "session_id", sessionID)
	s.metrics.IncSessionTransition(string(StatusInProgress))
	s.publish(ctx, pubsub.EventSessionStarted, sess, requesterID)
	return sess, nil
}

// Complete records the result of a match in progress, updates ratings and pays
// out bets and winner points.
func (s *Service) Complete(ctx context.Context, sessionID, requesterID string, req CompleteRequest) (*Session, error) {
	winner := req.Result.WinningTeam()
	if winner == 0 {
		return nil, apperr.Validation("result must be one of TEAM1_WIN, TEAM2_WIN, PLAYER1_WIN, PLAYER2_WIN")
	}
	if req.Team1Score < 0 || req.Team2Score < 0 {
		return nil, apperr.Validation("scores must not be negative")
	}
	if (winner == 1 && req.Team2Score > req.Team1Score) || (winner == 2 && req.Team1Score > req.Team2Score) {
		return nil, apperr.Validation("scores contradict the reported result")
	}

	var sess *Session
	var participants []Participant
	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		var err error
		sess, err = getSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		participants, err = loadParticipants(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if !hasParticipant(participants, requesterID) {
			return apperr.ErrNotParticipant
		}
		if sess.Status != StatusInProgress {
			return apperr.ErrInvalidState
		}
		if req.Result.IsPlayerResult() && !sess.MatchType.IsSingles() {
			return apperr.Validation("player results are only valid for singles")
		}

		if err := s.settleRatings(ctx, tx, sess, participants, winner); err != nil {
			return err
		}
		if err := s.settlePayouts(ctx, tx, sess, participants, winner); err != nil {
			return err
		}
		for i := range participants {
			participants[i].ResultConfirmed = participants[i].UserID == requesterID
			if err := updateParticipantOutcome(ctx, tx, &participants[i]); err != nil {
				return err
			}
		}
		if err := recordResult(ctx, tx, sess, req); err != nil {
			return err
		}
		return transition(ctx, tx, sess, StatusCompleted, s.now())
	})
	if err != nil {
		log.Info("Complete rejected", "session_id", sessionID, "requester_id", requesterID, "error", err)
		return nil, err
	}

	log.Info("Match session completed", "session_id", sessionID, "result", req.Result, "score", []int{req.Team1Score, req.Team2Score}, "ranked", sess.IsRanked)
	s.metrics.IncSessionTransition(string(StatusCompleted))
	s.publish(ctx, pubsub.EventSessionCompleted, sess, requesterID)
	s.announceResult(ctx, sess, participants)
	return sess, nil
}

// settleRatings counts the game for every participant and, for ranked
// sessions, applies the same ELO delta to each member of a team.
func (s *Service) settleRatings(ctx context.Context, tx *sql.Tx, sess *Session, participants []Participant, winner int) error {
	matchType := string(sess.MatchType)
	now := s.now()
	records := make([]rating.Record, len(participants))
	var team1, team2 []int
	for i, p := range participants {
		rec, err := s.ratings.Get(ctx, tx, p.UserID, matchType)
		if err != nil {
			return err
		}
		records[i] = rec
		if p.Team == 1 {
			team1 = append(team1, rec.Rating)
		} else {
			team2 = append(team2, rec.Rating)
		}
	}

	var delta1, delta2 int
	if sess.IsRanked {
		delta1, delta2 = s.calc.TeamDeltas(team1, team2, winner == 1)
	}

	for i := range participants {
		p := &participants[i]
		rec := &records[i]
		rec.CountGame(p.Team == winner)
		rec.UpdatedAt = now
		if sess.IsRanked {
			delta := delta1
			if p.Team == 2 {
				delta = delta2
			}
			before := rec.Rating
			after := s.calc.Apply(before, delta)
			change := after - before
			rec.SetRating(after)
			p.RatingBefore, p.RatingAfter, p.RatingChange = &before, &after, &change
		}
		if err := s.ratings.Save(ctx, tx, *rec); err != nil {
			return err
		}
	}
	return nil
}

// settlePayouts splits the escrowed bet pool between the winners and credits
// each winner the session's winner points.
func (s *Service) settlePayouts(ctx context.Context, tx *sql.Tx, sess *Session, participants []Participant, winner int) error {
	var winners []*Participant
	var pool int64
	for i := range participants {
		pool += participants[i].BetAmountPaid
		if participants[i].Team == winner {
			winners = append(winners, &participants[i])
		}
	}
	if len(winners) == 0 {
		return nil
	}

	if sess.BettingEnabled() && pool > 0 {
		share := pool / int64(len(winners))
		remainder := pool - share*int64(len(winners))
		for i, w := range winners {
			amount := share
			if i == 0 {
				amount += remainder
			}
			if _, err := s.ledger.Credit(ctx, tx, ledger.Movement{
				UserID:    w.UserID,
				Currency:  sess.BetCurrency.Currency(),
				Amount:    amount,
				Reason:    ledger.ReasonBetPayout,
				SessionID: sess.ID,
			}); err != nil {
				return err
			}
		}
	}

	if sess.WinnerPoints > 0 {
		for _, w := range winners {
			if _, err := s.ledger.Credit(ctx, tx, ledger.Movement{
				UserID:    w.UserID,
				Currency:  ledger.Points,
				Amount:    sess.WinnerPoints,
				Reason:    ledger.ReasonWinnerBonus,
				SessionID: sess.ID,
			}); err != nil {
				return err
			}
			w.PointsEarned += sess.WinnerPoints
		}
	}
	return nil
}

// Cancel aborts a pending session. Every debit tied to it is refunded and its
// open invitations are closed.
func (s *Service) Cancel(ctx context.Context, sessionID, requesterID string) (*Session, error) {
	var sess *Session
	var refunded int
	var invitations int64
	err := s.runner.Run(ctx, func(tx *sql.Tx) error {
		var err error
		sess, err = getSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.CreatorID != requesterID {
			return apperr.ErrNotCreator
		}
		if sess.Status != StatusPending {
			return apperr.ErrInvalidState
		}
		now := s.now()
		if refunded, err = s.ledger.Refund(ctx, tx, sessionID, ledger.ReasonRefund); err != nil {
			return err
		}
		if invitations, err = cancelPendingInvitations(ctx, tx, sessionID, now); err != nil {
			return err
		}
		return transition(ctx, tx, sess, StatusCancelled, now)
	})
	if err != nil {
		log.Info("Cancel rejected", "session_id", sessionID, "requester_id", requesterID, "error", err)
		return nil, err
	}

	log.Info("Match session cancelled", "session_id", sessionID, "refunds", refunded, "invitations_cancelled", invitations)
	s.metrics.IncSessionTransition(string(StatusCancelled))
	s.publish(ctx, pubsub.EventSessionCancelled, sess, requesterID)
	return sess, nil
}

func hasParticipant(participants []Participant, userID string) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// publish sends a lifecycle event. Failures are logged and otherwise ignored.
func (s *Service) publish(ctx context.Context, topic pubsub.EventType, sess *Session, actorID string) {
	event := pubsub.SessionEvent{
		SessionID:  sess.ID,
		MatchType:  string(sess.MatchType),
		Status:     string(sess.Status),
		ActorID:    actorID,
		Result:     string(sess.Result),
		Team1:      sess.Team1Score,
		Team2:      sess.Team2Score,
		OccurredAt: s.now().Unix(),
	}
	if err := s.events.SendMessage(ctx, topic, event); err != nil {
		log.Error("Failed to publish session event", "topic", topic, "session_id", sess.ID, "error", err)
	}
}

func (s *Service) announceResult(ctx context.Context, sess *Session, participants []Participant) {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.UserID
	}
	nicknames := make(map[string]string, len(ids))
	profiles, err := s.loadProfiles(ctx, ids)
	if err != nil {
		log.Warn("Failed to load nicknames for result announcement", "session_id", sess.ID, "error", err)
	}
	for id, p := range profiles {
		nicknames[id] = p.Nickname
	}
	if err := s.notifier.SendMatchResult(ctx, s.summary(sess, participants, nicknames)); err != nil {
		log.Error("Failed to announce match result", "session_id", sess.ID, "error", err)
	}
}

func (s *Service) summary(sess *Session, participants []Participant, nicknames map[string]string) notifier.SessionSummary {
	players := make([]notifier.Player, len(participants))
	for i, p := range participants {
		players[i] = notifier.Player{
			UserID:       p.UserID,
			Nickname:     nicknames[p.UserID],
			Team:         p.Team,
			RatingChange: p.RatingChange,
		}
	}
	return notifier.SessionSummary{
		SessionID:        sess.ID,
		MatchType:        string(sess.MatchType),
		SessionDate:      sess.SessionDate,
		IsRanked:         sess.IsRanked,
		EntryFeePoints:   sess.EntryFeePoints,
		EntryFeeFeathers: sess.EntryFeeFeathers,
		BetCurrency:      string(sess.BetCurrency),
		BetAmount:        sess.BetAmountPerPlayer,
		WinnerPoints:     sess.WinnerPoints,
		MaxPlayers:       sess.MatchType.MaxPlayers(),
		Players:          players,
		Result:           string(sess.Result),
		WinningTeam:      sess.Result.WinningTeam(),
		Team1Score:       sess.Team1Score,
		Team2Score:       sess.Team2Score,
	}
}
