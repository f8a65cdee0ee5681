package http

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/invitation"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/session"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// SessionEventPushHandler receives session lifecycle events from a Pub/Sub push
// subscription and counts them by status.
func (s *Server) SessionEventPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var envelope pushEnvelope
		if err := decodeJSON(r, &envelope); err != nil {
			writeError(w, err)
			return
		}
		rawData, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil || len(rawData) == 0 {
			log.FromContext(r.Context()).Error("Failed to decode push message data", "subscription", envelope.Subscription, "error", err)
			writeError(w, apperr.Validation("message data must be non-empty base64"))
			return
		}
		var event pubsub.SessionEvent
		if err := s.Events.ProcessMessage(rawData, &event); err != nil {
			writeError(w, apperr.Validation("message data is not a session event"))
			return
		}
		if event.SessionID == "" || event.Status == "" {
			writeError(w, apperr.Validation("session event requires session_id and status"))
			return
		}

		log.FromContext(r.Context()).Info("Received session event", "message_id", envelope.Message.MessageID, "session_id", event.SessionID,
			"status", event.Status, "actor_id", event.ActorID)
		s.Metrics.IncSessionEventsReceived(event.Status)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// respondWithView writes the caller's view of a session.
func (s *Server) respondWithView(w http.ResponseWriter, r *http.Request, status int, sessionID string) {
	view, err := s.Sessions.Get(r.Context(), sessionID, userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, view)
}

func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg session.Config
		if err := decodeJSON(r, &cfg); err != nil {
			writeError(w, err)
			return
		}
		sess, err := s.Sessions.Create(r.Context(), userID(r), cfg)
		if err != nil {
			writeError(w, err)
			return
		}
		s.respondWithView(w, r, http.StatusCreated, sess.ID)
	}
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, err)
			return
		}
		filter := session.ListFilter{
			Status:    session.Status(r.URL.Query().Get("status")),
			MatchType: session.MatchType(r.URL.Query().Get("matchType")),
			Limit:     limit,
		}
		sessions, err := s.Sessions.List(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respondWithView(w, r, http.StatusOK, r.PathValue("id"))
	}
}

func (s *Server) JoinSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req session.JoinRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		sessionID := r.PathValue("id")
		if _, err := s.Sessions.Join(r.Context(), sessionID, userID(r), req); err != nil {
			writeError(w, err)
			return
		}
		s.respondWithView(w, r, http.StatusOK, sessionID)
	}
}

func (s *Server) StartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		if _, err := s.Sessions.Start(r.Context(), sessionID, userID(r)); err != nil {
			writeError(w, err)
			return
		}
		s.respondWithView(w, r, http.StatusOK, sessionID)
	}
}

func (s *Server) CompleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req session.CompleteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		sessionID := r.PathValue("id")
		if _, err := s.Sessions.Complete(r.Context(), sessionID, userID(r), req); err != nil {
			writeError(w, err)
			return
		}
		s.respondWithView(w, r, http.StatusOK, sessionID)
	}
}

func (s *Server) CancelSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("id")
		if _, err := s.Sessions.Cancel(r.Context(), sessionID, userID(r)); err != nil {
			writeError(w, err)
			return
		}
		s.respondWithView(w, r, http.StatusOK, sessionID)
	}
}

func (s *Server) ListInvitationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := invitation.ListFilter{
			Type:   invitation.ListType(r.URL.Query().Get("type")),
			Status: invitation.Status(r.URL.Query().Get("status")),
		}
		invitations, err := s.Invitations.List(r.Context(), userID(r), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invitations)
	}
}

func (s *Server) CreateInvitationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invitation.CreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		inv, err := s.Invitations.Create(r.Context(), userID(r), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, inv)
	}
}

func (s *Server) RespondInvitationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invitation.RespondRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		inv, err := s.Invitations.Respond(r.Context(), r.PathValue("id"), userID(r), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}

func (s *Server) WalletHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := s.Ledger.Balance(r.Context(), userID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balance)
	}
}

func (s *Server) WalletTransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, err)
			return
		}
		entries, err := s.Ledger.History(r.Context(), userID(r), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchType := session.MatchType(r.URL.Query().Get("matchType"))
		if !matchType.Valid() {
			writeError(w, apperr.Validation("matchType must be one of MS, WS, MD, WD, XD"))
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			writeError(w, err)
			return
		}
		entries, err := s.Ratings.Leaderboard(r.Context(), string(matchType), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func (s *Server) UserRatingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.Ratings.ForUser(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}
