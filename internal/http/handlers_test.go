package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smashclub/internal/auth"
	"github.com/mauv0809/smashclub/internal/config"
	"github.com/mauv0809/smashclub/internal/database"
	"github.com/mauv0809/smashclub/internal/invitation"
	"github.com/mauv0809/smashclub/internal/ledger"
	"github.com/mauv0809/smashclub/internal/metrics"
	"github.com/mauv0809/smashclub/internal/notifier"
	"github.com/mauv0809/smashclub/internal/profile"
	"github.com/mauv0809/smashclub/internal/pubsub"
	"github.com/mauv0809/smashclub/internal/rating"
	"github.com/mauv0809/smashclub/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// setupTestServer wires a server against a temporary database. Tokens "alice"
// and "bob" authenticate as users u-alice and u-bob.
func setupTestServer(t *testing.T) (*Server, *ledger.Store) {
	t.Helper()

	db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "http.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	cfg := config.Default()
	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)

	runner := database.NewTxRunner(db, cfg.Tx.MaxRetries, time.Millisecond, metricsSvc.IncTxRetries)
	ledgerStore := ledger.New(runner, metricsSvc.IncInsufficientFunds)
	ratings := rating.NewStore(db, cfg.Rating.Initial)
	profiles := profile.New(db)
	events := pubsub.NewMock("TEST")
	calc := rating.NewCalculator(cfg.Rating.KFactor, cfg.Rating.Floor, cfg.Rating.Initial)

	sessions := session.New(runner, ledgerStore, ratings, calc, profiles, metricsSvc, events, notifier.Nop{})
	invitations := invitation.New(runner, sessions, cfg.InvitationTTL, metricsSvc, events)

	verifier := auth.NewMock()
	verifier.Add("alice", auth.Identity{UserID: "u-alice", Nickname: "Alice"})
	verifier.Add("bob", auth.Identity{UserID: "u-bob", Nickname: "Bob"})

	server := NewServer(sessions, invitations, ledgerStore, ratings, profiles, verifier, events, metricsSvc, metricsHandler, cfg)
	return server, ledgerStore
}

func do(t *testing.T, server *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func createSession(t *testing.T, server *Server, token, body string) session.View {
	t.Helper()
	rr := do(t, server, http.MethodPost, "/matches/sessions", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view session.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	return view
}

func TestHealthCheckHandler(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK!", rr.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		rr := do(t, server, http.MethodGet, "/matches/sessions", "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "UNAUTHENTICATED", decodeError(t, rr).Error)
	})

	t.Run("unknown token", func(t *testing.T) {
		rr := do(t, server, http.MethodGet, "/matches/sessions", "mallory", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token mirrors profile", func(t *testing.T) {
		rr := do(t, server, http.MethodGet, "/matches/sessions", "alice", "")
		require.Equal(t, http.StatusOK, rr.Code)

		p, err := server.Profiles.Get(context.Background(), "u-alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", p.Nickname)
	})
}

func TestParamsMiddleware_VerboseIsRequestScoped(t *testing.T) {
	global := log.GetLevel()

	var mu sync.Mutex
	seen := map[string][]log.Level{}
	handler := paramsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Query().Get("verbose")] = append(seen[r.URL.Query().Get("verbose")], log.FromContext(r.Context()).GetLevel())
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		verbose := "false"
		if i%2 == 0 {
			verbose = "true"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health?verbose="+verbose, nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, global, log.GetLevel())
	require.Len(t, seen["true"], 10)
	require.Len(t, seen["false"], 10)
	for _, level := range seen["true"] {
		assert.Equal(t, log.DebugLevel, level)
	}
	for _, level := range seen["false"] {
		assert.Equal(t, global, level)
	}
}

func TestCreateSessionHandler(t *testing.T) {
	server, _ := setupTestServer(t)

	view := createSession(t, server, "alice", `{"matchType":"MS","password":"123456","isRanked":true}`)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, session.StatusPending, view.Status)
	assert.Equal(t, "u-alice", view.CreatorID)
	assert.True(t, view.IsCreator)
	assert.True(t, view.HasPassword)
	assert.Equal(t, 2, view.MaxPlayers)
	require.Len(t, view.Teams.Team1, 1)
	assert.Equal(t, "Alice", view.Teams.Team1[0].Profile.Nickname)

	t.Run("password never leaves the server", func(t *testing.T) {
		rr := do(t, server, http.MethodGet, "/matches/sessions/"+view.ID, "bob", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "123456")
		assert.Contains(t, rr.Body.String(), `"has_password":true`)
	})

	t.Run("validation error", func(t *testing.T) {
		rr := do(t, server, http.MethodPost, "/matches/sessions", "alice", `{"matchType":"XX"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := do(t, server, http.MethodPost, "/matches/sessions", "alice", `{"matchType":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		rr := do(t, server, http.MethodPost, "/matches/sessions", "bob", `{"matchType":"MS","creationCostPoints":50}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "INSUFFICIENT_FUNDS", decodeError(t, rr).Error)
	})
}

func TestJoinSessionHandler(t *testing.T) {
	server, _ := setupTestServer(t)
	view := createSession(t, server, "alice", `{"matchType":"MS","password":"123456"}`)
	path := "/matches/sessions/" + view.ID + "/join"

	rr := do(t, server, http.MethodPost, path, "bob", `{"password":"000000"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "WRONG_PASSWORD", decodeError(t, rr).Error)

	rr = do(t, server, http.MethodPost, path, "alice", `{"password":"123456"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ALREADY_JOINED", decodeError(t, rr).Error)

	rr = do(t, server, http.MethodPost, path, "bob", `{"password":"123456"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var joined session.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &joined))
	assert.True(t, joined.IsParticipant)
	require.Len(t, joined.Teams.Team2, 1)
	assert.Equal(t, "u-bob", joined.Teams.Team2[0].UserID)

	rr = do(t, server, http.MethodPost, "/matches/sessions/nope/join", "bob", `{}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", decodeError(t, rr).Error)
}

func TestSessionLifecycleHandlers(t *testing.T) {
	server, _ := setupTestServer(t)
	view := createSession(t, server, "alice", `{"matchType":"MS","isRanked":true}`)
	base := "/matches/sessions/" + view.ID

	rr := do(t, server, http.MethodPost, base+"/start", "alice", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ROSTER_NOT_FULL", decodeError(t, rr).Error)

	require.Equal(t, http.StatusOK, do(t, server, http.MethodPost, base+"/join", "bob", `{}`).Code)

	rr = do(t, server, http.MethodPost, base+"/start", "bob", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "NOT_CREATOR", decodeError(t, rr).Error)

	rr = do(t, server, http.MethodPost, base+"/start", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, server, http.MethodPost, base+"/complete", "bob", `{"result":"TEAM1_WIN","team1Score":21,"team2Score":15}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var done session.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &done))
	assert.Equal(t, session.StatusCompleted, done.Status)

	rr = do(t, server, http.MethodGet, "/ratings?matchType=MS", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var board []rating.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	require.Len(t, board, 2)
	assert.Equal(t, "u-alice", board[0].UserID)
	assert.Equal(t, 1516, board[0].Rating)

	rr = do(t, server, http.MethodGet, "/users/u-bob/ratings", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var records []rating.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 1484, records[0].Rating)

	rr = do(t, server, http.MethodPost, base+"/cancel", "alice", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_STATE", decodeError(t, rr).Error)
}

func TestLeaderboardHandler_RequiresMatchType(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := do(t, server, http.MethodGet, "/ratings", "alice", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Error)
}

func TestWalletHandlers(t *testing.T) {
	server, ledgerStore := setupTestServer(t)
	_, err := ledgerStore.Deposit(context.Background(), "u-alice", ledger.Points, 100, ledger.ReasonTopUp)
	require.NoError(t, err)

	createSession(t, server, "alice", `{"matchType":"MS","creationCostPoints":30}`)

	rr := do(t, server, http.MethodGet, "/wallet", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var balance ledger.Balance
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.Equal(t, int64(70), balance.Points)
	assert.Equal(t, int64(0), balance.Feathers)

	rr = do(t, server, http.MethodGet, "/wallet/transactions?limit=10", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []ledger.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, int64(-30), entries[0].Delta)

	rr = do(t, server, http.MethodGet, "/wallet/transactions?limit=abc", "alice", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInvitationHandlers(t *testing.T) {
	server, _ := setupTestServer(t)
	view := createSession(t, server, "alice", `{"matchType":"MS"}`)

	rr := do(t, server, http.MethodPost, "/invitations", "alice",
		`{"sessionId":"`+view.ID+`","inviteeId":"u-bob","message":"fancy a game?"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var inv invitation.Invitation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &inv))
	assert.Equal(t, invitation.StatusPending, inv.Status)

	rr = do(t, server, http.MethodGet, "/invitations?type=received", "bob", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var received []invitation.Invitation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &received))
	require.Len(t, received, 1)
	assert.Equal(t, inv.ID, received[0].ID)

	rr = do(t, server, http.MethodPatch, "/invitations/"+inv.ID, "alice", `{"action":"accept"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "NOT_INVITEE", decodeError(t, rr).Error)

	rr = do(t, server, http.MethodPatch, "/invitations/"+inv.ID, "bob", `{"action":"accept"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &inv))
	assert.Equal(t, invitation.StatusAccepted, inv.Status)

	rr = do(t, server, http.MethodPatch, "/invitations/"+inv.ID, "bob", `{"action":"decline"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, rr).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)
	do(t, server, http.MethodGet, "/health", "", "")

	rr := do(t, server, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "smashclub_")
}

func TestSessionEventPushHandler(t *testing.T) {
	server, _ := setupTestServer(t)

	payload, err := msgpack.Marshal(pubsub.SessionEvent{SessionID: "s1", MatchType: "MS", Status: "COMPLETED", ActorID: "u-bob"})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"subscription": "projects/test/subscriptions/session-events",
		"message": map[string]string{
			"data":      base64.StdEncoding.EncodeToString(payload),
			"messageId": "m-1",
		},
	})
	require.NoError(t, err)

	rr := do(t, server, http.MethodPost, "/pubsub/session-events", "", string(body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	events := server.Events.(*pubsub.MockPubSubClient)
	require.Len(t, events.ProcessMessageCalls, 1)
	assert.Equal(t, payload, events.ProcessMessageCalls[0].Data)

	rr = do(t, server, http.MethodGet, "/metrics", "", "")
	assert.Contains(t, rr.Body.String(), `smashclub_session_events_received_total{status="COMPLETED"} 1`)

	t.Run("invalid base64", func(t *testing.T) {
		rr := do(t, server, http.MethodPost, "/pubsub/session-events", "", `{"message":{"data":"!!!"}}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Error)
	})

	t.Run("not a session event", func(t *testing.T) {
		junk := base64.StdEncoding.EncodeToString([]byte{0xc1})
		rr := do(t, server, http.MethodPost, "/pubsub/session-events", "", `{"message":{"data":"`+junk+`"}}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
