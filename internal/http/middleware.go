package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smashclub/internal/apperr"
	"github.com/mauv0809/smashclub/internal/auth"
	"github.com/mauv0809/smashclub/internal/profile"
)

// Middleware defines the standard signature for an HTTP middleware.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middlewares into a single handler.
// The middlewares are applied in the order they are passed.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// contextKey is a custom type to avoid key collisions in context.
type contextKey string

const (
	identityKey contextKey = "identity"
)

// paramsMiddleware handles common query parameters like 'verbose'.
// A verbose request gets its own debug-level logger on the request context;
// the process-wide level is never touched.
func paramsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("incoming request", "method", r.Method, "url", r.URL.String())
		if r.URL.Query().Get("verbose") == "true" {
			logger := log.Default().With("method", r.Method, "path", r.URL.Path)
			logger.SetLevel(log.DebugLevel)
			r = r.WithContext(log.WithContext(r.Context(), logger))
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records the duration of every request by route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		s.Metrics.ObserveRequestDuration(route, rec.status, time.Since(start).Seconds())
	})
}

// authMiddleware verifies the bearer token, mirrors the caller's profile and
// puts the identity on the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, apperr.ErrUnauthenticated)
			return
		}
		identity, err := s.Verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			log.FromContext(r.Context()).Debug("Rejected access token", "error", err)
			writeError(w, apperr.New(apperr.KindUnauthenticated, apperr.KindUnauthenticated.String(), err.Error()))
			return
		}

		if err := s.Profiles.Upsert(r.Context(), profile.Profile{
			ID:           identity.UserID,
			Nickname:     identity.Nickname,
			ProfileImage: identity.AvatarURL,
		}); err != nil {
			log.FromContext(r.Context()).Warn("Failed to mirror profile", "user_id", identity.UserID, "error", err)
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFromContext is a helper to safely retrieve the caller from the request context.
func identityFromContext(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(identityKey).(*auth.Identity)
	return identity
}

// userID returns the authenticated caller's id, or "" outside authMiddleware.
func userID(r *http.Request) string {
	if identity := identityFromContext(r); identity != nil {
		return identity.UserID
	}
	return ""
}
