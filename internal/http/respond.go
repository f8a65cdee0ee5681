package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smashclub/internal/apperr"
)

const maxBodyBytes = 1 << 20

// statusFor maps an error kind to its HTTP status code.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInsufficientFunds, apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error": CODE, "message": text}. Unclassified
// errors are logged and reported with a generic message.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("Unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   apperr.KindInternal.String(),
			Message: "internal server error",
		})
		return
	}
	writeJSON(w, statusFor(appErr.Kind), errorResponse{
		Error:   apperr.CodeOf(appErr),
		Message: appErr.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("failed to read request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Validation(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return v, nil
}
