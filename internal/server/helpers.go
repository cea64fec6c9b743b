package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blesswinsamuel/auth0-db/internal/authentication"

	"github.com/rs/zerolog"
)

func writeErrorResponse(w http.ResponseWriter, message string, status int) {
	writeJsonResponse(w, struct {
		Error string `json:"error"`
	}{message}, status)
}

func writeJsonResponse(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleUpstreamHTTPError replays Auth0 error responses to the caller as-is.
func handleUpstreamHTTPError(w http.ResponseWriter, err error, logger zerolog.Logger, errmsg string) {
	authErr := &authentication.Auth0Error{}
	if errors.As(err, &authErr) {
		logger.Info().Int("status", authErr.Status()).Str("code", authErr.ErrorCode).Msg(errmsg)
		body := authErr.Body()
		if json.Valid(body) {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(authErr.Status())
		w.Write(body)
		return
	}
	logger.Error().Err(err).Msg(errmsg)
	writeErrorResponse(w, "Service unavailable", http.StatusServiceUnavailable)
}

func decodeJsonRequest(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
