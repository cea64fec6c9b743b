package server

import (
	"net/http"
	"strings"

	"github.com/blesswinsamuel/auth0-db/internal/authentication"
)

func (s *Server) defaults(clientID, connection *string) {
	if *clientID == "" {
		*clientID = s.config.ClientID
	}
	if *connection == "" {
		*connection = s.config.Connection
	}
}

// missingFields lists the names whose values are empty, in the order given.
func missingFields(fields ...string) string {
	var missing []string
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i+1] == "" {
			missing = append(missing, fields[i])
		}
	}
	return strings.Join(missing, ", ")
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r.Context())
	req := authentication.LoginRequest{}
	if err := decodeJsonRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.defaults(&req.ClientID, &req.Connection)
	if missing := missingFields("client_id", req.ClientID, "username", req.Username, "password", req.Password, "connection", req.Connection); missing != "" {
		writeErrorResponse(w, "Missing required fields: "+missing, http.StatusBadRequest)
		return
	}

	resp, err := s.auth.Login(r.Context(), req)
	if err != nil {
		handleUpstreamHTTPError(w, err, logger, "login failed")
		return
	}
	logger.Info().Str("username", req.Username).Msg("login success")
	writeJsonResponse(w, resp, http.StatusOK)
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r.Context())
	req := authentication.SignupRequest{}
	if err := decodeJsonRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.defaults(&req.ClientID, &req.Connection)
	if missing := missingFields("client_id", req.ClientID, "email", req.Email, "password", req.Password, "connection", req.Connection); missing != "" {
		writeErrorResponse(w, "Missing required fields: "+missing, http.StatusBadRequest)
		return
	}

	resp, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		handleUpstreamHTTPError(w, err, logger, "signup failed")
		return
	}
	logger.Info().Str("email", req.Email).Msg("signup success")
	writeJsonResponse(w, resp, http.StatusOK)
}

func (s *Server) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r.Context())
	req := authentication.ChangePasswordRequest{}
	if err := decodeJsonRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.defaults(&req.ClientID, &req.Connection)
	if missing := missingFields("client_id", req.ClientID, "email", req.Email, "connection", req.Connection); missing != "" {
		writeErrorResponse(w, "Missing required fields: "+missing, http.StatusBadRequest)
		return
	}

	resp, err := s.auth.ChangePassword(r.Context(), req)
	if err != nil {
		handleUpstreamHTTPError(w, err, logger, "change password failed")
		return
	}
	logger.Info().Str("email", req.Email).Msg("change password requested")
	writeJsonResponse(w, resp, http.StatusOK)
}
