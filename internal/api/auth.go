package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/itemvault/internal/audit"
	"github.com/nerrad567/itemvault/internal/auth"
)

// Auth event names for metrics and telemetry.
const (
	authEventSignup  = "signup"
	authEventLogin   = "login"
	authEventRefresh = "refresh"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// signupRequest is the request body for POST /signup.
type signupRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// refreshRequest is the request body for POST /refresh.
type refreshRequest struct {
	RefreshToken *string `json:"refresh_token"`
}

// handleSignup registers a new user.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !requireFields(w,
		field{"username", req.Username != nil},
		field{"password", req.Password != nil},
	) {
		return
	}

	err := s.credentials.Register(r.Context(), *req.Username, *req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUsernameExists):
		s.recordAuth(authEventSignup, outcomeFailure)
		writeBadRequest(w, msgUserExists)
		return
	case errors.Is(err, auth.ErrPasswordTooLong):
		s.recordAuth(authEventSignup, outcomeFailure)
		writeBadRequest(w, "password too long")
		return
	default:
		s.logger.Error("signup failed", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w, "failed to create user")
		return
	}

	s.recordAuth(authEventSignup, outcomeSuccess)
	s.auditLog(audit.ActionSignup, audit.EntityUser, *req.Username, *req.Username, nil)
	s.logger.Info("user registered", "username", *req.Username)
	writeJSON(w, http.StatusOK, messageResponse{Msg: msgUserCreated})
}

// handleLogin checks form-encoded credentials and issues a token pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRequestBodySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return
		}
		writeBadRequest(w, "invalid form body")
		return
	}

	_, hasUsername := r.PostForm["username"]
	_, hasPassword := r.PostForm["password"]
	if !requireFields(w,
		field{"username", hasUsername},
		field{"password", hasPassword},
	) {
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	err := s.credentials.Authenticate(r.Context(), username, password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.recordAuth(authEventLogin, outcomeFailure)
		s.auditLog(audit.ActionLoginFailed, audit.EntityUser, username, "", nil)
		writeBadRequest(w, msgInvalidCredentials)
		return
	default:
		s.logger.Error("credential check failed", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w, "failed to check credentials")
		return
	}

	pair, err := s.tokens.IssuePair(username)
	if err != nil {
		s.logger.Error("issuing tokens failed", "error", err, "request_id", requestIDFrom(r.Context()))
		writeInternalError(w, "failed to issue tokens")
		return
	}

	s.recordAuth(authEventLogin, outcomeSuccess)
	s.auditLog(audit.ActionLogin, audit.EntityUser, username, username, nil)
	writeJSON(w, http.StatusOK, pair)
}

// handleRefresh exchanges a refresh token for a new token pair.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !requireFields(w, field{"refresh_token", req.RefreshToken != nil}) {
		return
	}

	pair, err := s.tokens.Refresh(r.Context(), *req.RefreshToken)
	if err != nil {
		if !errors.Is(err, auth.ErrTokenInvalid) {
			s.logger.Error("refresh failed", "error", err, "request_id", requestIDFrom(r.Context()))
			writeInternalError(w, "failed to refresh tokens")
			return
		}
		s.logger.Debug("refresh token rejected", "reason", err, "request_id", requestIDFrom(r.Context()))
		s.recordAuth(authEventRefresh, outcomeFailure)
		s.auditLog(audit.ActionRefreshFailed, audit.EntityUser, "", "", nil)
		writeUnauthorized(w, msgInvalidRefreshToken)
		return
	}

	s.recordAuth(authEventRefresh, outcomeSuccess)
	s.auditLog(audit.ActionRefresh, audit.EntityUser, "", "", nil)
	writeJSON(w, http.StatusOK, pair)
}

// recordAuth feeds the Prometheus counter and optional InfluxDB telemetry.
func (s *Server) recordAuth(event, outcome string) {
	s.metrics.AuthEvent(event, outcome)
	if s.authEvents != nil {
		s.authEvents.WriteAuthEvent(event, outcome)
	}
}
