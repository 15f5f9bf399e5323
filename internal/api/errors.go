package api

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeUnauthorized    = "unauthorised"
	ErrCodeValidation      = "validation_error"
	ErrCodeTooLarge        = "request_too_large"
	ErrCodeInternal        = "internal_error"
	ErrCodeUnavailable     = "service_unavailable"
	ErrCodeMethodNotAllow  = "method_not_allowed"
	ErrCodeRouteNotMatched = "route_not_found"
)

// Messages clients match on.
const (
	msgUserCreated         = "User created"
	msgUserExists          = "User already exists"
	msgInvalidCredentials  = "Invalid credentials"
	msgNotAuthenticated    = "Not authenticated"
	msgInvalidToken        = "Invalid token"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgItemNotFound        = "Item not found"
	msgItemDeleted         = "Item deleted"
	msgInvalidJSON         = "invalid JSON body"
)

// messageResponse is the body of endpoints that only confirm an action.
type messageResponse struct {
	Msg string `json:"msg"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response with a Bearer challenge.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeValidationError writes a 422 error response.
func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}
