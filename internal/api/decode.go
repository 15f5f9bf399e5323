package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// decodeJSON reads a single JSON value from the request body into dst and
// writes the error response itself when it fails. It returns false if the
// handler should stop.
//
// Syntax errors are 400. Well-formed JSON with the wrong types is 422.
// Oversized bodies are 413.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	case errors.As(err, &typeErr) && typeErr.Field == "":
		writeValidationError(w, "request body must be a JSON object")
	case errors.As(err, &typeErr):
		writeValidationError(w, fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type))
	default:
		writeBadRequest(w, msgInvalidJSON)
	}
	return false
}

// requireFields writes a 422 naming the first absent field. Fields are
// given as name/present pairs in declaration order.
func requireFields(w http.ResponseWriter, fields ...field) bool {
	for _, f := range fields {
		if !f.present {
			writeValidationError(w, "field required: "+f.name)
			return false
		}
	}
	return true
}

type field struct {
	name    string
	present bool
}
