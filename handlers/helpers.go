package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors shared by the creation paths. Handlers map them to
// HTTP status codes at the edge; the bulk sync loop logs and skips.
var (
	errAccessDenied     = errors.New("access denied")
	errValidation       = errors.New("validation failed")
	errInvalidReference = errors.New("invalid reference")
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, errAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, errValidation), errors.Is(err, errInvalidReference):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
