package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/storage"
)

// ErrUnstable rejects a run whose trajectory crossed a stability ceiling.
var ErrUnstable = errors.New("simulation produced unstable results")

// errorBody is the body of every failed response.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// badRequest marks a malformed query.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Success: false, Error: msg})
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	var br *badRequest
	switch {
	case errors.As(err, &br),
		errors.Is(err, dynamo.ErrParameterOutOfRange),
		errors.Is(err, dynamo.ErrInitialConditionOutOfRange),
		errors.Is(err, dynamo.ErrUnknownParameter),
		errors.Is(err, dynamo.ErrInvalidGrid):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	log := s.logFor(r)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeError(w, status, err.Error())
}
