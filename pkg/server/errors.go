package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/token"
	"mercator-hq/rsql/pkg/store"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Position   *token.Position        `json:"position,omitempty"`
	Query      string                 `json:"query,omitempty"`
	Operator   string                 `json:"operator,omitempty"`
	Expected   *rsqlerrors.ArityRange `json:"expected,omitempty"`
	Actual     int                    `json:"actual,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
}

// writeError maps err to a status code and writes it as JSON. RSQL errors
// carry their position and suggestion to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Type: "internal", Message: "An internal error occurred."}

	var rerr *rsqlerrors.Error
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &rerr):
		status = http.StatusBadRequest
		body = errorBody{
			Type:       string(rerr.Type),
			Message:    rerr.Message,
			Query:      rerr.Query,
			Operator:   rerr.Operator,
			Expected:   rerr.Expected,
			Actual:     rerr.Actual,
			Suggestion: rerr.Suggestion,
		}
		if rerr.Position.IsValid() {
			pos := rerr.Position
			body.Position = &pos
		}
	case errors.As(err, &maxBytes):
		status = http.StatusRequestEntityTooLarge
		body = errorBody{Type: "request", Message: err.Error()}
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		body = errorBody{Type: "not_found", Message: err.Error()}
	case errors.Is(err, errUnauthorized):
		status = http.StatusUnauthorized
		body = errorBody{Type: "unauthorized", Message: "A valid API key is required."}
	case errors.Is(err, errRateLimited):
		status = http.StatusTooManyRequests
		body = errorBody{Type: "rate_limited", Message: "Too many requests, retry later."}
	case errors.Is(err, store.ErrInvalidCollection),
		errors.Is(err, store.ErrInvalidDocument),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
		body = errorBody{Type: "request", Message: err.Error()}
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	writeJSON(w, status, errorResponse{Error: body})
}

var (
	errBadRequest   = errors.New("bad request")
	errUnauthorized = errors.New("unauthorized")
	errRateLimited  = errors.New("rate limited")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
