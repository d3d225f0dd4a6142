package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-interview/internal/bootstrap"
	"github.com/mind-engage/mindengage-interview/internal/engine"
	"github.com/mind-engage/mindengage-interview/internal/logging"
	"github.com/mind-engage/mindengage-interview/internal/submission"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondErr maps engine and collaborator errors onto status codes.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrInvalidAnswer), errors.Is(err, engine.ErrTerminal):
		status = http.StatusBadRequest
	case errors.Is(err, bootstrap.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrNotOpen):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotAtEnd),
		errors.Is(err, engine.ErrTimeUp),
		errors.Is(err, submission.ErrInFlight),
		errors.Is(err, submission.ErrAlreadySubmitted):
		status = http.StatusConflict
	case errors.Is(err, submission.ErrSubmissionFailed), errors.Is(err, bootstrap.ErrCollaborator):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		logging.Logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	http.Error(w, err.Error(), status)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
