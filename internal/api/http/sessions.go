package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-interview/internal/bootstrap"
	"github.com/mind-engage/mindengage-interview/internal/engine"
	"github.com/mind-engage/mindengage-interview/internal/interview"
	"github.com/mind-engage/mindengage-interview/internal/rbac"
)

// Sessions is the page owner the session routes drive.
type Sessions interface {
	Enter(ctx context.Context, req bootstrap.Request) (bootstrap.Entry, *engine.State, error)
	View(ctx context.Context, id, userID string) (engine.State, error)
	Draft(ctx context.Context, id, userID, value string) (engine.State, error)
	Advance(ctx context.Context, id, userID string, dir interview.Direction, value *string) (engine.State, error)
	Finish(ctx context.Context, id, userID string, value *string) (engine.State, error)
}

type enterResponse struct {
	Kind      bootstrap.Kind `json:"kind"`
	SessionID string         `json:"session_id,omitempty"`
	Redirect  string         `json:"redirect,omitempty"`
	Error     string         `json:"error,omitempty"`
	State     *engine.State  `json:"state,omitempty"`
}

// POST /sessions/{sessionID}/enter
// {sessionID} is a concrete id or "new". Idempotency-Key names one "start"
// action so a repeated request lands on the same session.
func EnterSessionHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sub := rbac.SubjectFrom(r.Context()).ID
		entry, st, err := s.Enter(r.Context(), bootstrap.Request{
			SessionID: id,
			UserID:    sub,
			EntryKey:  strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		resp := enterResponse{Kind: entry.Kind, SessionID: entry.SessionID(), State: st}
		status := http.StatusOK
		switch entry.Kind {
		case bootstrap.Created:
			status = http.StatusCreated
			resp.Redirect = "/sessions/" + entry.SessionID()
		case bootstrap.Completed:
			resp.Redirect = "/results/" + entry.SessionID()
		case bootstrap.Expired:
			status = http.StatusGone
			resp.Error = "session expired; start a new interview"
		case bootstrap.PrerequisiteMissing:
			status = http.StatusConflict
			resp.Redirect = "/profile"
			resp.Error = "create your profile before starting an interview"
		}
		respondJSON(w, status, resp)
	}
}

// GET /sessions/{sessionID}
// Reviewers may watch any live page; everyone else only their own.
func GetSessionHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := rbac.OwnerFilter(r, "session:view")
		if !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		st, err := s.View(r.Context(), chi.URLParam(r, "sessionID"), owner)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

// PUT /sessions/{sessionID}/draft  {"answer":"..."}
func DraftHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answer string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		st, err := s.Draft(r.Context(), chi.URLParam(r, "sessionID"), rbac.SubjectFrom(r.Context()).ID, req.Answer)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

// POST /sessions/{sessionID}/advance  {"direction":"forward|backward","answer":"..."}
// Without "answer" the current draft is merged.
func AdvanceHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Direction interview.Direction `json:"direction"`
			Answer    *string             `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Direction != interview.Forward && req.Direction != interview.Backward {
			http.Error(w, "direction must be forward or backward", http.StatusBadRequest)
			return
		}
		st, err := s.Advance(r.Context(), chi.URLParam(r, "sessionID"), rbac.SubjectFrom(r.Context()).ID, req.Direction, req.Answer)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

// POST /sessions/{sessionID}/finish  {"answer":"..."}; an empty body is allowed.
func FinishHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answer *string `json:"answer"`
		}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}
		st, err := s.Finish(r.Context(), chi.URLParam(r, "sessionID"), rbac.SubjectFrom(r.Context()).ID, req.Answer)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}
