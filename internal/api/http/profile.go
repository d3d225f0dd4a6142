package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-interview/internal/profile"
	"github.com/mind-engage/mindengage-interview/internal/rbac"
)

type ProfileStore interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	Put(ctx context.Context, p profile.Profile) (profile.Profile, error)
}

// GET /profile
func GetProfileHandler(store ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), rbac.SubjectFrom(r.Context()).ID)
		if errors.Is(err, profile.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// PUT /profile  (manual form; always written for the caller)
func PutProfileHandler(store ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p profile.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p.UserID = rbac.SubjectFrom(r.Context()).ID
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := store.Put(r.Context(), p)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}
