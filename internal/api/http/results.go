package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-interview/internal/rbac"
	"github.com/mind-engage/mindengage-interview/internal/result"
)

type ResultStore interface {
	Get(ctx context.Context, sessionID string) (result.Result, error)
	List(ctx context.Context, opts result.ListOpts) ([]result.Result, error)
}

// GET /results/{sessionID}
// Outside an all-records grant only the caller's own result is visible.
func GetResultHandler(store ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if errors.Is(err, result.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if !rbac.Allows(r, "results:view", res.UserID) {
			// same answer as a missing result
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// GET /results?user_id=...&limit=50&offset=0
// Outside an all-records grant the user_id filter is forced to the caller.
func ListResultsHandler(store ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := rbac.OwnerFilter(r, "results:view")
		if !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if userID == "" {
			userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
		}
		list, err := store.List(r.Context(), result.ListOpts{
			UserID: userID,
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if list == nil {
			list = []result.Result{}
		}
		respondJSON(w, http.StatusOK, list)
	}
}
