package api

import (
	"fmt"
	"net/http"

	"vidtube/internal/models"
)

type historyResponse struct {
	Items []models.HistoryItem `json:"items"`
}

// WatchHistory returns the caller's watch history, newest first.
func (h *Handler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	items, err := h.Store.WatchHistory(user.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Items: items})
}
