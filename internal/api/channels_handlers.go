package api

import (
	"fmt"
	"net/http"
	"strings"
)

// ChannelByUsername serves the channel profile and the subscribe toggle:
//
//	GET    /api/channels/{username}            public profile
//	POST   /api/channels/{username}/subscribe  subscribe the caller
//	DELETE /api/channels/{username}/subscribe  unsubscribe the caller
func (h *Handler) ChannelByUsername(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/channels/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("channel username missing"))
		return
	}
	username := parts[0]

	if len(parts) == 2 && parts[1] == "subscribe" {
		h.subscribeToggle(w, r, username)
		return
	}
	if len(parts) > 1 {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown channel path"))
		return
	}

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	viewerID := ""
	if actor, ok := UserFromContext(r.Context()); ok {
		viewerID = actor.ID
	}
	profile, err := h.Store.ChannelProfile(username, viewerID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) subscribeToggle(w http.ResponseWriter, r *http.Request, username string) {
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	channel, exists := h.Store.FindUserByUsername(username)
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Errorf("channel %s not found", username))
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := h.Store.Subscribe(actor.ID, channel.ID); err != nil {
			writeStorageError(w, err)
			return
		}
	case http.MethodDelete:
		if err := h.Store.Unsubscribe(actor.ID, channel.ID); err != nil {
			writeStorageError(w, err)
			return
		}
	default:
		w.Header().Set("Allow", "POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	profile, err := h.Store.ChannelProfile(username, actor.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
