package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"vidtube/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// WriteError is an exported helper for returning JSON API errors.
func WriteError(w http.ResponseWriter, status int, err error) {
	writeError(w, status, err)
}

// writeStorageError maps the repository error kinds onto HTTP status codes.
func writeStorageError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

func statusForError(err error) int {
	switch storage.KindOf(err) {
	case storage.KindInvalidArgument:
		return http.StatusBadRequest
	case storage.KindUnauthorized:
		return http.StatusUnauthorized
	case storage.KindForbidden:
		return http.StatusForbidden
	case storage.KindNotFound:
		return http.StatusNotFound
	case storage.KindConflict:
		return http.StatusConflict
	case storage.KindUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}
