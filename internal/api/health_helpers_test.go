package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthReportsComponents(t *testing.T) {
	h, fake := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Status   string            `json:"status"`
		Services []componentStatus `json:"services"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("status = %q", payload.Status)
	}
	byName := map[string]componentStatus{}
	for _, component := range payload.Services {
		byName[component.Component] = component
	}
	if byName["datastore"].Status != "ok" {
		t.Fatalf("datastore status = %q", byName["datastore"].Status)
	}
	if byName["media_store"].Status != "ok" {
		t.Fatalf("media_store status = %q", byName["media_store"].Status)
	}

	fake.disabled = true
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("disabled media store is not degraded, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
