package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vidtube/internal/observability/logging"
)

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	var seenID string
	handler := requestIDMiddlewareWithGenerator(nil, func() string { return "generated-id" },
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID, _ = logging.RequestIDFromContext(r.Context())
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	if seenID != "generated-id" {
		t.Fatalf("context request id = %q", seenID)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "generated-id" {
		t.Fatalf("response header = %q", got)
	}
}

func TestRequestIDMiddlewareKeepsClientID(t *testing.T) {
	var seenID string
	handler := requestIDMiddleware(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.Header.Set("X-Request-Id", "  client-supplied  ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seenID != "client-supplied" {
		t.Fatalf("expected trimmed client id, got %q", seenID)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "client-supplied" {
		t.Fatalf("response header = %q", got)
	}
}

func TestNewRequestIDIsUnique(t *testing.T) {
	a := newRequestID()
	b := newRequestID()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
