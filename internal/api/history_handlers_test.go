package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWatchHistory(t *testing.T) {
	h, _ := newTestHandler(t)
	owner := seedAccount(t, h, "alice")
	viewer := seedAccount(t, h, "bob")
	video := seedVideoRecord(t, h, owner.ID, "clip")
	route := h.RequireAuth(http.HandlerFunc(h.WatchHistory))

	req := httptest.NewRequest(http.MethodGet, "/api/users/history", nil)
	req.Header.Set("Authorization", bearerFor(t, h, viewer.ID))
	rec := httptest.NewRecorder()
	route.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var empty historyResponse
	decodeBody(t, rec, &empty)
	if len(empty.Items) != 0 {
		t.Fatalf("expected empty history, got %+v", empty.Items)
	}
	// An empty history still serializes as a JSON array.
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Fatalf("expected items array in %q", rec.Body.String())
	}

	if _, err := h.Store.RecordView(viewer.ID, video.ID); err != nil {
		t.Fatalf("RecordView returned error: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/history", nil)
	req.Header.Set("Authorization", bearerFor(t, h, viewer.ID))
	rec = httptest.NewRecorder()
	route.ServeHTTP(rec, req)
	var got historyResponse
	decodeBody(t, rec, &got)
	if len(got.Items) != 1 {
		t.Fatalf("expected one entry, got %d", len(got.Items))
	}
	item := got.Items[0]
	if item.VideoID != video.ID {
		t.Fatalf("unexpected video id %q", item.VideoID)
	}
	if item.Owner == nil || item.Owner.Username != "alice" {
		t.Fatalf("expected owner resolved, got %+v", item.Owner)
	}

	rec = httptest.NewRecorder()
	route.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/history", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}
