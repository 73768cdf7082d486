package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseRecorderDefaultsToOK(t *testing.T) {
	rec := NewResponseRecorder(httptest.NewRecorder())
	if rec.Status() != http.StatusOK {
		t.Fatalf("expected default 200, got %d", rec.Status())
	}
	rec.WriteHeader(http.StatusNotFound)
	if rec.Status() != http.StatusNotFound {
		t.Fatalf("expected 404 after WriteHeader, got %d", rec.Status())
	}
}

func TestHTTPMiddlewareRecordsStatusAndPath(t *testing.T) {
	recorder := New()
	handler := HTTPMiddleware(recorder, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/videos", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var out strings.Builder
	recorder.Write(&out)
	if !strings.Contains(out.String(), `vidtube_http_requests_total{method="POST",path="/api/videos",status="201"} 1`) {
		t.Fatalf("expected recorded request, got:\n%s", out.String())
	}
}
