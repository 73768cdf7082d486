package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestObserveRequestAggregates(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("get", "/api/videos", http.StatusOK, 100*time.Millisecond)
	recorder.ObserveRequest("GET", "/api/videos", http.StatusOK, 200*time.Millisecond)

	var out strings.Builder
	recorder.Write(&out)
	body := out.String()

	if !strings.Contains(body, `vidtube_http_requests_total{method="GET",path="/api/videos",status="200"} 2`) {
		t.Fatalf("expected aggregated request count, got:\n%s", body)
	}
	if !strings.Contains(body, `vidtube_http_request_duration_seconds_count{method="GET",path="/api/videos",status="200"} 2`) {
		t.Fatalf("expected duration count, got:\n%s", body)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/api/videos", "/api/videos"},
		{"/api/videos/1a79b2c3d4e5f60718293a4b", "/api/videos/:id"},
		{"/api/videos/abc123def/toggle-publish", "/api/videos/:id/toggle-publish"},
		{"/api/channels/alice", "/api/channels/alice"},
		{"/api/videos/", "/api/videos"},
	}
	for _, tc := range cases {
		if got := normalizePath(tc.in); got != tc.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEventCounters(t *testing.T) {
	recorder := New()
	recorder.ObserveVideoEvent("Upload")
	recorder.ObserveVideoEvent("upload")
	recorder.ObserveAuthEvent("login_failure")
	recorder.ObserveAuthEvent("")
	recorder.ObserveMediaAttempt("store")
	recorder.ObserveMediaFailure("store")

	var out strings.Builder
	recorder.Write(&out)
	body := out.String()

	if !strings.Contains(body, `vidtube_video_events_total{event="upload"} 2`) {
		t.Fatalf("expected folded video events, got:\n%s", body)
	}
	if !strings.Contains(body, `vidtube_auth_events_total{event="login_failure"} 1`) {
		t.Fatalf("expected auth event, got:\n%s", body)
	}
	if !strings.Contains(body, `vidtube_auth_events_total{event="unknown"} 1`) {
		t.Fatalf("blank event should count as unknown, got:\n%s", body)
	}
	if !strings.Contains(body, `vidtube_media_attempts_total{operation="store"} 1`) {
		t.Fatalf("expected media attempt, got:\n%s", body)
	}
	if !strings.Contains(body, `vidtube_media_failures_total{operation="store"} 1`) {
		t.Fatalf("expected media failure, got:\n%s", body)
	}
}

func TestUploadGaugeNeverNegative(t *testing.T) {
	recorder := New()
	recorder.UploadFinished()
	if got := recorder.InflightUploads(); got != 0 {
		t.Fatalf("gauge went negative: %d", got)
	}

	recorder.UploadStarted()
	recorder.UploadStarted()
	recorder.UploadFinished()
	if got := recorder.InflightUploads(); got != 1 {
		t.Fatalf("expected 1 inflight upload, got %d", got)
	}
}

func TestRecorderConcurrency(t *testing.T) {
	recorder := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				recorder.ObserveRequest("GET", "/api/videos", 200, time.Millisecond)
				recorder.ObserveVideoEvent("view")
				recorder.UploadStarted()
				recorder.UploadFinished()
			}
		}()
	}
	wg.Wait()

	var out strings.Builder
	recorder.Write(&out)
	if !strings.Contains(out.String(), `vidtube_http_requests_total{method="GET",path="/api/videos",status="200"} 800`) {
		t.Fatalf("lost request observations:\n%s", out.String())
	}
	if got := recorder.InflightUploads(); got != 0 {
		t.Fatalf("expected settled gauge, got %d", got)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("GET", "/healthz", 200, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "vidtube_inflight_uploads 0") {
		t.Fatalf("expected gauge in exposition, got:\n%s", rec.Body.String())
	}
}

func TestReset(t *testing.T) {
	recorder := New()
	recorder.ObserveVideoEvent("upload")
	recorder.UploadStarted()
	recorder.Reset()

	var out strings.Builder
	recorder.Write(&out)
	if strings.Contains(out.String(), `event="upload"`) {
		t.Fatal("reset should clear counters")
	}
	if recorder.InflightUploads() != 0 {
		t.Fatal("reset should clear the gauge")
	}
}
