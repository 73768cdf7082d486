package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates in-memory counters for HTTP requests, video lifecycle
// events, media-store calls, and auth activity. Writers coordinate via a
// RWMutex; the upload gauge is atomic.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	videoEvents     map[string]uint64
	authEvents      map[string]uint64
	mediaAttempts   map[string]uint64
	mediaFailures   map[string]uint64
	inflightUploads atomic.Int64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers
// can immediately record metrics without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		videoEvents:     make(map[string]uint64),
		authEvents:      make(map[string]uint64),
		mediaAttempts:   make(map[string]uint64),
		mediaFailures:   make(map[string]uint64),
	}
}

// Default returns the singleton Recorder shared by packages that do not need
// a custom instrumentation pipeline.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest normalizes the request label set and accumulates totals for
// request count and cumulative duration by HTTP method, normalized path, and
// status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveVideoEvent records a video lifecycle event such as "upload",
// "update", "delete", "publish_toggle", or "view".
func (r *Recorder) ObserveVideoEvent(event string) {
	normalized := normalizeName(event)
	r.mu.Lock()
	r.videoEvents[normalized]++
	r.mu.Unlock()
}

// ObserveAuthEvent records an auth event such as "register", "login",
// "refresh", "logout", or "login_failure".
func (r *Recorder) ObserveAuthEvent(event string) {
	normalized := normalizeName(event)
	r.mu.Lock()
	r.authEvents[normalized]++
	r.mu.Unlock()
}

// ObserveMediaAttempt records a media-store operation attempt keyed by
// operation name ("store", "release").
func (r *Recorder) ObserveMediaAttempt(operation string) {
	op := normalizeName(operation)
	r.mu.Lock()
	r.mediaAttempts[op]++
	r.mu.Unlock()
}

// ObserveMediaFailure records a failed media-store operation. The caller
// should also record the attempt separately.
func (r *Recorder) ObserveMediaFailure(operation string) {
	op := normalizeName(operation)
	r.mu.Lock()
	r.mediaFailures[op]++
	r.mu.Unlock()
}

// UploadStarted increments the in-flight upload gauge.
func (r *Recorder) UploadStarted() {
	r.inflightUploads.Add(1)
}

// UploadFinished decrements the in-flight upload gauge, guarding against
// negative counts when concurrent updates race.
func (r *Recorder) UploadFinished() {
	for {
		current := r.inflightUploads.Load()
		if current <= 0 {
			return
		}
		if r.inflightUploads.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// InflightUploads exposes the current gauge of uploads being processed.
func (r *Recorder) InflightUploads() int64 {
	return r.inflightUploads.Load()
}

// Reset clears all counters and gauges on the recorder. It is intended for
// test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.videoEvents = make(map[string]uint64)
	r.authEvents = make(map[string]uint64)
	r.mediaAttempts = make(map[string]uint64)
	r.mediaFailures = make(map[string]uint64)
	r.inflightUploads.Store(0)
}

// Handler exposes the Recorder as an http.Handler that writes Prometheus text
// exposition data with the appropriate content type.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the Recorder's metrics in Prometheus text format, sorting
// label sets to provide stable output for scrapes and tests.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()
	videoEvents := sortedKeys(r.videoEvents)
	authEvents := sortedKeys(r.authEvents)
	mediaOps := r.sortedMediaOperations()

	fmt.Fprintln(w, "# HELP vidtube_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE vidtube_http_requests_total counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "vidtube_http_requests_total{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP vidtube_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE vidtube_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		duration := r.requestDuration[label].Seconds()
		fmt.Fprintf(w, "vidtube_http_request_duration_seconds_sum{method=\"%s\",path=\"%s\",status=\"%s\"} %f\n", label.method, label.path, label.status, duration)
	}

	fmt.Fprintln(w, "# HELP vidtube_http_request_duration_seconds_count Total number of observations for request durations")
	fmt.Fprintln(w, "# TYPE vidtube_http_request_duration_seconds_count counter")
	for _, label := range requestLabels {
		count := r.requestCount[label]
		fmt.Fprintf(w, "vidtube_http_request_duration_seconds_count{method=\"%s\",path=\"%s\",status=\"%s\"} %d\n", label.method, label.path, label.status, count)
	}

	fmt.Fprintln(w, "# HELP vidtube_video_events_total Video lifecycle events by type")
	fmt.Fprintln(w, "# TYPE vidtube_video_events_total counter")
	for _, event := range videoEvents {
		fmt.Fprintf(w, "vidtube_video_events_total{event=\"%s\"} %d\n", event, r.videoEvents[event])
	}

	fmt.Fprintln(w, "# HELP vidtube_auth_events_total Authentication events by type")
	fmt.Fprintln(w, "# TYPE vidtube_auth_events_total counter")
	for _, event := range authEvents {
		fmt.Fprintf(w, "vidtube_auth_events_total{event=\"%s\"} %d\n", event, r.authEvents[event])
	}

	fmt.Fprintln(w, "# HELP vidtube_media_attempts_total Media-store operations attempted by action")
	fmt.Fprintln(w, "# TYPE vidtube_media_attempts_total counter")
	for _, op := range mediaOps {
		fmt.Fprintf(w, "vidtube_media_attempts_total{operation=\"%s\"} %d\n", op, r.mediaAttempts[op])
	}

	fmt.Fprintln(w, "# HELP vidtube_media_failures_total Media-store operation failures by action")
	fmt.Fprintln(w, "# TYPE vidtube_media_failures_total counter")
	for _, op := range mediaOps {
		fmt.Fprintf(w, "vidtube_media_failures_total{operation=\"%s\"} %d\n", op, r.mediaFailures[op])
	}

	fmt.Fprintln(w, "# HELP vidtube_inflight_uploads Current number of uploads being processed")
	fmt.Fprintln(w, "# TYPE vidtube_inflight_uploads gauge")
	fmt.Fprintf(w, "vidtube_inflight_uploads %d\n", r.inflightUploads.Load())
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func (r *Recorder) sortedMediaOperations() []string {
	seen := make(map[string]struct{}, len(r.mediaAttempts)+len(r.mediaFailures))
	for op := range r.mediaAttempts {
		seen[op] = struct{}{}
	}
	for op := range r.mediaFailures {
		seen[op] = struct{}{}
	}
	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if looksLikeIdentifier(part) {
			parts[i] = ":id"
			continue
		}
	}
	normalized := strings.Join(parts, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasSuffix(normalized, "/") && len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

func looksLikeIdentifier(segment string) bool {
	if len(segment) >= 16 {
		return true
	}
	digitCount := 0
	for _, r := range segment {
		if r >= '0' && r <= '9' {
			digitCount++
		}
	}
	return digitCount >= 3
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

// ObserveRequest is a helper on the default recorder.
func ObserveRequest(method, path string, status int, duration time.Duration) {
	defaultRecorder.ObserveRequest(method, path, status, duration)
}

// ObserveVideoEvent records a video lifecycle event on the default recorder.
func ObserveVideoEvent(event string) {
	defaultRecorder.ObserveVideoEvent(event)
}

// ObserveAuthEvent records an auth event on the default recorder.
func ObserveAuthEvent(event string) {
	defaultRecorder.ObserveAuthEvent(event)
}

// ObserveMediaAttempt records a media-store attempt on the default recorder.
func ObserveMediaAttempt(operation string) {
	defaultRecorder.ObserveMediaAttempt(operation)
}

// ObserveMediaFailure records a media-store failure on the default recorder.
func ObserveMediaFailure(operation string) {
	defaultRecorder.ObserveMediaFailure(operation)
}

// Handler exposes the default recorder as an HTTP handler.
func Handler() http.Handler {
	return defaultRecorder.Handler()
}
