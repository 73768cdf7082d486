package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vidtube/internal/auth"
	"vidtube/internal/media"
	"vidtube/internal/models"
	"vidtube/internal/observability/metrics"
	"vidtube/internal/storage"
)

// fakeMediaStore records the objects it stored and released so handler tests
// can assert on upload and cleanup behaviour without a real bucket.
type fakeMediaStore struct {
	mu        sync.Mutex
	disabled  bool
	failStore bool
	duration  float64
	stored    []string
	released  []string
}

func (f *fakeMediaStore) Enabled() bool { return !f.disabled }

func (f *fakeMediaStore) Store(ctx context.Context, key, contentType string, body []byte) (media.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStore {
		return media.StoredObject{}, fmt.Errorf("bucket unavailable")
	}
	url := "https://media.test/" + key
	f.stored = append(f.stored, url)
	return media.StoredObject{Key: key, URL: url, DurationSeconds: f.duration}, nil
}

func (f *fakeMediaStore) Release(ctx context.Context, objectURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, objectURL)
	return nil
}

func (f *fakeMediaStore) releasedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func (f *fakeMediaStore) storedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

func newTestHandler(t *testing.T) (*Handler, *fakeMediaStore) {
	t.Helper()
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}
	tokens, err := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	fake := &fakeMediaStore{duration: 42.5}
	h := NewHandler(store, tokens, fake)
	h.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	h.Metrics = metrics.New()
	h.Uploads = NewUploadProcessor(UploadProcessorConfig{
		Media:   fake,
		Logger:  h.Logger,
		Metrics: h.Metrics,
	})
	return h, fake
}

func seedAccount(t *testing.T, h *Handler, username string) models.User {
	t.Helper()
	user, err := h.Store.CreateUser(storage.CreateUserParams{
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Test " + username,
		Password:  "password123",
		AvatarURL: "https://media.test/avatars/" + username + ".png",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) returned error: %v", username, err)
	}
	return user
}

// bearerFor issues an access token for the user so tests can call the
// protected routes through RequireAuth.
func bearerFor(t *testing.T, h *Handler, userID string) string {
	t.Helper()
	pair, _, err := h.Tokens.IssuePair(userID)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	return "Bearer " + pair.AccessToken
}

type multipartFile struct {
	field    string
	filename string
	content  string
}

func multipartBody(t *testing.T, fields map[string]string, files []multipartFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			t.Fatalf("create file part %s: %v", file.field, err)
		}
		if _, err := part.Write([]byte(file.content)); err != nil {
			t.Fatalf("write file part %s: %v", file.field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response body: %v (body %q)", err, rec.Body.String())
	}
}
