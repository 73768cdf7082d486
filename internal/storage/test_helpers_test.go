package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"vidtube/internal/models"
)

// newTestStore returns a JSON store backed by a temp file with a
// deterministic, strictly increasing clock.
func newTestStore(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return store
}

func seedUser(t *testing.T, store *Storage, username string) models.User {
	t.Helper()
	user, err := store.CreateUser(CreateUserParams{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		FullName:  "Test " + username,
		Password:  "password123",
		AvatarURL: "https://cdn.example/avatars/" + username + ".png",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) returned error: %v", username, err)
	}
	return user
}

func seedVideo(t *testing.T, store *Storage, ownerID, title string) models.Video {
	t.Helper()
	video, err := store.CreateVideo(CreateVideoParams{
		OwnerID:      ownerID,
		Title:        title,
		Description:  "description for " + title,
		FileURL:      "https://cdn.example/videos/" + title + ".mp4",
		ThumbnailURL: "https://cdn.example/thumbnails/" + title + ".jpg",
		Duration:     120.5,
	})
	if err != nil {
		t.Fatalf("CreateVideo(%s) returned error: %v", title, err)
	}
	return video
}
