package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCreateUserNormalizesAndValidates(t *testing.T) {
	store := newTestStore(t)

	user, err := store.CreateUser(CreateUserParams{
		Username:  "  Alice  ",
		Email:     " Alice@Example.COM ",
		FullName:  " Alice Liddell ",
		Password:  "password123",
		AvatarURL: "https://cdn.example/a.png",
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected folded username, got %q", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.FullName != "Alice Liddell" {
		t.Fatalf("expected trimmed full name, got %q", user.FullName)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Fatal("password must be stored hashed")
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("expected createdAt to be set")
	}
}

func TestCreateUserRejectsBlankFields(t *testing.T) {
	store := newTestStore(t)
	cases := []struct {
		name   string
		params CreateUserParams
	}{
		{"missing username", CreateUserParams{Email: "a@b.c", FullName: "A", Password: "password123", AvatarURL: "x"}},
		{"missing email", CreateUserParams{Username: "a", FullName: "A", Password: "password123", AvatarURL: "x"}},
		{"missing full name", CreateUserParams{Username: "a", Email: "a@b.c", Password: "password123", AvatarURL: "x"}},
		{"short password", CreateUserParams{Username: "a", Email: "a@b.c", FullName: "A", Password: "short", AvatarURL: "x"}},
		{"missing avatar", CreateUserParams{Username: "a", Email: "a@b.c", FullName: "A", Password: "password123"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.CreateUser(tc.params); !IsInvalidArgument(err) {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestCreateUserDuplicateConflicts(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, "alice")

	_, err := store.CreateUser(CreateUserParams{
		Username:  "ALICE",
		Email:     "other@example.com",
		FullName:  "Other",
		Password:  "password123",
		AvatarURL: "https://cdn.example/o.png",
	})
	if !IsConflict(err) {
		t.Fatalf("expected Conflict for case-folded duplicate username, got %v", err)
	}

	_, err = store.CreateUser(CreateUserParams{
		Username:  "bob",
		Email:     "Alice@Example.com",
		FullName:  "Bob",
		Password:  "password123",
		AvatarURL: "https://cdn.example/b.png",
	})
	if !IsConflict(err) {
		t.Fatalf("expected Conflict for duplicate email, got %v", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")

	got, err := store.AuthenticateUser("alice", "password123")
	if err != nil {
		t.Fatalf("authenticate by username failed: %v", err)
	}
	if got.ID != alice.ID {
		t.Fatalf("expected user %s, got %s", alice.ID, got.ID)
	}

	if _, err := store.AuthenticateUser("alice@example.com", "password123"); err != nil {
		t.Fatalf("authenticate by email failed: %v", err)
	}

	if _, err := store.AuthenticateUser("alice", "wrong-password"); !IsUnauthorized(err) {
		t.Fatalf("expected Unauthorized for bad password, got %v", err)
	}
	if _, err := store.AuthenticateUser("nobody", "password123"); !IsUnauthorized(err) {
		t.Fatalf("expected Unauthorized for unknown identifier, got %v", err)
	}
	if _, err := store.AuthenticateUser("alice", ""); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument for empty password, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")

	if err := store.ChangePassword(alice.ID, "wrong", "newpassword1"); !IsUnauthorized(err) {
		t.Fatalf("expected Unauthorized for wrong old password, got %v", err)
	}
	if err := store.ChangePassword(alice.ID, "password123", "short"); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument for short new password, got %v", err)
	}
	if err := store.ChangePassword("missing", "password123", "newpassword1"); !IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown user, got %v", err)
	}

	if err := store.ChangePassword(alice.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, err := store.AuthenticateUser("alice", "password123"); !IsUnauthorized(err) {
		t.Fatal("old password should no longer authenticate")
	}
	if _, err := store.AuthenticateUser("alice", "newpassword1"); err != nil {
		t.Fatalf("new password should authenticate: %v", err)
	}
}

func TestRefreshTokenHashLifecycle(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")

	if err := store.SetRefreshTokenHash(alice.ID, "hash-one"); err != nil {
		t.Fatalf("SetRefreshTokenHash returned error: %v", err)
	}
	got, _ := store.GetUser(alice.ID)
	if got.RefreshTokenHash != "hash-one" {
		t.Fatalf("expected stored hash, got %q", got.RefreshTokenHash)
	}

	// A replacement invalidates the previous token; only one hash is live.
	if err := store.SetRefreshTokenHash(alice.ID, "hash-two"); err != nil {
		t.Fatalf("SetRefreshTokenHash returned error: %v", err)
	}
	got, _ = store.GetUser(alice.ID)
	if got.RefreshTokenHash != "hash-two" {
		t.Fatalf("expected replaced hash, got %q", got.RefreshTokenHash)
	}

	if err := store.ClearRefreshTokenHash(alice.ID); err != nil {
		t.Fatalf("ClearRefreshTokenHash returned error: %v", err)
	}
	got, _ = store.GetUser(alice.ID)
	if got.RefreshTokenHash != "" {
		t.Fatalf("expected cleared hash, got %q", got.RefreshTokenHash)
	}

	if err := store.SetRefreshTokenHash("missing", "hash"); !IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown user, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	seedUser(t, store, "bob")

	name := "Alice P. Liddell"
	updated, err := store.UpdateAccount(alice.ID, AccountUpdate{FullName: &name})
	if err != nil {
		t.Fatalf("UpdateAccount returned error: %v", err)
	}
	if updated.FullName != name {
		t.Fatalf("expected updated name, got %q", updated.FullName)
	}

	taken := "bob@example.com"
	if _, err := store.UpdateAccount(alice.ID, AccountUpdate{Email: &taken}); !IsConflict(err) {
		t.Fatalf("expected Conflict for taken email, got %v", err)
	}

	blank := "   "
	if _, err := store.UpdateAccount(alice.ID, AccountUpdate{FullName: &blank}); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument for blank name, got %v", err)
	}

	if _, err := store.UpdateAccount("missing", AccountUpdate{FullName: &name}); !IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown user, got %v", err)
	}
}

func TestSanitizedStripsCredentialFields(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	if err := store.SetRefreshTokenHash(alice.ID, "hash"); err != nil {
		t.Fatalf("SetRefreshTokenHash returned error: %v", err)
	}
	got, _ := store.GetUser(alice.ID)
	clean := got.Sanitized()
	if clean.PasswordHash != "" || clean.RefreshTokenHash != "" || clean.WatchHistory != nil {
		t.Fatalf("Sanitized left sensitive fields: %+v", clean)
	}
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, "alice")

	store.persistOverride = func(dataset) error { return errors.New("disk full") }
	_, err := store.CreateUser(CreateUserParams{
		Username:  "bob",
		Email:     "bob@example.com",
		FullName:  "Bob",
		Password:  "password123",
		AvatarURL: "https://cdn.example/b.png",
	})
	if KindOf(err) != KindInternal {
		t.Fatalf("expected Internal on persist failure, got %v", err)
	}
	store.persistOverride = nil

	if _, ok := store.FindUserByUsername("bob"); ok {
		t.Fatal("failed persist must not leave the user behind")
	}
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")

	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}
	alice := seedUser(t, store, "alice")
	seedVideo(t, store, alice.ID, "welcome")

	reloaded, err := NewStorage(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if _, ok := reloaded.FindUserByUsername("alice"); !ok {
		t.Fatal("expected user to survive reload")
	}
	page, err := reloaded.ListVideos(VideoQuery{})
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected 1 video after reload, got %d", page.TotalCount)
	}
}
