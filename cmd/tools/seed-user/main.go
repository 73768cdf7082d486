// Command seed-user creates an account directly in the datastore. It exists
// for bootstrapping fresh environments and test fixtures without going
// through the registration endpoint (which requires a media store for the
// avatar upload).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"vidtube/internal/storage"
)

func main() {
	dataPath := flag.String("data", "data/store.json", "path to the JSON datastore file")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string; when set the user is created in Postgres instead of the JSON file")
	username := flag.String("username", "", "username for the new account")
	email := flag.String("email", "", "email for the new account")
	fullName := flag.String("full-name", "", "display name for the new account")
	password := flag.String("password", "", "password for the new account (falls back to VIDTUBE_SEED_PASSWORD)")
	avatarURL := flag.String("avatar-url", "", "avatar URL for the new account")
	coverImageURL := flag.String("cover-image-url", "", "optional cover image URL")
	flag.Parse()

	pass := *password
	if pass == "" {
		pass = os.Getenv("VIDTUBE_SEED_PASSWORD")
	}
	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" || pass == "" {
		fatalf("username, email, and password are required")
	}

	dsn := strings.TrimSpace(*postgresDSN)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("VIDTUBE_POSTGRES_DSN"))
	}

	var repo storage.Repository
	var err error
	if dsn != "" {
		repo, err = storage.NewPostgresRepository(dsn)
	} else {
		repo, err = storage.NewJSONRepository(*dataPath)
	}
	if err != nil {
		fatalf("open datastore: %v", err)
	}
	defer repo.Close(context.Background())

	user, err := repo.CreateUser(storage.CreateUserParams{
		Username:      *username,
		Email:         *email,
		FullName:      *fullName,
		Password:      pass,
		AvatarURL:     *avatarURL,
		CoverImageURL: *coverImageURL,
	})
	if err != nil {
		fatalf("create user: %v", err)
	}
	fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
