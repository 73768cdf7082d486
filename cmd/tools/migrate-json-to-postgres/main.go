// Command migrate-json-to-postgres copies a JSON datastore file into a
// Postgres database so a deployment can switch storage drivers without losing
// accounts, videos, watch history, or subscriptions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"vidtube/internal/storage"
)

func main() {
	dataPath := flag.String("data", "data/store.json", "path to the JSON datastore file")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string (falls back to VIDTUBE_POSTGRES_DSN, then DATABASE_URL)")
	skipMigrations := flag.Bool("skip-migrations", false, "skip applying schema migrations before the import")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout for the import")
	dryRun := flag.Bool("dry-run", false, "print snapshot counts without importing")
	flag.Parse()

	dsn := strings.TrimSpace(*postgresDSN)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("VIDTUBE_POSTGRES_DSN"))
	}
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	snapshot, err := storage.LoadSnapshotFromJSON(*dataPath)
	if err != nil {
		fatalf("load snapshot: %v", err)
	}
	counts := snapshot.Counts()
	fmt.Printf("snapshot: %d users, %d videos, %d watch entries, %d subscriptions\n",
		counts.Users, counts.Videos, counts.WatchEntries, counts.Subscriptions)

	if *dryRun {
		return
	}
	if dsn == "" {
		fatalf("a Postgres DSN is required (use -postgres-dsn or VIDTUBE_POSTGRES_DSN)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if !*skipMigrations {
		if err := storage.MigratePostgres(ctx, dsn); err != nil {
			fatalf("apply migrations: %v", err)
		}
	}

	repo, err := storage.NewPostgresRepository(dsn)
	if err != nil {
		fatalf("open postgres repository: %v", err)
	}
	defer repo.Close(context.Background())

	if err := storage.ImportSnapshotToPostgres(ctx, repo, snapshot); err != nil {
		fatalf("import snapshot: %v", err)
	}
	fmt.Println("import complete")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
