package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"vidtube/internal/models"
)

// Snapshot is a complete JSON-serialisable view of a datastore: every user
// (with embedded watch history), every video, and the subscription edges
// keyed channel → subscriber → subscribedAt. It is the interchange format of
// the migrate-json-to-postgres tool.
type Snapshot struct {
	Users         map[string]models.User          `json:"users"`
	Videos        map[string]models.Video         `json:"videos"`
	Subscriptions map[string]map[string]time.Time `json:"subscriptions"`
}

// SnapshotCounts summarises a Snapshot so operators can sanity-check how much
// data an import will move.
type SnapshotCounts struct {
	Users         int
	Videos        int
	WatchEntries  int
	Subscriptions int
}

// LoadSnapshotFromJSON reads a JSON datastore file from disk. The file layout
// is exactly what the JSON store persists, so an export step is not needed.
func LoadSnapshotFromJSON(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var snapshot Snapshot
	if err := decoder.Decode(&snapshot); err != nil {
		if err == io.EOF {
			snapshot.ensureInitialized()
			return &snapshot, nil
		}
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	snapshot.ensureInitialized()
	return &snapshot, nil
}

// ExportSnapshot captures the current contents of the JSON store.
func (s *Storage) ExportSnapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := cloneDataset(s.data)
	snapshot := &Snapshot{
		Users:         cloned.Users,
		Videos:        cloned.Videos,
		Subscriptions: cloned.Subscriptions,
	}
	snapshot.ensureInitialized()
	return snapshot
}

func (s *Snapshot) ensureInitialized() {
	if s.Users == nil {
		s.Users = make(map[string]models.User)
	}
	if s.Videos == nil {
		s.Videos = make(map[string]models.Video)
	}
	if s.Subscriptions == nil {
		s.Subscriptions = make(map[string]map[string]time.Time)
	}
}

// Counts walks a Snapshot and tallies each collection.
func (s *Snapshot) Counts() SnapshotCounts {
	if s == nil {
		return SnapshotCounts{}
	}
	counts := SnapshotCounts{
		Users:  len(s.Users),
		Videos: len(s.Videos),
	}
	for _, user := range s.Users {
		counts.WatchEntries += len(user.WatchHistory)
	}
	for _, subscribers := range s.Subscriptions {
		counts.Subscriptions += len(subscribers)
	}
	return counts
}

// ImportSnapshotToPostgres bulk-loads a Snapshot into a Postgres-backed
// repository inside a single transaction. Existing rows with matching IDs are
// replaced.
func ImportSnapshotToPostgres(ctx context.Context, repo Repository, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is required")
	}
	pgRepo, ok := repo.(*postgresRepository)
	if !ok {
		return fmt.Errorf("postgres repository required for snapshot import")
	}
	snapshot.ensureInitialized()
	return pgRepo.importSnapshot(ctx, snapshot)
}
