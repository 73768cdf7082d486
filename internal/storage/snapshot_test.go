package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	video := seedVideo(t, store, alice.ID, "clip")
	if _, err := store.RecordView(bob.ID, video.ID); err != nil {
		t.Fatalf("RecordView returned error: %v", err)
	}
	if err := store.Subscribe(bob.ID, alice.ID); err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	exported := store.ExportSnapshot()
	loaded, err := LoadSnapshotFromJSON(path)
	if err != nil {
		t.Fatalf("LoadSnapshotFromJSON returned error: %v", err)
	}

	for name, snapshot := range map[string]*Snapshot{"exported": exported, "loaded": loaded} {
		counts := snapshot.Counts()
		if counts.Users != 2 {
			t.Errorf("%s: expected 2 users, got %d", name, counts.Users)
		}
		if counts.Videos != 1 {
			t.Errorf("%s: expected 1 video, got %d", name, counts.Videos)
		}
		if counts.WatchEntries != 1 {
			t.Errorf("%s: expected 1 watch entry, got %d", name, counts.WatchEntries)
		}
		if counts.Subscriptions != 1 {
			t.Errorf("%s: expected 1 subscription, got %d", name, counts.Subscriptions)
		}
	}

	if loaded.Users[alice.ID].Username != "alice" {
		t.Fatal("loaded snapshot lost user data")
	}
}

func TestLoadSnapshotFromJSONMissingFile(t *testing.T) {
	if _, err := LoadSnapshotFromJSON(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportSnapshotRequiresPostgres(t *testing.T) {
	store := newTestStore(t)
	if err := ImportSnapshotToPostgres(context.Background(), store, &Snapshot{}); err == nil {
		t.Fatal("expected error when importing into the JSON store")
	}
	if err := ImportSnapshotToPostgres(context.Background(), store, nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}
