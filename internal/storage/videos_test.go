package storage

import (
	"fmt"
	"strings"
	"testing"
)

func TestCreateVideoDefaults(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")

	video, err := store.CreateVideo(CreateVideoParams{
		OwnerID:      alice.ID,
		Title:        "  My First Video  ",
		Description:  " hello ",
		FileURL:      "https://cdn.example/v.mp4",
		ThumbnailURL: "https://cdn.example/t.jpg",
		Duration:     12.3456,
	})
	if err != nil {
		t.Fatalf("CreateVideo returned error: %v", err)
	}
	if !video.IsPublished {
		t.Fatal("new videos must start published")
	}
	if video.Views != 0 {
		t.Fatalf("expected zero views, got %d", video.Views)
	}
	if video.Title != "My First Video" {
		t.Fatalf("expected trimmed title, got %q", video.Title)
	}
	if video.Duration != 12.35 {
		t.Fatalf("expected duration rounded to two decimals, got %v", video.Duration)
	}
}

func TestCreateVideoValidation(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")

	base := CreateVideoParams{
		OwnerID:      alice.ID,
		Title:        "title",
		Description:  "description",
		FileURL:      "https://cdn.example/v.mp4",
		ThumbnailURL: "https://cdn.example/t.jpg",
	}

	missingTitle := base
	missingTitle.Title = "   "
	if _, err := store.CreateVideo(missingTitle); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument for blank title, got %v", err)
	}

	longTitle := base
	longTitle.Title = strings.Repeat("x", MaxTitleLength+1)
	if _, err := store.CreateVideo(longTitle); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument for oversized title, got %v", err)
	}

	missingFile := base
	missingFile.FileURL = ""
	if _, err := store.CreateVideo(missingFile); !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument for missing file, got %v", err)
	}

	unknownOwner := base
	unknownOwner.OwnerID = "missing"
	if _, err := store.CreateVideo(unknownOwner); !IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown owner, got %v", err)
	}
}

func TestRoundDuration(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{-5, 0},
		{12.344, 12.34},
		{12.345, 12.35},
		{100, 100},
	}
	for _, tc := range cases {
		if got := roundDuration(tc.in); got != tc.want {
			t.Errorf("roundDuration(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestUpdateVideoOwnershipAndThumbnail(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	video := seedVideo(t, store, alice.ID, "original")

	title := "renamed"
	if _, _, err := store.UpdateVideo(video.ID, bob.ID, VideoUpdate{Title: &title}); !IsForbidden(err) {
		t.Fatalf("expected Forbidden for non-owner, got %v", err)
	}
	if _, _, err := store.UpdateVideo("missing", alice.ID, VideoUpdate{Title: &title}); !IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	newThumb := "https://cdn.example/thumbnails/new.jpg"
	updated, previous, err := store.UpdateVideo(video.ID, alice.ID, VideoUpdate{Title: &title, ThumbnailURL: &newThumb})
	if err != nil {
		t.Fatalf("UpdateVideo returned error: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("expected renamed title, got %q", updated.Title)
	}
	if previous != video.ThumbnailURL {
		t.Fatalf("expected previous thumbnail %q back, got %q", video.ThumbnailURL, previous)
	}

	// Re-sending the same thumbnail is not a replacement.
	_, previous, err = store.UpdateVideo(video.ID, alice.ID, VideoUpdate{ThumbnailURL: &newThumb})
	if err != nil {
		t.Fatalf("UpdateVideo returned error: %v", err)
	}
	if previous != "" {
		t.Fatalf("expected no previous thumbnail for unchanged URL, got %q", previous)
	}
}

func TestDeleteVideo(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	video := seedVideo(t, store, alice.ID, "doomed")

	if _, err := store.DeleteVideo(video.ID, bob.ID); !IsForbidden(err) {
		t.Fatalf("expected Forbidden for non-owner, got %v", err)
	}

	removed, err := store.DeleteVideo(video.ID, alice.ID)
	if err != nil {
		t.Fatalf("DeleteVideo returned error: %v", err)
	}
	if removed.FileURL != video.FileURL || removed.ThumbnailURL != video.ThumbnailURL {
		t.Fatal("expected the removed record back for media release")
	}
	if _, ok := store.GetVideo(video.ID); ok {
		t.Fatal("video should be gone")
	}
	if _, err := store.DeleteVideo(video.ID, alice.ID); !IsNotFound(err) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}

func TestTogglePublishIsAnInvolution(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	video := seedVideo(t, store, alice.ID, "toggled")

	if _, err := store.TogglePublish(video.ID, bob.ID); !IsForbidden(err) {
		t.Fatalf("expected Forbidden for non-owner, got %v", err)
	}
	got, _ := store.GetVideo(video.ID)
	if !got.IsPublished {
		t.Fatal("forbidden toggle must not change state")
	}

	once, err := store.TogglePublish(video.ID, alice.ID)
	if err != nil {
		t.Fatalf("TogglePublish returned error: %v", err)
	}
	if once.IsPublished {
		t.Fatal("expected unpublished after first toggle")
	}
	twice, err := store.TogglePublish(video.ID, alice.ID)
	if err != nil {
		t.Fatalf("TogglePublish returned error: %v", err)
	}
	if !twice.IsPublished {
		t.Fatal("expected published again after second toggle")
	}
}

func TestListVideosQueryPagination(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")

	// Twelve matches interleaved with noise; creation order fixes createdAt
	// ranks 1..12 for the matches.
	for i := 1; i <= 12; i++ {
		seedVideo(t, store, alice.ID, fmt.Sprintf("Go tutorial part %02d", i))
		seedVideo(t, store, alice.ID, fmt.Sprintf("vlog %02d", i))
	}

	page, err := store.ListVideos(VideoQuery{
		Query:     "tutorial",
		SortBy:    SortByCreatedAt,
		Direction: SortDescending,
		Page:      2,
		Limit:     5,
	})
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if page.TotalCount != 12 {
		t.Fatalf("expected totalCount 12, got %d", page.TotalCount)
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected totalPages 3, got %d", page.TotalPages)
	}
	if len(page.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(page.Items))
	}
	// Descending by createdAt, page 2 holds ranks 6..10: parts 07 down to 03.
	for i, video := range page.Items {
		want := fmt.Sprintf("Go tutorial part %02d", 7-i)
		if video.Title != want {
			t.Fatalf("item %d: expected %q, got %q", i, want, video.Title)
		}
	}
}

func TestListVideosPagesConcatenateWithoutDuplicates(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	for i := 1; i <= 7; i++ {
		seedVideo(t, store, alice.ID, fmt.Sprintf("clip %d", i))
	}

	seen := make(map[string]bool)
	total := 0
	for pageNum := 1; ; pageNum++ {
		page, err := store.ListVideos(VideoQuery{Page: pageNum, Limit: 3, SortBy: SortByTitle})
		if err != nil {
			t.Fatalf("ListVideos page %d returned error: %v", pageNum, err)
		}
		for _, video := range page.Items {
			if seen[video.ID] {
				t.Fatalf("video %s appeared on more than one page", video.ID)
			}
			seen[video.ID] = true
		}
		total += len(page.Items)
		if pageNum >= page.TotalPages {
			break
		}
	}
	if total != 7 {
		t.Fatalf("concatenated pages hold %d videos, want 7", total)
	}
}

func TestListVideosFilters(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	seedVideo(t, store, alice.ID, "cooking with gas")
	seedVideo(t, store, bob.ID, "woodworking basics")

	page, err := store.ListVideos(VideoQuery{OwnerUsername: "ALICE"})
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if page.TotalCount != 1 || page.Items[0].OwnerID != alice.ID {
		t.Fatalf("expected only alice's video, got %+v", page.Items)
	}

	if _, err := store.ListVideos(VideoQuery{OwnerUsername: "ghost"}); !IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown owner, got %v", err)
	}

	// Query matches descriptions too.
	page, err = store.ListVideos(VideoQuery{Query: "WOODWORKING"})
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected case-insensitive match, got %d results", page.TotalCount)
	}

	// No match is a valid empty success.
	page, err = store.ListVideos(VideoQuery{Query: "underwater basket weaving"})
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if page.TotalCount != 0 || page.TotalPages != 0 || len(page.Items) != 0 {
		t.Fatalf("expected empty success, got %+v", page)
	}
}

func TestListVideosRejectsBadQueries(t *testing.T) {
	store := newTestStore(t)
	cases := []struct {
		name  string
		query VideoQuery
	}{
		{"negative page", VideoQuery{Page: -1}},
		{"negative limit", VideoQuery{Limit: -2}},
		{"limit above cap", VideoQuery{Limit: MaxPageSize + 1}},
		{"unknown sort field", VideoQuery{SortBy: SortField("rating")}},
		{"unknown direction", VideoQuery{Direction: SortDirection("sideways")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.ListVideos(tc.query); !IsInvalidArgument(err) {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestListVideosSortFields(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice")
	a := seedVideo(t, store, alice.ID, "beta")
	b := seedVideo(t, store, alice.ID, "alpha")

	if _, err := store.RecordView(alice.ID, a.ID); err != nil {
		t.Fatalf("RecordView returned error: %v", err)
	}

	byTitle, err := store.ListVideos(VideoQuery{SortBy: SortByTitle})
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if byTitle.Items[0].ID != b.ID {
		t.Fatalf("expected alpha first by title, got %q", byTitle.Items[0].Title)
	}

	byViews, err := store.ListVideos(VideoQuery{SortBy: SortByViews, Direction: SortDescending})
	if err != nil {
		t.Fatalf("ListVideos returned error: %v", err)
	}
	if byViews.Items[0].ID != a.ID {
		t.Fatalf("expected viewed video first, got %q", byViews.Items[0].Title)
	}
}
