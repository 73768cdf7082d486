package storage

import (
	"sync"
	"time"

	"golang.org/x/text/cases"

	"vidtube/internal/models"
)

const (
	passwordHashSaltLength = 16
	passwordHashKeyLength  = 32
	passwordHashIterations = 120000

	// MaxTitleLength bounds video titles at creation and update time.
	MaxTitleLength = 200
	// MaxDescriptionLength bounds video descriptions.
	MaxDescriptionLength = 5000

	defaultPageSize = 10
	// MaxPageSize caps the listing page size to keep result sets bounded.
	MaxPageSize = 100
)

type dataset struct {
	Users         map[string]models.User          `json:"users"`
	Videos        map[string]models.Video         `json:"videos"`
	Subscriptions map[string]map[string]time.Time `json:"subscriptions"`
}

type Storage struct {
	mu       sync.RWMutex
	filePath string
	data     dataset
	// persistOverride allows tests to intercept persist operations.
	persistOverride func(dataset) error
	now             func() time.Time
}

var usernameFolder = cases.Fold()

// FoldUsername canonicalises a username for storage and lookup. Uniqueness and
// owner resolution compare folded forms.
func FoldUsername(username string) string {
	return usernameFolder.String(trimmed(username))
}

// CreateUserParams captures the attributes set when registering a user.
type CreateUserParams struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// AccountUpdate describes the mutable profile fields of a user. Nil fields
// are left untouched.
type AccountUpdate struct {
	FullName      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
}

// CreateVideoParams captures a video record whose media objects have already
// been confirmed stored.
type CreateVideoParams struct {
	OwnerID      string
	Title        string
	Description  string
	FileURL      string
	ThumbnailURL string
	Duration     float64
}

// VideoUpdate describes the mutable fields of a video. Nil fields are left
// untouched.
type VideoUpdate struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
}

// SortField names a column videos may be ordered by. Anything outside the
// allow-list is rejected before it reaches a query.
type SortField string

const (
	SortByTitle     SortField = "title"
	SortByCreatedAt SortField = "createdAt"
	SortByDuration  SortField = "duration"
	SortByViews     SortField = "views"
)

type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// VideoQuery is the typed filter/sort/pagination spec for ListVideos. Zero
// values mean "use the default"; explicit negatives are invalid.
type VideoQuery struct {
	Page          int
	Limit         int
	Query         string
	SortBy        SortField
	Direction     SortDirection
	OwnerUsername string
}

// VideoPage is one page of listing results together with pre-pagination
// totals.
type VideoPage struct {
	Items      []models.Video `json:"items"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
}
