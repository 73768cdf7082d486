package models

import (
	"strings"
	"time"
)

type User struct {
	ID               string       `json:"id"`
	Username         string       `json:"username"`
	Email            string       `json:"email"`
	FullName         string       `json:"fullName"`
	AvatarURL        string       `json:"avatarUrl"`
	CoverImageURL    string       `json:"coverImageUrl,omitempty"`
	PasswordHash     string       `json:"passwordHash,omitempty"`
	RefreshTokenHash string       `json:"refreshTokenHash,omitempty"`
	WatchHistory     []WatchEntry `json:"watchHistory"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Sanitized returns a copy safe to serialize to clients: credential material
// and the embedded history are stripped.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshTokenHash = ""
	u.WatchHistory = nil
	return u
}

// WatchEntry is one row of a user's watch history. Title, thumbnail and
// duration are snapshots taken when the view was recorded and may drift from
// the live video record.
type WatchEntry struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     float64   `json:"duration"`
	WatchedAt    time.Time `json:"watchedAt"`
	Progress     float64   `json:"progress"`
}

type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	FileURL      string    `json:"fileUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Subscription struct {
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// ChannelProfile is the public view of a user's channel, including
// subscription aggregates relative to the requesting viewer.
type ChannelProfile struct {
	UserID            string `json:"userId"`
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	AvatarURL         string `json:"avatarUrl"`
	CoverImageURL     string `json:"coverImageUrl,omitempty"`
	SubscriberCount   int    `json:"subscriberCount"`
	SubscribedToCount int    `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// HistoryItem is a watch-history entry joined with the owning channel of the
// referenced video.
type HistoryItem struct {
	WatchEntry
	Owner *HistoryOwner `json:"owner,omitempty"`
}

type HistoryOwner struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// NormalizeEmail lowercases and trims an email address for storage and
// lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
