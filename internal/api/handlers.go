package api

import (
	"log/slog"
	"time"

	"vidtube/internal/auth"
	"vidtube/internal/media"
	"vidtube/internal/models"
	"vidtube/internal/observability/metrics"
	"vidtube/internal/storage"
)

type Handler struct {
	Store               storage.Repository
	Tokens              *auth.TokenManager
	Media               media.Store
	Uploads             *UploadProcessor
	Logger              *slog.Logger
	Metrics             *metrics.Recorder
	SessionCookiePolicy SessionCookiePolicy
}

func NewHandler(store storage.Repository, tokens *auth.TokenManager, mediaStore media.Store) *Handler {
	if mediaStore == nil {
		mediaStore = media.NoopStore{}
	}
	h := &Handler{
		Store:   store,
		Tokens:  tokens,
		Media:   mediaStore,
		Logger:  slog.Default(),
		Metrics: metrics.Default(),
	}
	h.Uploads = NewUploadProcessor(UploadProcessorConfig{
		Media:   mediaStore,
		Logger:  h.Logger,
		Metrics: h.Metrics,
	})
	return h
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) metrics() *metrics.Recorder {
	if h.Metrics != nil {
		return h.Metrics
	}
	return metrics.Default()
}

type userResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatarUrl"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339Nano),
	}
}

type sessionResponse struct {
	User             userResponse `json:"user"`
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	AccessExpiresAt  string       `json:"accessExpiresAt"`
	RefreshExpiresAt string       `json:"refreshExpiresAt"`
}

func newSessionResponse(user models.User, pair auth.TokenPair) sessionResponse {
	return sessionResponse{
		User:             newUserResponse(user),
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt.UTC().Format(time.RFC3339Nano),
		RefreshExpiresAt: pair.RefreshExpiresAt.UTC().Format(time.RFC3339Nano),
	}
}

type videoResponse struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"ownerId"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	FileURL      string  `json:"videoFile"`
	ThumbnailURL string  `json:"thumbnail"`
	Duration     float64 `json:"duration"`
	Views        int64   `json:"views"`
	IsPublished  bool    `json:"isPublished"`
	CreatedAt    string  `json:"createdAt"`
}

func newVideoResponse(video models.Video) videoResponse {
	return videoResponse{
		ID:           video.ID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		FileURL:      video.FileURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt.Format(time.RFC3339Nano),
	}
}

type videoPageResponse struct {
	Items      []videoResponse `json:"items"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalCount int             `json:"totalCount"`
	TotalPages int             `json:"totalPages"`
}

func newVideoPageResponse(page storage.VideoPage) videoPageResponse {
	items := make([]videoResponse, 0, len(page.Items))
	for _, video := range page.Items {
		items = append(items, newVideoResponse(video))
	}
	return videoPageResponse{
		Items:      items,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}
}
