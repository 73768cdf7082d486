package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/observability/logging"
	"vidtube/internal/storage"
)

// Videos serves the listing endpoint and accepts new uploads.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listVideos(w, r)
	case http.MethodPost:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		h.uploadVideo(w, r, actor)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (h *Handler) listVideos(w http.ResponseWriter, r *http.Request) {
	query, err := videoQueryFromURL(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page, err := h.Store.ListVideos(query)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newVideoPageResponse(page))
}

// videoQueryFromURL translates the listing query parameters. Explicit
// non-positive page or limit values are rejected here because the repository
// treats zero as "use the default".
func videoQueryFromURL(values url.Values) (storage.VideoQuery, error) {
	query := storage.VideoQuery{
		Query:         strings.TrimSpace(values.Get("query")),
		SortBy:        storage.SortField(strings.TrimSpace(values.Get("sortBy"))),
		Direction:     storage.SortDirection(strings.TrimSpace(values.Get("sortType"))),
		OwnerUsername: strings.TrimSpace(values.Get("username")),
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page <= 0 {
			return storage.VideoQuery{}, fmt.Errorf("page must be a positive integer")
		}
		query.Page = page
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return storage.VideoQuery{}, fmt.Errorf("limit must be a positive integer")
		}
		query.Limit = limit
	}
	return query, nil
}

func (h *Handler) uploadVideo(w http.ResponseWriter, r *http.Request, actor models.User) {
	if !isMultipartRequest(r) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("multipart/form-data payload required"))
		return
	}
	form, err := parseMultipartForm(r, map[string]int64{
		"videoFile": maxVideoUploadBytes,
		"thumbnail": maxImageUploadBytes,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	title := form.field("title")
	description := form.field("description")
	if title == "" || description == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("title and description are required"))
		return
	}
	if !h.Uploads.Enabled() {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("media uploads are not configured"))
		return
	}

	videoObj, thumbObj, err := h.Uploads.StoreVideoWithThumbnail(r.Context(), form.file("videoFile"), form.file("thumbnail"))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	video, err := h.Store.CreateVideo(storage.CreateVideoParams{
		OwnerID:      actor.ID,
		Title:        title,
		Description:  description,
		FileURL:      videoObj.URL,
		ThumbnailURL: thumbObj.URL,
		Duration:     videoObj.DurationSeconds,
	})
	if err != nil {
		h.Uploads.Release(r.Context(), videoObj.URL, thumbObj.URL)
		writeStorageError(w, err)
		return
	}

	h.metrics().ObserveVideoEvent("upload")
	h.logger().Info("video uploaded", "video_id", video.ID, "owner_id", actor.ID)
	writeJSON(w, http.StatusCreated, newVideoResponse(video))
}

// VideoByID dispatches the per-video routes: fetch (which records a view for
// authenticated viewers), update, delete, and publish toggling.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("video id missing"))
		return
	}
	videoID := parts[0]

	if len(parts) == 2 && parts[1] == "toggle-publish" {
		h.togglePublish(w, r, videoID)
		return
	}
	if len(parts) > 1 {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown video path"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getVideo(w, r, videoID)
	case http.MethodPatch:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		h.updateVideo(w, r, videoID, actor)
	case http.MethodDelete:
		actor, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		h.deleteVideo(w, r, videoID, actor)
	default:
		w.Header().Set("Allow", "GET, PATCH, DELETE")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

// getVideo returns the video and, for authenticated viewers, records the view
// in their watch history. A history persistence failure is logged and the
// video is still served.
func (h *Handler) getVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	ctx := logging.ContextWithVideoID(r.Context(), videoID)
	actor, authenticated := UserFromContext(ctx)
	if authenticated {
		video, err := h.Store.RecordView(actor.ID, videoID)
		if err == nil {
			h.metrics().ObserveVideoEvent("view")
			writeJSON(w, http.StatusOK, newVideoResponse(video))
			return
		}
		if storage.IsNotFound(err) {
			writeStorageError(w, err)
			return
		}
		logging.WithContext(ctx, h.logger()).Warn("failed to record view", "user_id", actor.ID, "error", err)
	}
	video, exists := h.Store.GetVideo(videoID)
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Errorf("video %s not found", videoID))
		return
	}
	writeJSON(w, http.StatusOK, newVideoResponse(video))
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *Handler) updateVideo(w http.ResponseWriter, r *http.Request, videoID string, actor models.User) {
	update := storage.VideoUpdate{}
	newThumbnailURL := ""

	if isMultipartRequest(r) {
		form, err := parseMultipartForm(r, map[string]int64{"thumbnail": maxImageUploadBytes})
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if title := form.field("title"); title != "" {
			update.Title = &title
		}
		if description := form.field("description"); description != "" {
			update.Description = &description
		}
		if thumb := form.file("thumbnail"); !thumb.empty() {
			if !h.Uploads.Enabled() {
				writeError(w, http.StatusServiceUnavailable, fmt.Errorf("media uploads are not configured"))
				return
			}
			obj, err := h.Uploads.StoreImage(r.Context(), "thumbnails", thumb)
			if err != nil {
				writeStorageError(w, err)
				return
			}
			newThumbnailURL = obj.URL
			update.ThumbnailURL = &obj.URL
		}
	} else {
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		update.Title = req.Title
		update.Description = req.Description
	}

	if update.Title == nil && update.Description == nil && update.ThumbnailURL == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("at least one field is required"))
		return
	}

	video, previousThumbnail, err := h.Store.UpdateVideo(videoID, actor.ID, update)
	if err != nil {
		if newThumbnailURL != "" {
			h.Uploads.Release(r.Context(), newThumbnailURL)
		}
		writeStorageError(w, err)
		return
	}
	// Only discard the old thumbnail once the new record is durable.
	if previousThumbnail != "" {
		h.Uploads.Release(r.Context(), previousThumbnail)
	}
	h.metrics().ObserveVideoEvent("update")
	writeJSON(w, http.StatusOK, newVideoResponse(video))
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request, videoID string, actor models.User) {
	removed, err := h.Store.DeleteVideo(videoID, actor.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	h.Uploads.Release(r.Context(), removed.FileURL, removed.ThumbnailURL)
	h.metrics().ObserveVideoEvent("delete")
	h.logger().Info("video deleted", "video_id", videoID, "owner_id", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) togglePublish(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodPatch {
		w.Header().Set("Allow", "PATCH")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	actor, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	video, err := h.Store.TogglePublish(videoID, actor.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	h.metrics().ObserveVideoEvent("publish_toggle")
	writeJSON(w, http.StatusOK, newVideoResponse(video))
}
