package storage

import (
	"math"

	"vidtube/internal/models"
)

// roundDuration normalises a media-store duration to two decimal places.
// Negative or absent values collapse to zero.
func roundDuration(seconds float64) float64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return math.Round(seconds*100) / 100
}

// CreateVideo persists a video record whose media objects are already
// confirmed stored. New videos start published.
func (s *Storage) CreateVideo(params CreateVideoParams) (models.Video, error) {
	title := trimmed(params.Title)
	description := trimmed(params.Description)
	if title == "" {
		return models.Video{}, InvalidArgumentf("title is required")
	}
	if len(title) > MaxTitleLength {
		return models.Video{}, InvalidArgumentf("title exceeds %d characters", MaxTitleLength)
	}
	if description == "" {
		return models.Video{}, InvalidArgumentf("description is required")
	}
	if len(description) > MaxDescriptionLength {
		return models.Video{}, InvalidArgumentf("description exceeds %d characters", MaxDescriptionLength)
	}
	if trimmed(params.FileURL) == "" {
		return models.Video{}, InvalidArgumentf("video file is required")
	}
	if trimmed(params.ThumbnailURL) == "" {
		return models.Video{}, InvalidArgumentf("thumbnail is required")
	}

	id, err := generateID()
	if err != nil {
		return models.Video{}, Internal("generate video id", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.Video{}, NotFoundf("owner %s not found", params.OwnerID)
	}

	video := models.Video{
		ID:           id,
		OwnerID:      params.OwnerID,
		Title:        title,
		Description:  description,
		FileURL:      trimmed(params.FileURL),
		ThumbnailURL: trimmed(params.ThumbnailURL),
		Duration:     roundDuration(params.Duration),
		IsPublished:  true,
		CreatedAt:    s.now(),
	}

	updatedData := cloneDataset(s.data)
	updatedData.Videos[video.ID] = video
	if err := s.persistDataset(updatedData); err != nil {
		return models.Video{}, Internal("persist video", err)
	}
	s.data = updatedData

	return video, nil
}

// GetVideo fetches a video by ID.
func (s *Storage) GetVideo(id string) (models.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.data.Videos[id]
	return video, ok
}

// UpdateVideo mutates title, description, or thumbnail of a video owned by
// the caller. The previous thumbnail URL is returned so the caller can
// release the object once the update is durable.
func (s *Storage) UpdateVideo(id, callerID string, update VideoUpdate) (models.Video, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, "", NotFoundf("video %s not found", id)
	}
	if video.OwnerID != callerID {
		return models.Video{}, "", Forbiddenf("video %s is not owned by caller", id)
	}

	previousThumbnail := ""
	if update.Title != nil {
		title := trimmed(*update.Title)
		if title == "" {
			return models.Video{}, "", InvalidArgumentf("title cannot be blank")
		}
		if len(title) > MaxTitleLength {
			return models.Video{}, "", InvalidArgumentf("title exceeds %d characters", MaxTitleLength)
		}
		video.Title = title
	}
	if update.Description != nil {
		description := trimmed(*update.Description)
		if description == "" {
			return models.Video{}, "", InvalidArgumentf("description cannot be blank")
		}
		if len(description) > MaxDescriptionLength {
			return models.Video{}, "", InvalidArgumentf("description exceeds %d characters", MaxDescriptionLength)
		}
		video.Description = description
	}
	if update.ThumbnailURL != nil {
		thumbnail := trimmed(*update.ThumbnailURL)
		if thumbnail == "" {
			return models.Video{}, "", InvalidArgumentf("thumbnail url cannot be blank")
		}
		if thumbnail != video.ThumbnailURL {
			previousThumbnail = video.ThumbnailURL
		}
		video.ThumbnailURL = thumbnail
	}

	updatedData := cloneDataset(s.data)
	updatedData.Videos[id] = video
	if err := s.persistDataset(updatedData); err != nil {
		return models.Video{}, "", Internal("persist video", err)
	}
	s.data = updatedData

	return video, previousThumbnail, nil
}

// DeleteVideo removes a video owned by the caller and returns the removed
// record so the caller can release its media objects.
func (s *Storage) DeleteVideo(id, callerID string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, NotFoundf("video %s not found", id)
	}
	if video.OwnerID != callerID {
		return models.Video{}, Forbiddenf("video %s is not owned by caller", id)
	}

	updatedData := cloneDataset(s.data)
	delete(updatedData.Videos, id)
	if err := s.persistDataset(updatedData); err != nil {
		return models.Video{}, Internal("persist video delete", err)
	}
	s.data = updatedData

	return video, nil
}

// TogglePublish flips the publish state of a video owned by the caller.
func (s *Storage) TogglePublish(id, callerID string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, NotFoundf("video %s not found", id)
	}
	if video.OwnerID != callerID {
		return models.Video{}, Forbiddenf("video %s is not owned by caller", id)
	}

	video.IsPublished = !video.IsPublished

	updatedData := cloneDataset(s.data)
	updatedData.Videos[id] = video
	if err := s.persistDataset(updatedData); err != nil {
		return models.Video{}, Internal("persist video", err)
	}
	s.data = updatedData

	return video, nil
}
