package storage

import (
	"vidtube/internal/models"
)

// RecordView registers that the user watched the video and returns the video
// with its view counter already incremented.
//
// The history holds at most one entry per video: a rewatch refreshes that
// entry's watchedAt in place, keeping its position, progress, and snapshot
// fields. A first watch appends a snapshot entry.
func (s *Storage) RecordView(userID, videoID string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[videoID]
	if !ok {
		return models.Video{}, NotFoundf("video %s not found", videoID)
	}
	user, ok := s.data.Users[userID]
	if !ok {
		return models.Video{}, Internalf("user %s not found", userID)
	}

	now := s.now()
	video.Views++

	history := append([]models.WatchEntry(nil), user.WatchHistory...)
	found := false
	for i := range history {
		if history[i].VideoID == videoID {
			history[i].WatchedAt = now
			found = true
			break
		}
	}
	if !found {
		history = append(history, models.WatchEntry{
			VideoID:      video.ID,
			Title:        video.Title,
			ThumbnailURL: video.ThumbnailURL,
			Duration:     video.Duration,
			WatchedAt:    now,
			Progress:     0,
		})
	}
	user.WatchHistory = history

	updatedData := cloneDataset(s.data)
	updatedData.Videos[videoID] = video
	updatedData.Users[userID] = user
	if err := s.persistDataset(updatedData); err != nil {
		return models.Video{}, Internal("persist watch history", err)
	}
	s.data = updatedData

	return video, nil
}

// WatchHistory returns the user's history in stored order, resolving the
// owning channel for entries whose video still exists. Entries referencing a
// deleted video keep their snapshot and carry no owner.
func (s *Storage) WatchHistory(userID string) ([]models.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.data.Users[userID]
	if !ok {
		return nil, NotFoundf("user %s not found", userID)
	}

	items := make([]models.HistoryItem, 0, len(user.WatchHistory))
	for _, entry := range user.WatchHistory {
		item := models.HistoryItem{WatchEntry: entry}
		if video, ok := s.data.Videos[entry.VideoID]; ok {
			if owner, ok := s.data.Users[video.OwnerID]; ok {
				item.Owner = &models.HistoryOwner{
					UserID:    owner.ID,
					Username:  owner.Username,
					FullName:  owner.FullName,
					AvatarURL: owner.AvatarURL,
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}
