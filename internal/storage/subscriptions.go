package storage

import (
	"time"

	"vidtube/internal/models"
)

// Subscribe records that subscriberID follows channelID. Resubscribing is a
// no-op that keeps the original timestamp.
func (s *Storage) Subscribe(subscriberID, channelID string) error {
	if subscriberID == channelID {
		return InvalidArgumentf("cannot subscribe to your own channel")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[subscriberID]; !ok {
		return NotFoundf("user %s not found", subscriberID)
	}
	if _, ok := s.data.Users[channelID]; !ok {
		return NotFoundf("channel %s not found", channelID)
	}
	if _, ok := s.data.Subscriptions[channelID][subscriberID]; ok {
		return nil
	}

	updatedData := cloneDataset(s.data)
	if updatedData.Subscriptions[channelID] == nil {
		updatedData.Subscriptions[channelID] = make(map[string]time.Time)
	}
	updatedData.Subscriptions[channelID][subscriberID] = s.now()
	if err := s.persistDataset(updatedData); err != nil {
		return Internal("persist subscription", err)
	}
	s.data = updatedData

	return nil
}

// Unsubscribe removes the subscription if present. Unsubscribing when not
// subscribed is a no-op.
func (s *Storage) Unsubscribe(subscriberID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return NotFoundf("channel %s not found", channelID)
	}
	if _, ok := s.data.Subscriptions[channelID][subscriberID]; !ok {
		return nil
	}

	updatedData := cloneDataset(s.data)
	delete(updatedData.Subscriptions[channelID], subscriberID)
	if err := s.persistDataset(updatedData); err != nil {
		return Internal("persist subscription", err)
	}
	s.data = updatedData

	return nil
}

// IsSubscribed reports whether subscriberID follows channelID.
func (s *Storage) IsSubscribed(subscriberID, channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data.Subscriptions[channelID][subscriberID]
	return ok
}

// ChannelProfile resolves a channel by username and aggregates its
// subscription counts relative to the viewer. An empty viewerID yields
// IsSubscribed == false.
func (s *Storage) ChannelProfile(username, viewerID string) (models.ChannelProfile, error) {
	folded := FoldUsername(username)
	if folded == "" {
		return models.ChannelProfile{}, InvalidArgumentf("username is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var channel models.User
	found := false
	for _, user := range s.data.Users {
		if user.Username == folded {
			channel = user
			found = true
			break
		}
	}
	if !found {
		return models.ChannelProfile{}, NotFoundf("channel %s not found", folded)
	}

	profile := models.ChannelProfile{
		UserID:        channel.ID,
		Username:      channel.Username,
		FullName:      channel.FullName,
		AvatarURL:     channel.AvatarURL,
		CoverImageURL: channel.CoverImageURL,
	}
	profile.SubscriberCount = len(s.data.Subscriptions[channel.ID])
	for channelID, subs := range s.data.Subscriptions {
		if channelID == channel.ID {
			continue
		}
		if _, ok := subs[channel.ID]; ok {
			profile.SubscribedToCount++
		}
	}
	if viewerID != "" {
		_, profile.IsSubscribed = s.data.Subscriptions[channel.ID][viewerID]
	}
	return profile, nil
}
