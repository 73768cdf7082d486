package storage

import (
	"context"

	"vidtube/internal/models"
)

// Repository exposes the datastore operations required by the API handlers.
// Two implementations exist: the JSON-file Storage and the Postgres-backed
// repository.
type Repository interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	CreateUser(params CreateUserParams) (models.User, error)
	GetUser(id string) (models.User, bool)
	FindUserByUsername(username string) (models.User, bool)
	AuthenticateUser(identifier, password string) (models.User, error)
	UpdateAccount(id string, update AccountUpdate) (models.User, error)
	ChangePassword(id, oldPassword, newPassword string) error
	SetRefreshTokenHash(id, hash string) error
	ClearRefreshTokenHash(id string) error

	CreateVideo(params CreateVideoParams) (models.Video, error)
	GetVideo(id string) (models.Video, bool)
	ListVideos(query VideoQuery) (VideoPage, error)
	UpdateVideo(id, callerID string, update VideoUpdate) (models.Video, string, error)
	DeleteVideo(id, callerID string) (models.Video, error)
	TogglePublish(id, callerID string) (models.Video, error)

	RecordView(userID, videoID string) (models.Video, error)
	WatchHistory(userID string) ([]models.HistoryItem, error)

	Subscribe(subscriberID, channelID string) error
	Unsubscribe(subscriberID, channelID string) error
	IsSubscribed(subscriberID, channelID string) bool
	ChannelProfile(username, viewerID string) (models.ChannelProfile, error)
}

var _ Repository = (*Storage)(nil)
