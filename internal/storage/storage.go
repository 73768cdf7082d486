package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vidtube/internal/models"
)

func trimmed(value string) string {
	return strings.TrimSpace(value)
}

func newDataset() dataset {
	return dataset{
		Users:         make(map[string]models.User),
		Videos:        make(map[string]models.Video),
		Subscriptions: make(map[string]map[string]time.Time),
	}
}

func NewStorage(path string, opts ...Option) (*Storage, error) {
	store := &Storage{
		filePath: path,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt.applyJSON(store)
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	file, err := os.Open(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.data = newDataset()
		return nil
	} else if err != nil {
		return fmt.Errorf("open store file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			s.data = newDataset()
			return nil
		}
		return fmt.Errorf("decode store file: %w", err)
	}

	s.ensureDatasetInitializedLocked()

	return nil
}

func (s *Storage) ensureDatasetInitializedLocked() {
	if s.data.Users == nil {
		s.data.Users = make(map[string]models.User)
	}
	if s.data.Videos == nil {
		s.data.Videos = make(map[string]models.Video)
	}
	if s.data.Subscriptions == nil {
		s.data.Subscriptions = make(map[string]map[string]time.Time)
	}
}

func (s *Storage) persistDataset(data dataset) error {
	if s.persistOverride != nil {
		if err := s.persistOverride(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("flush store file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	success = true
	return nil
}

func cloneDataset(src dataset) dataset {
	clone := dataset{}

	if src.Users != nil {
		clone.Users = make(map[string]models.User, len(src.Users))
		for id, user := range src.Users {
			cloned := user
			if user.WatchHistory != nil {
				cloned.WatchHistory = append([]models.WatchEntry(nil), user.WatchHistory...)
			}
			clone.Users[id] = cloned
		}
	}

	if src.Videos != nil {
		clone.Videos = make(map[string]models.Video, len(src.Videos))
		for id, video := range src.Videos {
			clone.Videos[id] = video
		}
	}

	if src.Subscriptions != nil {
		clone.Subscriptions = make(map[string]map[string]time.Time, len(src.Subscriptions))
		for channelID, subs := range src.Subscriptions {
			if subs == nil {
				clone.Subscriptions[channelID] = nil
				continue
			}
			clonedSubs := make(map[string]time.Time, len(subs))
			for subscriberID, at := range subs {
				clonedSubs[subscriberID] = at
			}
			clone.Subscriptions[channelID] = clonedSubs
		}
	}

	return clone
}

// Ping reports datastore health. The JSON store is healthy whenever the
// process can reach its backing file's directory.
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	return nil
}

// Close is a no-op for the JSON store; it exists to satisfy Repository.
func (s *Storage) Close(ctx context.Context) error {
	return nil
}

// CreateUser registers a new account. Username and email uniqueness are
// enforced on the folded/normalised forms.
func (s *Storage) CreateUser(params CreateUserParams) (models.User, error) {
	username := FoldUsername(params.Username)
	email := models.NormalizeEmail(params.Email)
	fullName := trimmed(params.FullName)
	if username == "" {
		return models.User{}, InvalidArgumentf("username is required")
	}
	if email == "" {
		return models.User{}, InvalidArgumentf("email is required")
	}
	if fullName == "" {
		return models.User{}, InvalidArgumentf("full name is required")
	}
	if len(params.Password) < 8 {
		return models.User{}, InvalidArgumentf("password must be at least 8 characters")
	}
	if trimmed(params.AvatarURL) == "" {
		return models.User{}, InvalidArgumentf("avatar is required")
	}

	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, Internal("hash password", err)
	}

	id, err := generateID()
	if err != nil {
		return models.User{}, Internal("generate user id", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Users {
		if existing.Username == username {
			return models.User{}, Conflictf("username %s already registered", username)
		}
		if existing.Email == email {
			return models.User{}, Conflictf("email %s already registered", email)
		}
	}

	user := models.User{
		ID:            id,
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     trimmed(params.AvatarURL),
		CoverImageURL: trimmed(params.CoverImageURL),
		PasswordHash:  hashed,
		CreatedAt:     s.now(),
	}

	updatedData := cloneDataset(s.data)
	updatedData.Users[user.ID] = user
	if err := s.persistDataset(updatedData); err != nil {
		return models.User{}, Internal("persist user", err)
	}
	s.data = updatedData

	return user, nil
}

// GetUser fetches a user by ID.
func (s *Storage) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.Users[id]
	return user, ok
}

// FindUserByUsername looks a user up by folded username.
func (s *Storage) FindUserByUsername(username string) (models.User, bool) {
	folded := FoldUsername(username)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data.Users {
		if user.Username == folded {
			return user, true
		}
	}
	return models.User{}, false
}

func (s *Storage) findUserByEmailLocked(email string) (models.User, bool) {
	normalized := models.NormalizeEmail(email)
	for _, user := range s.data.Users {
		if user.Email == normalized {
			return user, true
		}
	}
	return models.User{}, false
}

// UpdateAccount mutates profile fields of a user. Nil update fields are left
// unchanged; an email change re-checks uniqueness.
func (s *Storage) UpdateAccount(id string, update AccountUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return models.User{}, NotFoundf("user %s not found", id)
	}

	if update.FullName != nil {
		name := trimmed(*update.FullName)
		if name == "" {
			return models.User{}, InvalidArgumentf("full name cannot be blank")
		}
		user.FullName = name
	}
	if update.Email != nil {
		email := models.NormalizeEmail(*update.Email)
		if email == "" {
			return models.User{}, InvalidArgumentf("email cannot be blank")
		}
		for otherID, existing := range s.data.Users {
			if otherID != id && existing.Email == email {
				return models.User{}, Conflictf("email %s already registered", email)
			}
		}
		user.Email = email
	}
	if update.AvatarURL != nil {
		avatar := trimmed(*update.AvatarURL)
		if avatar == "" {
			return models.User{}, InvalidArgumentf("avatar url cannot be blank")
		}
		user.AvatarURL = avatar
	}
	if update.CoverImageURL != nil {
		user.CoverImageURL = trimmed(*update.CoverImageURL)
	}

	updatedData := cloneDataset(s.data)
	updatedData.Users[id] = user
	if err := s.persistDataset(updatedData); err != nil {
		return models.User{}, Internal("persist user", err)
	}
	s.data = updatedData

	return user, nil
}
