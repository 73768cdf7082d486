package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"vidtube/internal/models"
)

// AuthenticateUser verifies credentials and returns the matching user on
// success. The identifier may be a username or an email address.
func (s *Storage) AuthenticateUser(identifier, password string) (models.User, error) {
	if password == "" {
		return models.User{}, InvalidArgumentf("password is required")
	}
	if trimmed(identifier) == "" {
		return models.User{}, InvalidArgumentf("username or email is required")
	}

	s.mu.RLock()
	user, ok := s.findUserByIdentifierLocked(identifier)
	s.mu.RUnlock()
	if !ok {
		return models.User{}, Unauthorizedf("invalid credentials")
	}
	if err := verifyPassword(user.PasswordHash, password); err != nil {
		if IsUnauthorized(err) {
			return models.User{}, err
		}
		return models.User{}, Internal("verify password", err)
	}
	return user, nil
}

func (s *Storage) findUserByIdentifierLocked(identifier string) (models.User, bool) {
	folded := FoldUsername(identifier)
	for _, user := range s.data.Users {
		if user.Username == folded {
			return user, true
		}
	}
	return s.findUserByEmailLocked(identifier)
}

// ChangePassword verifies the current password before replacing it.
func (s *Storage) ChangePassword(id, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return InvalidArgumentf("password must be at least 8 characters")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return NotFoundf("user %s not found", id)
	}
	if err := verifyPassword(user.PasswordHash, oldPassword); err != nil {
		if IsUnauthorized(err) {
			return Unauthorizedf("current password is incorrect")
		}
		return Internal("verify password", err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return Internal("hash password", err)
	}
	user.PasswordHash = hashed

	updatedData := cloneDataset(s.data)
	updatedData.Users[id] = user
	if err := s.persistDataset(updatedData); err != nil {
		return Internal("persist user", err)
	}
	s.data = updatedData

	return nil
}

// SetRefreshTokenHash stores the hash of the single active refresh token for
// the user. Replacing it invalidates any previously issued token.
func (s *Storage) SetRefreshTokenHash(id, hash string) error {
	return s.updateRefreshTokenHash(id, hash)
}

// ClearRefreshTokenHash removes the stored refresh token, logging the user
// out everywhere the token was held.
func (s *Storage) ClearRefreshTokenHash(id string) error {
	return s.updateRefreshTokenHash(id, "")
}

func (s *Storage) updateRefreshTokenHash(id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return NotFoundf("user %s not found", id)
	}
	user.RefreshTokenHash = hash

	updatedData := cloneDataset(s.data)
	updatedData.Users[id] = user
	if err := s.persistDataset(updatedData); err != nil {
		return Internal("persist user", err)
	}
	s.data = updatedData

	return nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, passwordHashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(password), salt, passwordHashIterations, passwordHashKeyLength, sha256.New)
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedKey := base64.RawStdEncoding.EncodeToString(derived)
	return fmt.Sprintf("pbkdf2$sha256$%d$%s$%s", passwordHashIterations, encodedSalt, encodedKey), nil
}

func verifyPassword(encodedHash, candidate string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 5 {
		return fmt.Errorf("verify password: invalid hash format")
	}
	if parts[0] != "pbkdf2" || parts[1] != "sha256" {
		return fmt.Errorf("verify password: unsupported hash identifier")
	}
	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return fmt.Errorf("verify password: invalid iteration count")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return fmt.Errorf("verify password: decode salt: %w", err)
	}
	storedKey, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("verify password: decode hash: %w", err)
	}
	derived := pbkdf2.Key([]byte(candidate), salt, iterations, len(storedKey), sha256.New)
	if len(derived) != len(storedKey) || subtle.ConstantTimeCompare(derived, storedKey) != 1 {
		return Unauthorizedf("invalid credentials")
	}
	return nil
}
