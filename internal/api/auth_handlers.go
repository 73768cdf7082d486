package api

import (
	"fmt"
	"net/http"
	"strings"

	"vidtube/internal/auth"
	"vidtube/internal/models"
	"vidtube/internal/storage"
)

// Register creates an account from a multipart form carrying the profile
// fields plus a required avatar and optional cover image.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	if !isMultipartRequest(r) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("multipart/form-data payload required"))
		return
	}
	form, err := parseMultipartForm(r, map[string]int64{
		"avatar":     maxImageUploadBytes,
		"coverImage": maxImageUploadBytes,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	avatar := form.file("avatar")
	if avatar.empty() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("avatar is required"))
		return
	}
	if !h.Uploads.Enabled() {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("media uploads are not configured"))
		return
	}

	avatarObj, err := h.Uploads.StoreImage(r.Context(), "avatars", avatar)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	coverURL := ""
	if cover := form.file("coverImage"); !cover.empty() {
		coverObj, err := h.Uploads.StoreImage(r.Context(), "covers", cover)
		if err != nil {
			h.Uploads.Release(r.Context(), avatarObj.URL)
			writeStorageError(w, err)
			return
		}
		coverURL = coverObj.URL
	}

	user, err := h.Store.CreateUser(storage.CreateUserParams{
		Username:      form.field("username"),
		Email:         form.field("email"),
		FullName:      form.field("fullName"),
		Password:      form.fields["password"],
		AvatarURL:     avatarObj.URL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		h.Uploads.Release(r.Context(), avatarObj.URL, coverURL)
		writeStorageError(w, err)
		return
	}

	h.metrics().ObserveAuthEvent("register")
	h.logger().Info("user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates by username or email and issues a fresh token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("username or email and password are required"))
		return
	}

	user, err := h.Store.AuthenticateUser(identifier, req.Password)
	if err != nil {
		h.metrics().ObserveAuthEvent("login_failure")
		writeStorageError(w, err)
		return
	}
	h.issueSession(w, r, user, "login", http.StatusOK)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the session: it validates the presented refresh token
// against the stored hash and issues a new pair, invalidating the old token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	token := h.refreshTokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("refresh token is required"))
		return
	}
	claims, err := h.Tokens.ValidateRefreshToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid refresh token"))
		return
	}
	user, exists := h.Store.GetUser(claims.UserID)
	if !exists {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("account not found"))
		return
	}
	if !auth.TokenHashMatches(user.RefreshTokenHash, token) {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("refresh token is expired or used"))
		return
	}
	h.issueSession(w, r, user, "refresh", http.StatusOK)
}

// refreshTokenFromRequest reads the refresh token from the JSON body when one
// is supplied and falls back to the refresh cookie.
func (h *Handler) refreshTokenFromRequest(r *http.Request) string {
	if r.Body != nil && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			if token := strings.TrimSpace(req.RefreshToken); token != "" {
				return token
			}
		}
	}
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, user models.User, event string, status int) {
	pair, refreshHash, err := h.Tokens.IssuePair(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := h.Store.SetRefreshTokenHash(user.ID, refreshHash); err != nil {
		writeStorageError(w, err)
		return
	}
	h.metrics().ObserveAuthEvent(event)
	h.setSessionCookies(w, r, pair)
	writeJSON(w, status, newSessionResponse(user, pair))
}

// Logout clears the stored refresh-token hash so the current refresh token
// can never be used again, and expires the session cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := h.Store.ClearRefreshTokenHash(user.ID); err != nil {
		writeStorageError(w, err)
		return
	}
	h.metrics().ObserveAuthEvent("logout")
	h.ClearSessionCookies(w, r)
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Store.ChangePassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

type updateAccountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.Header().Set("Allow", "PATCH")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.FullName == nil && req.Email == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("at least one field is required"))
		return
	}
	updated, err := h.Store.UpdateAccount(user.ID, storage.AccountUpdate{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}

// UpdateAvatar replaces the account avatar: the new image is stored first and
// the previous object released only after the account update is durable.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "avatar", "avatars")
}

// UpdateCoverImage replaces the account cover image.
func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateProfileImage(w, r, "coverImage", "covers")
}

func (h *Handler) updateProfileImage(w http.ResponseWriter, r *http.Request, field, folder string) {
	if r.Method != http.MethodPatch {
		w.Header().Set("Allow", "PATCH")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if !isMultipartRequest(r) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("multipart/form-data payload required"))
		return
	}
	form, err := parseMultipartForm(r, map[string]int64{field: maxImageUploadBytes})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file := form.file(field)
	if file.empty() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s file is required", field))
		return
	}
	if !h.Uploads.Enabled() {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("media uploads are not configured"))
		return
	}

	obj, err := h.Uploads.StoreImage(r.Context(), folder, file)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	update := storage.AccountUpdate{}
	previousURL := ""
	switch field {
	case "avatar":
		update.AvatarURL = &obj.URL
		previousURL = user.AvatarURL
	default:
		update.CoverImageURL = &obj.URL
		previousURL = user.CoverImageURL
	}
	updated, err := h.Store.UpdateAccount(user.ID, update)
	if err != nil {
		h.Uploads.Release(r.Context(), obj.URL)
		writeStorageError(w, err)
		return
	}
	if previousURL != "" && previousURL != obj.URL {
		h.Uploads.Release(r.Context(), previousURL)
	}
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}
