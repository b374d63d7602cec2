package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"clipstream/internal/auth"
	"clipstream/internal/models"
	"clipstream/internal/storage"
	"golang.org/x/sync/errgroup"
)

// userResponse is the sanitized account projection: credential and session
// fields never leave the server.
type userResponse struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	FullName     string          `json:"fullName"`
	Avatar       models.ImageRef `json:"avatar"`
	CoverImage   models.ImageRef `json:"coverImage"`
	WatchHistory []string        `json:"watchHistory"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

func newUserResponse(user models.User) userResponse {
	history := user.WatchHistory
	if history == nil {
		history = []string{}
	}
	return userResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.Avatar,
		CoverImage:   user.CoverImage,
		WatchHistory: history,
		CreatedAt:    formatTime(user.CreatedAt),
		UpdatedAt:    formatTime(user.UpdatedAt),
	}
}

type authResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func validateRegistration(fullName, email, username, password string) error {
	if fullName == "" || email == "" || username == "" || password == "" {
		return badRequest("all fields are required")
	}
	if len(email) < 5 || !strings.Contains(email, "@") {
		return badRequest("invalid email address")
	}
	if len(password) < 3 {
		return badRequest("password is too short")
	}
	return nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	form, err := h.parseMultipartForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	fullName := form.value("fullName")
	email := form.value("email")
	username := strings.ToLower(form.value("username"))
	password := form.value("password")
	if err := validateRegistration(fullName, email, username, password); err != nil {
		writeError(w, err)
		return
	}

	if _, exists := h.Store.FindUserByIdentity(username, email); exists {
		writeError(w, conflict("username or email already in use"))
		return
	}

	avatarFile := form.file("avatar")
	if avatarFile == nil {
		writeError(w, badRequest("avatar file is required"))
		return
	}
	coverFile := form.file("coverImage")

	// Avatar failure aborts registration; a failed cover upload just leaves
	// the account without one.
	var avatar, cover models.ImageRef
	group, ctx := errgroup.WithContext(r.Context())
	group.Go(func() error {
		uploaded, uploadErr := h.uploadAsset(ctx, "avatars", avatarFile)
		if uploadErr != nil {
			return uploadErr
		}
		avatar = uploaded
		return nil
	})
	group.Go(func() error {
		if coverFile == nil {
			return nil
		}
		if uploaded, uploadErr := h.uploadAsset(ctx, "covers", coverFile); uploadErr == nil {
			cover = uploaded
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		slog.Error("avatar upload failed", "username", username, "error", err)
		writeError(w, internalError("avatar upload failed", err))
		return
	}

	user, err := h.Store.CreateUser(storage.CreateUserParams{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}

	h.recorder().ObserveAuthEvent("register")
	writeData(w, http.StatusCreated, "user registered", newUserResponse(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Username) == "" && strings.TrimSpace(req.Email) == "" {
		writeError(w, badRequest("username or email is required"))
		return
	}

	user, err := h.Store.AuthenticateUser(req.Username, req.Email, req.Password)
	if err != nil {
		h.recorder().ObserveAuthEvent("login_failure")
		if errors.Is(err, storage.ErrUserNotFound) {
			writeError(w, notFound("user not found"))
			return
		}
		writeError(w, unauthorized("invalid credentials"))
		return
	}

	accessToken, refreshToken, err := h.issueTokenPair(user)
	if err != nil {
		writeError(w, internalError("token issuance failed", err))
		return
	}

	h.recorder().ObserveAuthEvent("login")
	h.setAuthCookies(w, r, accessToken, refreshToken)
	writeData(w, http.StatusOK, "login successful", authResponse{
		User:         newUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *Handler) issueTokenPair(user models.User) (string, string, error) {
	accessToken, err := h.Tokens.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := h.Tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return "", "", err
	}
	if err := h.Store.RotateRefreshToken(user.ID, refreshToken); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}
	if token == "" {
		writeError(w, unauthorized("refresh token required"))
		return
	}

	claims, err := h.Tokens.VerifyRefresh(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			writeError(w, unauthorized("refresh token expired"))
			return
		}
		writeError(w, unauthorized("invalid refresh token"))
		return
	}

	user, exists := h.Store.GetUser(claims.Subject)
	if !exists {
		writeError(w, unauthorized("account not found"))
		return
	}
	// Each rotation invalidates the previous token; a replay of an older
	// token fails this comparison.
	if user.RefreshToken == "" || user.RefreshToken != token {
		writeError(w, unauthorized("refresh token is no longer valid"))
		return
	}

	accessToken, refreshToken, err := h.issueTokenPair(user)
	if err != nil {
		writeError(w, internalError("token issuance failed", err))
		return
	}

	h.recorder().ObserveAuthEvent("refresh")
	h.setAuthCookies(w, r, accessToken, refreshToken)
	writeData(w, http.StatusOK, "tokens refreshed", authResponse{
		User:         newUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if err := h.Store.ClearRefreshToken(user.ID); err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	h.recorder().ObserveAuthEvent("logout")
	h.clearAuthCookies(w, r)
	writeData(w, http.StatusOK, "logged out", nil)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, "current user", newUserResponse(user))
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}
	if len(req.NewPassword) < 3 {
		writeError(w, badRequest("password is too short"))
		return
	}
	if err := h.Store.ChangeUserPassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "password changed", nil)
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, "PATCH")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}
	update := storage.UserUpdate{}
	if strings.TrimSpace(req.FullName) != "" {
		name := strings.TrimSpace(req.FullName)
		update.FullName = &name
	}
	if strings.TrimSpace(req.Email) != "" {
		email := strings.TrimSpace(req.Email)
		if len(email) < 5 || !strings.Contains(email, "@") {
			writeError(w, badRequest("invalid email address"))
			return
		}
		update.Email = &email
	}
	if update.FullName == nil && update.Email == nil {
		writeError(w, badRequest("nothing to update"))
		return
	}
	updated, err := h.Store.UpdateUser(user.ID, update)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "account updated", newUserResponse(updated))
}

func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request) {
	h.replaceUserImage(w, r, "avatar", "avatars",
		func(id string, ref models.ImageRef) (models.User, models.ImageRef, error) {
			return h.Store.SetUserAvatar(id, ref)
		})
}

func (h *Handler) CoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceUserImage(w, r, "coverImage", "covers",
		func(id string, ref models.ImageRef) (models.User, models.ImageRef, error) {
			return h.Store.SetUserCoverImage(id, ref)
		})
}

func (h *Handler) replaceUserImage(w http.ResponseWriter, r *http.Request, field, folder string, persist func(string, models.ImageRef) (models.User, models.ImageRef, error)) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, "PATCH")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	form, err := h.parseMultipartForm(r)
	if err != nil {
		writeError(w, err)
		return
	}
	file := form.file(field)
	if file == nil {
		writeError(w, badRequest(field+" file is required"))
		return
	}
	uploaded, err := h.uploadAsset(r.Context(), folder, file)
	if err != nil {
		writeError(w, internalError(field+" upload failed", err))
		return
	}
	updated, replaced, err := persist(user.ID, uploaded)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	h.deleteAsset(r.Context(), replaced)
	writeData(w, http.StatusOK, field+" updated", newUserResponse(updated))
}

// ChannelProfile serves GET /users/c/{username}.
func (h *Handler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/c/"), "/")
	if username == "" {
		writeError(w, badRequest("username is required"))
		return
	}
	profile, ok := h.Store.ChannelProfile(username, viewerID(r))
	if !ok {
		writeError(w, notFound("channel not found"))
		return
	}
	writeData(w, http.StatusOK, "channel profile", profile)
}

func (h *Handler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	history, err := h.Store.WatchHistory(user.ID)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "watch history", history)
}
