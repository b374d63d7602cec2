package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clipstream/internal/auth"
	"clipstream/internal/models"
)

type contextKey string

const userContextKey contextKey = "authenticatedUser"

// ContextWithUser stores the authenticated user in the provided context.
func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from context if present.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// ExtractAccessToken pulls the access token from the accessToken cookie
// first, falling back to an Authorization bearer header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// AuthenticateRequest verifies the access token on the request and loads the
// account it names.
func (h *Handler) AuthenticateRequest(r *http.Request) (models.User, error) {
	token := ExtractAccessToken(r)
	if token == "" {
		return models.User{}, unauthorized("missing access token")
	}
	claims, err := h.Tokens.VerifyAccess(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return models.User{}, unauthorized("access token expired")
		}
		return models.User{}, unauthorized("invalid access token")
	}
	user, exists := h.Store.GetUser(claims.Subject)
	if !exists {
		return models.User{}, unauthorized("account not found")
	}
	return user, nil
}

func (h *Handler) requireAuthenticatedUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, unauthorized("authentication required"))
		return models.User{}, false
	}
	return user, true
}

// viewerID returns the authenticated account's ID when present, or blank for
// anonymous requests on optional-auth routes.
func viewerID(r *http.Request) string {
	if user, ok := UserFromContext(r.Context()); ok {
		return user.ID
	}
	return ""
}
