package api

import (
	"net/http"
	"strings"
)

type likeToggleResponse struct {
	Liked bool `json:"liked"`
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, prefix, missing string, toggle func(targetID, userID string) (bool, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if id == "" {
		writeError(w, notFound(missing))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	liked, err := toggle(id, user.ID)
	if err != nil {
		writeError(w, storeError(err, missing))
		return
	}
	message := "like removed"
	if liked {
		message = "like added"
	}
	writeData(w, http.StatusOK, message, likeToggleResponse{Liked: liked})
}

// ToggleVideoLike serves POST /likes/toggle/v/{videoId}.
func (h *Handler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, "/likes/toggle/v/", "video not found", h.Store.ToggleVideoLike)
}

// ToggleCommentLike serves POST /likes/toggle/c/{commentId}.
func (h *Handler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, "/likes/toggle/c/", "comment not found", h.Store.ToggleCommentLike)
}

// ToggleTweetLike serves POST /likes/toggle/t/{tweetId}.
func (h *Handler) ToggleTweetLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, "/likes/toggle/t/", "tweet not found", h.Store.ToggleTweetLike)
}

// LikedVideos serves GET /likes/videos for the authenticated user.
func (h *Handler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	videos, err := h.Store.ListLikedVideos(user.ID)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "liked videos", videos)
}
