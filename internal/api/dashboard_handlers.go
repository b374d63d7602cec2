package api

import (
	"net/http"

	"clipstream/internal/storage"
)

// DashboardStats serves GET /dashboard/stats for the authenticated channel
// owner.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	stats, err := h.Store.ChannelStats(user.ID)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "channel stats", stats)
}

// DashboardVideos serves GET /dashboard/videos: every video the caller owns,
// published or not.
func (h *Handler) DashboardVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	page, limit := parsePagination(r)
	videos, err := h.Store.ListVideos(storage.ListVideosParams{
		OwnerID:       user.ID,
		IncludeHidden: true,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "channel videos", videos)
}
