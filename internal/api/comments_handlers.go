package api

import (
	"net/http"
	"strings"
)

// VideoComments serves GET /comments/{videoId} (paginated listing) and
// POST /comments/{videoId} (create).
func (h *Handler) VideoComments(w http.ResponseWriter, r *http.Request) {
	videoID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/comments/"), "/")
	if videoID == "" || strings.Contains(videoID, "/") {
		writeError(w, notFound("video not found"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		page, limit := parsePagination(r)
		comments, err := h.Store.ListComments(videoID, viewerID(r), page, limit)
		if err != nil {
			writeError(w, storeError(err, "video not found"))
			return
		}
		writeData(w, http.StatusOK, "comments", comments)
	case http.MethodPost:
		user, ok := h.requireAuthenticatedUser(w, r)
		if !ok {
			return
		}
		var req struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, badRequest("invalid request body"))
			return
		}
		comment, err := h.Store.CreateComment(videoID, user.ID, req.Content)
		if err != nil {
			writeError(w, storeError(err, "video not found"))
			return
		}
		writeData(w, http.StatusCreated, "comment added", comment)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// CommentByID serves PATCH/DELETE /comments/c/{id}.
func (h *Handler) CommentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/comments/c/"), "/")
	if id == "" {
		writeError(w, notFound("comment not found"))
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	comment, exists := h.Store.GetComment(id)
	if !exists {
		writeError(w, notFound("comment not found"))
		return
	}
	if comment.OwnerID != user.ID {
		writeError(w, forbidden("only the owner can modify this comment"))
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, badRequest("invalid request body"))
			return
		}
		updated, err := h.Store.UpdateComment(id, req.Content)
		if err != nil {
			writeError(w, storeError(err, "comment not found"))
			return
		}
		writeData(w, http.StatusOK, "comment updated", updated)
	case http.MethodDelete:
		if err := h.Store.DeleteComment(id); err != nil {
			writeError(w, storeError(err, "comment not found"))
			return
		}
		writeData(w, http.StatusOK, "comment deleted", nil)
	default:
		methodNotAllowed(w, "PATCH, DELETE")
	}
}
