package api

import (
	"net/http"
	"strings"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

// Playlists serves POST /playlists (create).
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}
	playlist, err := h.Store.CreatePlaylist(user.ID, req.Name, req.Description)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusCreated, "playlist created", playlist)
}

// UserPlaylists serves GET /playlists/user/{userId}.
func (h *Handler) UserPlaylists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/playlists/user/"), "/")
	if userID == "" {
		writeError(w, notFound("user not found"))
		return
	}
	playlists, err := h.Store.ListUserPlaylists(userID)
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusOK, "playlists", playlists)
}

func (h *Handler) requirePlaylistOwner(w http.ResponseWriter, r *http.Request, id string) (models.Playlist, bool) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.Playlist{}, false
	}
	playlist, exists := h.Store.GetPlaylist(id)
	if !exists {
		writeError(w, notFound("playlist not found"))
		return models.Playlist{}, false
	}
	if playlist.OwnerID != user.ID {
		writeError(w, forbidden("only the owner can modify this playlist"))
		return models.Playlist{}, false
	}
	return playlist, true
}

// PlaylistByID serves GET/PATCH/DELETE /playlists/{id}.
func (h *Handler) PlaylistByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/playlists/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, notFound("playlist not found"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		playlist, exists := h.Store.GetPlaylist(id)
		if !exists {
			writeError(w, notFound("playlist not found"))
			return
		}
		writeData(w, http.StatusOK, "playlist", playlist)
	case http.MethodPatch:
		if _, ok := h.requirePlaylistOwner(w, r, id); !ok {
			return
		}
		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, badRequest("invalid request body"))
			return
		}
		if req.Name == nil && req.Description == nil {
			writeError(w, badRequest("nothing to update"))
			return
		}
		updated, err := h.Store.UpdatePlaylist(id, storage.PlaylistUpdate{Name: req.Name, Description: req.Description})
		if err != nil {
			writeError(w, storeError(err, "playlist not found"))
			return
		}
		writeData(w, http.StatusOK, "playlist updated", updated)
	case http.MethodDelete:
		if _, ok := h.requirePlaylistOwner(w, r, id); !ok {
			return
		}
		if err := h.Store.DeletePlaylist(id); err != nil {
			writeError(w, storeError(err, "playlist not found"))
			return
		}
		writeData(w, http.StatusOK, "playlist deleted", nil)
	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

// PlaylistVideo serves PATCH /playlists/add/{videoId}/{playlistId} and
// PATCH /playlists/remove/{videoId}/{playlistId}.
func (h *Handler) PlaylistVideo(w http.ResponseWriter, r *http.Request, action string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, "PATCH")
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/playlists/"+action+"/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, notFound("playlist not found"))
		return
	}
	videoID, playlistID := parts[0], parts[1]
	if _, ok := h.requirePlaylistOwner(w, r, playlistID); !ok {
		return
	}
	var (
		playlist models.Playlist
		err      error
		message  string
	)
	switch action {
	case "add":
		playlist, err = h.Store.AddVideoToPlaylist(playlistID, videoID)
		message = "video added to playlist"
	case "remove":
		playlist, err = h.Store.RemoveVideoFromPlaylist(playlistID, videoID)
		message = "video removed from playlist"
	default:
		writeError(w, notFound("playlist not found"))
		return
	}
	if err != nil {
		writeError(w, storeError(err, "video not found"))
		return
	}
	writeData(w, http.StatusOK, message, playlist)
}
