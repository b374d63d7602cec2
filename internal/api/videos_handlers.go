package api

import (
	"net/http"
	"strconv"
	"strings"

	"clipstream/internal/models"
	"clipstream/internal/storage"
)

func parsePagination(r *http.Request) (page, limit int) {
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	return page, limit
}

// Videos serves GET /videos (published listing with search and pagination)
// and POST /videos (multipart publication).
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, limit := parsePagination(r)
		ownerID := strings.TrimSpace(r.URL.Query().Get("userId"))
		videos, err := h.Store.ListVideos(storage.ListVideosParams{
			OwnerID: ownerID,
			Query:   strings.TrimSpace(r.URL.Query().Get("query")),
			Page:    page,
			Limit:   limit,
		})
		if err != nil {
			writeError(w, storeError(err, "videos not found"))
			return
		}
		writeData(w, http.StatusOK, "videos", videos)
	case http.MethodPost:
		h.publishVideo(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (h *Handler) publishVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	form, err := h.parseMultipartForm(r)
	if err != nil {
		writeError(w, err)
		return
	}
	title := form.value("title")
	if title == "" {
		writeError(w, badRequest("title is required"))
		return
	}
	videoFile := form.file("videoFile")
	if videoFile == nil {
		writeError(w, badRequest("videoFile is required"))
		return
	}
	thumbnailFile := form.file("thumbnail")
	if thumbnailFile == nil {
		writeError(w, badRequest("thumbnail is required"))
		return
	}

	duration := 0.0
	if raw := form.value("duration"); raw != "" {
		if parsed, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil && parsed >= 0 {
			duration = parsed
		}
	}

	videoRef, err := h.uploadAsset(r.Context(), "videos", videoFile)
	if err != nil {
		writeError(w, internalError("video upload failed", err))
		return
	}
	thumbRef, err := h.uploadAsset(r.Context(), "thumbnails", thumbnailFile)
	if err != nil {
		h.deleteAsset(r.Context(), videoRef)
		writeError(w, internalError("thumbnail upload failed", err))
		return
	}

	video, err := h.Store.CreateVideo(storage.CreateVideoParams{
		OwnerID:     user.ID,
		Title:       title,
		Description: form.value("description"),
		VideoFile:   orPlaceholder(videoRef, "videos", videoFile.filename),
		Thumbnail:   orPlaceholder(thumbRef, "thumbnails", thumbnailFile.filename),
		Duration:    duration,
	})
	if err != nil {
		writeError(w, storeError(err, "user not found"))
		return
	}
	writeData(w, http.StatusCreated, "video published", video)
}

// orPlaceholder keeps local development working when the asset gateway is
// disabled: stored records still need a non-empty file reference.
func orPlaceholder(ref models.ImageRef, folder, filename string) models.ImageRef {
	if !ref.IsZero() {
		return ref
	}
	return models.ImageRef{Key: folder + "/" + filename}
}

// VideoByID serves GET/PATCH/DELETE /videos/{id}.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/videos/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, notFound("video not found"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getVideo(w, r, id)
	case http.MethodPatch:
		h.updateVideo(w, r, id)
	case http.MethodDelete:
		h.deleteVideo(w, r, id)
	default:
		methodNotAllowed(w, "GET, PATCH, DELETE")
	}
}

func (h *Handler) getVideo(w http.ResponseWriter, r *http.Request, id string) {
	video, exists := h.Store.GetVideo(id)
	if !exists {
		writeError(w, notFound("video not found"))
		return
	}
	viewer := viewerID(r)
	if !video.Published && video.OwnerID != viewer {
		writeError(w, notFound("video not found"))
		return
	}
	if err := h.Store.RecordView(id, viewer); err == nil {
		video.Views++
		h.recorder().VideoViewed()
	}
	owner, _ := h.Store.GetUser(video.OwnerID)
	writeData(w, http.StatusOK, "video", models.VideoSummary{Video: video, Owner: models.SummaryOf(owner)})
}

func (h *Handler) requireVideoOwner(w http.ResponseWriter, r *http.Request, id string) (models.Video, models.User, bool) {
	user, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return models.Video{}, models.User{}, false
	}
	video, exists := h.Store.GetVideo(id)
	if !exists {
		writeError(w, notFound("video not found"))
		return models.Video{}, models.User{}, false
	}
	if video.OwnerID != user.ID {
		writeError(w, forbidden("only the owner can modify this video"))
		return models.Video{}, models.User{}, false
	}
	return video, user, true
}

func (h *Handler) updateVideo(w http.ResponseWriter, r *http.Request, id string) {
	if _, _, ok := h.requireVideoOwner(w, r, id); !ok {
		return
	}

	update := storage.VideoUpdate{}
	var replacedThumbnail models.ImageRef
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		form, err := h.parseMultipartForm(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if title := form.value("title"); title != "" {
			update.Title = &title
		}
		if description, ok := form.fields["description"]; ok && description != "" {
			update.Description = &description
		}
		if file := form.file("thumbnail"); file != nil {
			uploaded, uploadErr := h.uploadAsset(r.Context(), "thumbnails", file)
			if uploadErr != nil {
				writeError(w, internalError("thumbnail upload failed", uploadErr))
				return
			}
			if current, exists := h.Store.GetVideo(id); exists {
				replacedThumbnail = current.Thumbnail
			}
			update.Thumbnail = &uploaded
		}
	} else {
		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, badRequest("invalid request body"))
			return
		}
		update.Title = req.Title
		update.Description = req.Description
	}

	if update.Title == nil && update.Description == nil && update.Thumbnail == nil {
		writeError(w, badRequest("nothing to update"))
		return
	}

	video, err := h.Store.UpdateVideo(id, update)
	if err != nil {
		writeError(w, storeError(err, "video not found"))
		return
	}
	if update.Thumbnail != nil {
		h.deleteAsset(r.Context(), replacedThumbnail)
	}
	writeData(w, http.StatusOK, "video updated", video)
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request, id string) {
	if _, _, ok := h.requireVideoOwner(w, r, id); !ok {
		return
	}
	removed, err := h.Store.DeleteVideo(id)
	if err != nil {
		writeError(w, storeError(err, "video not found"))
		return
	}
	h.deleteAsset(r.Context(), removed.VideoFile)
	h.deleteAsset(r.Context(), removed.Thumbnail)
	writeData(w, http.StatusOK, "video deleted", nil)
}

// TogglePublish serves PATCH /videos/toggle/publish/{id}.
func (h *Handler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, "PATCH")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/videos/toggle/publish/"), "/")
	if id == "" {
		writeError(w, notFound("video not found"))
		return
	}
	if _, _, ok := h.requireVideoOwner(w, r, id); !ok {
		return
	}
	video, err := h.Store.TogglePublish(id)
	if err != nil {
		writeError(w, storeError(err, "video not found"))
		return
	}
	writeData(w, http.StatusOK, "publish state toggled", video)
}
