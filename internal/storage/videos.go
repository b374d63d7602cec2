package storage

import (
	"errors"
	"sort"
	"strings"

	"clipstream/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// CreateVideo records a new publication. Videos start out published.
func (s *Storage) CreateVideo(params CreateVideoParams) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.Video{}, ErrUserNotFound
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Video{}, errors.New("title is required")
	}
	if params.VideoFile.IsZero() {
		return models.Video{}, errors.New("video file is required")
	}

	id, err := generateID()
	if err != nil {
		return models.Video{}, err
	}

	created := now()
	video := models.Video{
		ID:          id,
		OwnerID:     params.OwnerID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		VideoFile:   params.VideoFile,
		Thumbnail:   params.Thumbnail,
		Duration:    params.Duration,
		Published:   true,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		delete(s.data.Videos, id)
		return models.Video{}, err
	}
	return video, nil
}

// GetVideo returns the video with the given ID.
func (s *Storage) GetVideo(id string) (models.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.data.Videos[id]
	return video, ok
}

// ListVideos returns published videos joined with their owners, newest
// first. IncludeHidden extends the listing to unpublished videos, which is
// reserved for owners inspecting their own channel.
func (s *Storage) ListVideos(params ListVideosParams) ([]models.VideoSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(params.Query))
	matches := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		if params.OwnerID != "" && video.OwnerID != params.OwnerID {
			continue
		}
		if !video.Published && !params.IncludeHidden {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(video.Title), query) &&
			!strings.Contains(strings.ToLower(video.Description), query) {
			continue
		}
		matches = append(matches, video)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	matches = paginate(matches, params.Page, params.Limit)

	summaries := make([]models.VideoSummary, 0, len(matches))
	for _, video := range matches {
		summaries = append(summaries, s.videoSummaryLocked(video))
	}
	return summaries, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *Storage) videoSummaryLocked(video models.Video) models.VideoSummary {
	owner := s.data.Users[video.OwnerID]
	return models.VideoSummary{Video: video, Owner: models.SummaryOf(owner)}
}

// UpdateVideo mutates video metadata.
func (s *Storage) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	previous := video

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, errors.New("title cannot be empty")
		}
		video.Title = title
	}
	if update.Description != nil {
		video.Description = strings.TrimSpace(*update.Description)
	}
	if update.Thumbnail != nil && !update.Thumbnail.IsZero() {
		video.Thumbnail = *update.Thumbnail
	}

	video.UpdatedAt = now()
	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.Video{}, err
	}
	return video, nil
}

// DeleteVideo removes the video together with its comments, likes, playlist
// references, and watch-history entries. The removed record is returned so
// callers can release the stored objects.
func (s *Storage) DeleteVideo(id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}

	updated := cloneDataset(s.data)
	delete(updated.Videos, id)

	for commentID, comment := range updated.Comments {
		if comment.VideoID == id {
			delete(updated.Comments, commentID)
			for likeID, like := range updated.Likes {
				if like.CommentID == commentID {
					delete(updated.Likes, likeID)
				}
			}
		}
	}
	for likeID, like := range updated.Likes {
		if like.VideoID == id {
			delete(updated.Likes, likeID)
		}
	}
	for playlistID, playlist := range updated.Playlists {
		playlist.VideoIDs = removeString(playlist.VideoIDs, id)
		updated.Playlists[playlistID] = playlist
	}
	for userID, user := range updated.Users {
		user.WatchHistory = removeString(user.WatchHistory, id)
		updated.Users[userID] = user
	}

	if err := s.persistDataset(updated); err != nil {
		return models.Video{}, err
	}
	s.data = updated
	return video, nil
}

func removeString(values []string, target string) []string {
	filtered := values[:0]
	for _, value := range values {
		if value != target {
			filtered = append(filtered, value)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

// TogglePublish flips the publish flag on a video.
func (s *Storage) TogglePublish(id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	previous := video

	video.Published = !video.Published
	video.UpdatedAt = now()
	s.data.Videos[id] = video
	if err := s.persist(); err != nil {
		s.data.Videos[id] = previous
		return models.Video{}, err
	}
	return video, nil
}

// RecordView bumps the view counter and appends the video to the viewer's
// watch history. Rewatching moves the entry to the front instead of
// duplicating it. An empty viewerID counts the view without touching any
// history.
func (s *Storage) RecordView(videoID, viewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[videoID]
	if !ok {
		return ErrNotFound
	}
	previousVideo := video
	video.Views++
	s.data.Videos[videoID] = video

	var previousUser models.User
	var touchedUser bool
	if viewerID != "" {
		user, ok := s.data.Users[viewerID]
		if !ok {
			s.data.Videos[videoID] = previousVideo
			return ErrUserNotFound
		}
		previousUser = user
		touchedUser = true
		history := removeString(append([]string(nil), user.WatchHistory...), videoID)
		user.WatchHistory = append([]string{videoID}, history...)
		s.data.Users[viewerID] = user
	}

	if err := s.persist(); err != nil {
		s.data.Videos[videoID] = previousVideo
		if touchedUser {
			s.data.Users[viewerID] = previousUser
		}
		return err
	}
	return nil
}

// WatchHistory returns the viewer's watched videos, most recent first.
// Entries for videos that have since been hidden are skipped.
func (s *Storage) WatchHistory(userID string) ([]models.VideoSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.data.Users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	summaries := make([]models.VideoSummary, 0, len(user.WatchHistory))
	for _, videoID := range user.WatchHistory {
		video, ok := s.data.Videos[videoID]
		if !ok || !video.Published {
			continue
		}
		summaries = append(summaries, s.videoSummaryLocked(video))
	}
	return summaries, nil
}
