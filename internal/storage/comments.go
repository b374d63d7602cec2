package storage

import (
	"errors"
	"sort"
	"strings"

	"clipstream/internal/models"
)

// CreateComment attaches a comment to a video.
func (s *Storage) CreateComment(videoID, ownerID, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Comment{}, ErrNotFound
	}
	if _, ok := s.data.Users[ownerID]; !ok {
		return models.Comment{}, ErrUserNotFound
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, errors.New("content is required")
	}

	id, err := generateID()
	if err != nil {
		return models.Comment{}, err
	}

	created := now()
	comment := models.Comment{
		ID:        id,
		VideoID:   videoID,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: created,
		UpdatedAt: created,
	}

	s.data.Comments[id] = comment
	if err := s.persist(); err != nil {
		delete(s.data.Comments, id)
		return models.Comment{}, err
	}
	return comment, nil
}

// GetComment returns the comment with the given ID.
func (s *Storage) GetComment(id string) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comment, ok := s.data.Comments[id]
	return comment, ok
}

// ListComments returns a video's comments newest first, annotated with like
// counts and whether the viewer liked each one.
func (s *Storage) ListComments(videoID, viewerID string, page, limit int) ([]models.CommentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return nil, ErrNotFound
	}

	comments := make([]models.Comment, 0)
	for _, comment := range s.data.Comments {
		if comment.VideoID == videoID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})

	comments = paginate(comments, page, limit)

	summaries := make([]models.CommentSummary, 0, len(comments))
	for _, comment := range comments {
		likeCount, viewerLiked := s.commentLikesLocked(comment.ID, viewerID)
		summaries = append(summaries, models.CommentSummary{
			Comment:     comment,
			Owner:       models.SummaryOf(s.data.Users[comment.OwnerID]),
			LikeCount:   likeCount,
			ViewerLiked: viewerLiked,
		})
	}
	return summaries, nil
}

func (s *Storage) commentLikesLocked(commentID, viewerID string) (int, bool) {
	count := 0
	viewerLiked := false
	for _, like := range s.data.Likes {
		if like.CommentID != commentID {
			continue
		}
		count++
		if viewerID != "" && like.LikedBy == viewerID {
			viewerLiked = true
		}
	}
	return count, viewerLiked
}

// UpdateComment replaces the comment content.
func (s *Storage) UpdateComment(id, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.data.Comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, errors.New("content is required")
	}
	previous := comment

	comment.Content = content
	comment.UpdatedAt = now()
	s.data.Comments[id] = comment
	if err := s.persist(); err != nil {
		s.data.Comments[id] = previous
		return models.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes the comment and any likes attached to it.
func (s *Storage) DeleteComment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Comments[id]; !ok {
		return ErrNotFound
	}

	updated := cloneDataset(s.data)
	delete(updated.Comments, id)
	for likeID, like := range updated.Likes {
		if like.CommentID == id {
			delete(updated.Likes, likeID)
		}
	}

	if err := s.persistDataset(updated); err != nil {
		return err
	}
	s.data = updated
	return nil
}
