package storage

import (
	"sort"

	"clipstream/internal/models"
)

// ToggleVideoLike records or withdraws the user's like on a video. It
// reports whether the video is liked after the call.
func (s *Storage) ToggleVideoLike(videoID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Videos[videoID]; !ok {
		return false, ErrNotFound
	}
	return s.toggleLikeLocked(userID, models.Like{VideoID: videoID}, func(like models.Like) bool {
		return like.VideoID == videoID
	})
}

// ToggleCommentLike records or withdraws the user's like on a comment.
func (s *Storage) ToggleCommentLike(commentID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Comments[commentID]; !ok {
		return false, ErrNotFound
	}
	return s.toggleLikeLocked(userID, models.Like{CommentID: commentID}, func(like models.Like) bool {
		return like.CommentID == commentID
	})
}

// ToggleTweetLike records or withdraws the user's like on a tweet.
func (s *Storage) ToggleTweetLike(tweetID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Tweets[tweetID]; !ok {
		return false, ErrNotFound
	}
	return s.toggleLikeLocked(userID, models.Like{TweetID: tweetID}, func(like models.Like) bool {
		return like.TweetID == tweetID
	})
}

func (s *Storage) toggleLikeLocked(userID string, template models.Like, matches func(models.Like) bool) (bool, error) {
	if _, ok := s.data.Users[userID]; !ok {
		return false, ErrUserNotFound
	}

	for likeID, like := range s.data.Likes {
		if like.LikedBy != userID || !matches(like) {
			continue
		}
		removed := like
		delete(s.data.Likes, likeID)
		if err := s.persist(); err != nil {
			s.data.Likes[likeID] = removed
			return false, err
		}
		return false, nil
	}

	id, err := generateID()
	if err != nil {
		return false, err
	}
	like := template
	like.ID = id
	like.LikedBy = userID
	like.CreatedAt = now()
	s.data.Likes[id] = like
	if err := s.persist(); err != nil {
		delete(s.data.Likes, id)
		return false, err
	}
	return true, nil
}

// ListLikedVideos returns the published videos the user has liked, most
// recently liked first.
func (s *Storage) ListLikedVideos(userID string) ([]models.VideoSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[userID]; !ok {
		return nil, ErrUserNotFound
	}

	likes := make([]models.Like, 0)
	for _, like := range s.data.Likes {
		if like.LikedBy == userID && like.VideoID != "" {
			likes = append(likes, like)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		if likes[i].CreatedAt.Equal(likes[j].CreatedAt) {
			return likes[i].ID < likes[j].ID
		}
		return likes[i].CreatedAt.After(likes[j].CreatedAt)
	})

	summaries := make([]models.VideoSummary, 0, len(likes))
	for _, like := range likes {
		video, ok := s.data.Videos[like.VideoID]
		if !ok || !video.Published {
			continue
		}
		summaries = append(summaries, s.videoSummaryLocked(video))
	}
	return summaries, nil
}
