package storage

import (
	"errors"
	"sort"
	"strings"

	"clipstream/internal/models"
)

// CreateTweet posts a short text update on the owner's channel.
func (s *Storage) CreateTweet(ownerID, content string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[ownerID]; !ok {
		return models.Tweet{}, ErrUserNotFound
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, errors.New("content is required")
	}

	id, err := generateID()
	if err != nil {
		return models.Tweet{}, err
	}

	created := now()
	tweet := models.Tweet{
		ID:        id,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: created,
		UpdatedAt: created,
	}

	s.data.Tweets[id] = tweet
	if err := s.persist(); err != nil {
		delete(s.data.Tweets, id)
		return models.Tweet{}, err
	}
	return tweet, nil
}

// GetTweet returns the tweet with the given ID.
func (s *Storage) GetTweet(id string) (models.Tweet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tweet, ok := s.data.Tweets[id]
	return tweet, ok
}

// ListUserTweets returns a user's tweets newest first, annotated with like
// counts and whether the viewer liked each one.
func (s *Storage) ListUserTweets(userID, viewerID string) ([]models.TweetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[userID]; !ok {
		return nil, ErrUserNotFound
	}

	tweets := make([]models.Tweet, 0)
	for _, tweet := range s.data.Tweets {
		if tweet.OwnerID == userID {
			tweets = append(tweets, tweet)
		}
	}
	sort.Slice(tweets, func(i, j int) bool {
		if tweets[i].CreatedAt.Equal(tweets[j].CreatedAt) {
			return tweets[i].ID < tweets[j].ID
		}
		return tweets[i].CreatedAt.After(tweets[j].CreatedAt)
	})

	summaries := make([]models.TweetSummary, 0, len(tweets))
	for _, tweet := range tweets {
		likeCount, viewerLiked := s.tweetLikesLocked(tweet.ID, viewerID)
		summaries = append(summaries, models.TweetSummary{
			Tweet:       tweet,
			Owner:       models.SummaryOf(s.data.Users[tweet.OwnerID]),
			LikeCount:   likeCount,
			ViewerLiked: viewerLiked,
		})
	}
	return summaries, nil
}

func (s *Storage) tweetLikesLocked(tweetID, viewerID string) (int, bool) {
	count := 0
	viewerLiked := false
	for _, like := range s.data.Likes {
		if like.TweetID != tweetID {
			continue
		}
		count++
		if viewerID != "" && like.LikedBy == viewerID {
			viewerLiked = true
		}
	}
	return count, viewerLiked
}

// UpdateTweet replaces the tweet content.
func (s *Storage) UpdateTweet(id, content string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tweet, ok := s.data.Tweets[id]
	if !ok {
		return models.Tweet{}, ErrNotFound
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, errors.New("content is required")
	}
	previous := tweet

	tweet.Content = content
	tweet.UpdatedAt = now()
	s.data.Tweets[id] = tweet
	if err := s.persist(); err != nil {
		s.data.Tweets[id] = previous
		return models.Tweet{}, err
	}
	return tweet, nil
}

// DeleteTweet removes the tweet and any likes attached to it.
func (s *Storage) DeleteTweet(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Tweets[id]; !ok {
		return ErrNotFound
	}

	updated := cloneDataset(s.data)
	delete(updated.Tweets, id)
	for likeID, like := range updated.Likes {
		if like.TweetID == id {
			delete(updated.Likes, likeID)
		}
	}

	if err := s.persistDataset(updated); err != nil {
		return err
	}
	s.data = updated
	return nil
}
