package storage

import (
	"clipstream/internal/models"
)

// ChannelProfile returns the public channel view for a username, including
// subscriber counts and whether the viewer subscribes to it. viewerID may be
// blank for anonymous lookups.
func (s *Storage) ChannelProfile(username, viewerID string) (models.ChannelProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username = normalizeHandle(username)
	var channel models.User
	found := false
	for _, user := range s.data.Users {
		if user.Username == username {
			channel = user
			found = true
			break
		}
	}
	if !found {
		return models.ChannelProfile{}, false
	}

	subscribedCount := 0
	viewerSubscribed := false
	for _, sub := range s.data.Subscriptions {
		if sub.SubscriberID == channel.ID {
			subscribedCount++
		}
		if sub.ChannelID == channel.ID && viewerID != "" && sub.SubscriberID == viewerID {
			viewerSubscribed = true
		}
	}

	return models.ChannelProfile{
		ID:               channel.ID,
		Username:         channel.Username,
		FullName:         channel.FullName,
		Email:            channel.Email,
		Avatar:           channel.Avatar,
		CoverImage:       channel.CoverImage,
		SubscriberCount:  s.countSubscribersLocked(channel.ID),
		SubscribedCount:  subscribedCount,
		ViewerSubscribed: viewerSubscribed,
	}, true
}

// ChannelStats aggregates totals across the owner's videos for the
// dashboard.
func (s *Storage) ChannelStats(ownerID string) (models.ChannelStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[ownerID]; !ok {
		return models.ChannelStats{}, ErrUserNotFound
	}

	stats := models.ChannelStats{
		TotalSubscribers: s.countSubscribersLocked(ownerID),
	}
	owned := make(map[string]struct{})
	for id, video := range s.data.Videos {
		if video.OwnerID != ownerID {
			continue
		}
		owned[id] = struct{}{}
		stats.TotalVideos++
		stats.TotalViews += video.Views
	}
	for _, like := range s.data.Likes {
		if like.VideoID == "" {
			continue
		}
		if _, ok := owned[like.VideoID]; ok {
			stats.TotalLikes++
		}
	}
	return stats, nil
}
