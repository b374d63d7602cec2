package storage

import (
	"errors"
	"sort"

	"clipstream/internal/models"
)

// ErrSelfSubscription is returned when a user attempts to subscribe to their
// own channel.
var ErrSelfSubscription = errors.New("cannot subscribe to own channel")

// ToggleSubscription subscribes the user to the channel, or unsubscribes if
// a subscription already exists. It reports whether the user is subscribed
// after the call.
func (s *Storage) ToggleSubscription(subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if subscriberID == channelID {
		return false, ErrSelfSubscription
	}
	if _, ok := s.data.Users[subscriberID]; !ok {
		return false, ErrUserNotFound
	}
	if _, ok := s.data.Users[channelID]; !ok {
		return false, ErrUserNotFound
	}

	for subID, sub := range s.data.Subscriptions {
		if sub.SubscriberID != subscriberID || sub.ChannelID != channelID {
			continue
		}
		removed := sub
		delete(s.data.Subscriptions, subID)
		if err := s.persist(); err != nil {
			s.data.Subscriptions[subID] = removed
			return false, err
		}
		return false, nil
	}

	id, err := generateID()
	if err != nil {
		return false, err
	}
	sub := models.Subscription{
		ID:           id,
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    now(),
	}
	s.data.Subscriptions[id] = sub
	if err := s.persist(); err != nil {
		delete(s.data.Subscriptions, id)
		return false, err
	}
	return true, nil
}

// ListSubscribers returns the accounts subscribed to the channel.
func (s *Storage) ListSubscribers(channelID string) ([]models.OwnerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[channelID]; !ok {
		return nil, ErrUserNotFound
	}
	return s.collectSubscriptionUsersLocked(func(sub models.Subscription) (string, bool) {
		return sub.SubscriberID, sub.ChannelID == channelID
	}), nil
}

// ListSubscribedChannels returns the channels the user subscribes to.
func (s *Storage) ListSubscribedChannels(subscriberID string) ([]models.OwnerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.data.Users[subscriberID]; !ok {
		return nil, ErrUserNotFound
	}
	return s.collectSubscriptionUsersLocked(func(sub models.Subscription) (string, bool) {
		return sub.ChannelID, sub.SubscriberID == subscriberID
	}), nil
}

func (s *Storage) collectSubscriptionUsersLocked(pick func(models.Subscription) (string, bool)) []models.OwnerSummary {
	summaries := make([]models.OwnerSummary, 0)
	for _, sub := range s.data.Subscriptions {
		userID, ok := pick(sub)
		if !ok {
			continue
		}
		user, exists := s.data.Users[userID]
		if !exists {
			continue
		}
		summaries = append(summaries, models.SummaryOf(user))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Username < summaries[j].Username
	})
	return summaries
}

// CountSubscribers returns the number of accounts subscribed to the channel.
func (s *Storage) CountSubscribers(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countSubscribersLocked(channelID)
}

func (s *Storage) countSubscribersLocked(channelID string) int {
	count := 0
	for _, sub := range s.data.Subscriptions {
		if sub.ChannelID == channelID {
			count++
		}
	}
	return count
}
