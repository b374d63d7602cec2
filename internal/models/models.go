package models

import (
	"strings"
	"time"
)

// ImageRef points at an asset stored in the upload gateway. Key identifies
// the object for later deletion, URL is the public playback/display address.
type ImageRef struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url,omitempty"`
}

// IsZero reports whether the reference points at no stored asset.
func (r ImageRef) IsZero() bool {
	return r.Key == "" && r.URL == ""
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	Avatar       ImageRef   `json:"avatar"`
	CoverImage   ImageRef   `json:"coverImage"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	WatchHistory []string   `json:"watchHistory,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// MatchesIdentity reports whether the user is identified by the provided
// username or email. Comparison is case-insensitive on both fields.
func (u User) MatchesIdentity(username, email string) bool {
	if username != "" && strings.EqualFold(u.Username, username) {
		return true
	}
	if email != "" && strings.EqualFold(u.Email, email) {
		return true
	}
	return false
}

type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   ImageRef  `json:"videoFile"`
	Thumbnail   ImageRef  `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Like records a single like by a user on exactly one target kind.
type Like struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	TweetID   string    `json:"tweetId,omitempty"`
	LikedBy   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription links a subscriber to a channel, where a channel is simply
// another user's account.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerSummary is the reduced account projection embedded in aggregate
// listings (tweets, comments, watch history).
type OwnerSummary struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"fullName"`
	Avatar   ImageRef `json:"avatar"`
}

// ChannelProfile aggregates the public view of an account's channel.
type ChannelProfile struct {
	ID               string   `json:"id"`
	Username         string   `json:"username"`
	FullName         string   `json:"fullName"`
	Email            string   `json:"email"`
	Avatar           ImageRef `json:"avatar"`
	CoverImage       ImageRef `json:"coverImage"`
	SubscriberCount  int      `json:"subscriberCount"`
	SubscribedCount  int      `json:"subscribedCount"`
	ViewerSubscribed bool     `json:"viewerSubscribed"`
}

// VideoSummary is a video joined with its owner for listings.
type VideoSummary struct {
	Video
	Owner OwnerSummary `json:"owner"`
}

// TweetSummary is a tweet joined with its owner and like metadata.
type TweetSummary struct {
	Tweet
	Owner       OwnerSummary `json:"owner"`
	LikeCount   int          `json:"likeCount"`
	ViewerLiked bool         `json:"viewerLiked"`
}

// CommentSummary is a comment joined with its owner and like metadata.
type CommentSummary struct {
	Comment
	Owner       OwnerSummary `json:"owner"`
	LikeCount   int          `json:"likeCount"`
	ViewerLiked bool         `json:"viewerLiked"`
}

// ChannelStats aggregates totals for the dashboard of a channel owner.
type ChannelStats struct {
	TotalVideos      int   `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int   `json:"totalSubscribers"`
	TotalLikes       int   `json:"totalLikes"`
}

// SummaryOf reduces a full user record to its embeddable projection.
func SummaryOf(u User) OwnerSummary {
	return OwnerSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}
