package storage

import (
	"context"
	"errors"

	"clipstream/internal/models"
)

// ErrInvalidCredentials is returned when a password does not match the
// stored hash.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserNotFound is returned when no account matches the requested
// identity.
var ErrUserNotFound = errors.New("user not found")

// ErrConflict is returned when a write would violate username or email
// uniqueness.
var ErrConflict = errors.New("username or email already in use")

// ErrNotFound is returned for lookups of non-user records that do not exist.
var ErrNotFound = errors.New("record not found")

// CreateUserParams carries validated registration input. Password arrives in
// plaintext and is hashed exactly once inside the repository.
type CreateUserParams struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     models.ImageRef
	CoverImage models.ImageRef
}

// UserUpdate mutates profile fields; nil pointers leave fields untouched.
type UserUpdate struct {
	FullName *string
	Email    *string
}

// CreateVideoParams carries a validated video publication.
type CreateVideoParams struct {
	OwnerID     string
	Title       string
	Description string
	VideoFile   models.ImageRef
	Thumbnail   models.ImageRef
	Duration    float64
}

// VideoUpdate mutates video metadata; nil pointers leave fields untouched.
type VideoUpdate struct {
	Title       *string
	Description *string
	Thumbnail   *models.ImageRef
}

// ListVideosParams filters and paginates the video listing.
type ListVideosParams struct {
	OwnerID       string
	Query         string
	IncludeHidden bool
	Page          int
	Limit         int
}

// PlaylistUpdate mutates playlist metadata; nil pointers leave fields
// untouched.
type PlaylistUpdate struct {
	Name        *string
	Description *string
}

// Repository exposes the datastore operations required by the API handlers.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(params CreateUserParams) (models.User, error)
	GetUser(id string) (models.User, bool)
	FindUserByIdentity(username, email string) (models.User, bool)
	AuthenticateUser(username, email, password string) (models.User, error)
	UpdateUser(id string, update UserUpdate) (models.User, error)
	ChangeUserPassword(id, oldPassword, newPassword string) error
	SetUserAvatar(id string, avatar models.ImageRef) (models.User, models.ImageRef, error)
	SetUserCoverImage(id string, cover models.ImageRef) (models.User, models.ImageRef, error)
	RotateRefreshToken(id, token string) error
	ClearRefreshToken(id string) error

	ChannelProfile(username, viewerID string) (models.ChannelProfile, bool)
	ChannelStats(ownerID string) (models.ChannelStats, error)
	WatchHistory(userID string) ([]models.VideoSummary, error)

	CreateVideo(params CreateVideoParams) (models.Video, error)
	GetVideo(id string) (models.Video, bool)
	ListVideos(params ListVideosParams) ([]models.VideoSummary, error)
	UpdateVideo(id string, update VideoUpdate) (models.Video, error)
	DeleteVideo(id string) (models.Video, error)
	TogglePublish(id string) (models.Video, error)
	RecordView(videoID, viewerID string) error

	CreateTweet(ownerID, content string) (models.Tweet, error)
	GetTweet(id string) (models.Tweet, bool)
	ListUserTweets(userID, viewerID string) ([]models.TweetSummary, error)
	UpdateTweet(id, content string) (models.Tweet, error)
	DeleteTweet(id string) error

	CreateComment(videoID, ownerID, content string) (models.Comment, error)
	GetComment(id string) (models.Comment, bool)
	ListComments(videoID, viewerID string, page, limit int) ([]models.CommentSummary, error)
	UpdateComment(id, content string) (models.Comment, error)
	DeleteComment(id string) error

	ToggleVideoLike(videoID, userID string) (bool, error)
	ToggleCommentLike(commentID, userID string) (bool, error)
	ToggleTweetLike(tweetID, userID string) (bool, error)
	ListLikedVideos(userID string) ([]models.VideoSummary, error)

	ToggleSubscription(subscriberID, channelID string) (bool, error)
	ListSubscribers(channelID string) ([]models.OwnerSummary, error)
	ListSubscribedChannels(subscriberID string) ([]models.OwnerSummary, error)
	CountSubscribers(channelID string) int

	CreatePlaylist(ownerID, name, description string) (models.Playlist, error)
	GetPlaylist(id string) (models.Playlist, bool)
	ListUserPlaylists(userID string) ([]models.Playlist, error)
	UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error)
	DeletePlaylist(id string) error
	AddVideoToPlaylist(playlistID, videoID string) (models.Playlist, error)
	RemoveVideoFromPlaylist(playlistID, videoID string) (models.Playlist, error)
}

var _ Repository = (*Storage)(nil)
