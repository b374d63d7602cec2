package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clipstream/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPostgresUnavailable is returned for operations the Postgres repository
// has not yet been wired to serve. Account and session operations are
// implemented; community content still lives behind the JSON driver.
var ErrPostgresUnavailable = fmt.Errorf("postgres repository unavailable")

type postgresRepository struct {
	pool *pgxpool.Pool
	cfg  PostgresConfig
}

var _ Repository = (*postgresRepository)(nil)

// NewPostgresRepository opens a Postgres-backed repository and bootstraps its
// schema.
func NewPostgresRepository(dsn string, opts ...Option) (Repository, error) {
	cfg := newPostgresConfig(dsn, opts...)
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections >= 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckInterval > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckInterval
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.ApplicationName != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	repo := &postgresRepository{pool: pool, cfg: cfg}
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := repo.ensureSchema(migrateCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the connection pool, honouring the context deadline.
func (r *postgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return ErrPostgresUnavailable
	}
	return r.pool.Ping(ctx)
}

const userColumns = "id, username, email, full_name, avatar_key, avatar_url, cover_key, cover_url, password_hash, refresh_token, watch_history, created_at, updated_at"

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var watchHistory []string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Avatar.Key,
		&user.Avatar.URL,
		&user.CoverImage.Key,
		&user.CoverImage.URL,
		&user.PasswordHash,
		&user.RefreshToken,
		&watchHistory,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	if len(watchHistory) > 0 {
		user.WatchHistory = watchHistory
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *postgresRepository) CreateUser(params CreateUserParams) (models.User, error) {
	username := normalizeHandle(params.Username)
	if username == "" {
		return models.User{}, errors.New("username is required")
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return models.User{}, errors.New("email is required")
	}
	fullName := strings.TrimSpace(params.FullName)
	if fullName == "" {
		return models.User{}, errors.New("fullName is required")
	}
	if params.Password == "" {
		return models.User{}, errors.New("password is required")
	}

	id, err := generateID()
	if err != nil {
		return models.User{}, err
	}
	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created := time.Now().UTC()
	user := models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       params.Avatar,
		CoverImage:   params.CoverImage,
		PasswordHash: hashed,
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	_, err = r.pool.Exec(context.Background(), `
INSERT INTO users (id, username, email, full_name, avatar_key, avatar_url, cover_key, cover_url, password_hash, refresh_token, watch_history, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', '{}', $10, $10)
`, id, username, email, fullName, user.Avatar.Key, user.Avatar.URL, user.CoverImage.Key, user.CoverImage.URL, hashed, created)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) GetUser(id string) (models.User, bool) {
	row := r.pool.QueryRow(context.Background(), "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (r *postgresRepository) FindUserByIdentity(username, email string) (models.User, bool) {
	username = normalizeHandle(username)
	email = normalizeEmail(email)
	if username == "" && email == "" {
		return models.User{}, false
	}
	row := r.pool.QueryRow(context.Background(), `
SELECT `+userColumns+`
FROM users
WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND lower(email) = $2)
LIMIT 1
`, username, email)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (r *postgresRepository) AuthenticateUser(username, email, password string) (models.User, error) {
	user, ok := r.FindUserByIdentity(username, email)
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if err := verifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *postgresRepository) UpdateUser(id string, update UserUpdate) (models.User, error) {
	user, ok := r.GetUser(id)
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return models.User{}, errors.New("fullName cannot be empty")
		}
		user.FullName = name
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if email == "" {
			return models.User{}, errors.New("email cannot be empty")
		}
		user.Email = email
	}
	user.UpdatedAt = time.Now().UTC()

	_, err := r.pool.Exec(context.Background(), `
UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1
`, id, user.FullName, user.Email, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) ChangeUserPassword(id, oldPassword, newPassword string) error {
	user, ok := r.GetUser(id)
	if !ok {
		return ErrUserNotFound
	}
	if err := verifyPassword(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return err
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = r.pool.Exec(context.Background(), `
UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
`, id, hashed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *postgresRepository) SetUserAvatar(id string, avatar models.ImageRef) (models.User, models.ImageRef, error) {
	return r.setUserImage(id, "avatar_key", "avatar_url", avatar, func(u *models.User) *models.ImageRef {
		return &u.Avatar
	})
}

func (r *postgresRepository) SetUserCoverImage(id string, cover models.ImageRef) (models.User, models.ImageRef, error) {
	return r.setUserImage(id, "cover_key", "cover_url", cover, func(u *models.User) *models.ImageRef {
		return &u.CoverImage
	})
}

func (r *postgresRepository) setUserImage(id, keyColumn, urlColumn string, image models.ImageRef, field func(*models.User) *models.ImageRef) (models.User, models.ImageRef, error) {
	user, ok := r.GetUser(id)
	if !ok {
		return models.User{}, models.ImageRef{}, ErrUserNotFound
	}
	replaced := *field(&user)
	*field(&user) = image
	user.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf("UPDATE users SET %s = $2, %s = $3, updated_at = $4 WHERE id = $1", keyColumn, urlColumn)
	if _, err := r.pool.Exec(context.Background(), query, id, image.Key, image.URL, user.UpdatedAt); err != nil {
		return models.User{}, models.ImageRef{}, fmt.Errorf("update user image: %w", err)
	}
	return user, replaced, nil
}

func (r *postgresRepository) RotateRefreshToken(id, token string) error {
	return r.writeRefreshToken(id, token)
}

func (r *postgresRepository) ClearRefreshToken(id string) error {
	return r.writeRefreshToken(id, "")
}

func (r *postgresRepository) writeRefreshToken(id, token string) error {
	tag, err := r.pool.Exec(context.Background(), `
UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1
`, id, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) ChannelProfile(username, viewerID string) (models.ChannelProfile, bool) {
	return models.ChannelProfile{}, false
}

func (r *postgresRepository) ChannelStats(ownerID string) (models.ChannelStats, error) {
	return models.ChannelStats{}, ErrPostgresUnavailable
}

func (r *postgresRepository) WatchHistory(userID string) ([]models.VideoSummary, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) CreateVideo(params CreateVideoParams) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetVideo(id string) (models.Video, bool) {
	return models.Video{}, false
}

func (r *postgresRepository) ListVideos(params ListVideosParams) ([]models.VideoSummary, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteVideo(id string) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) TogglePublish(id string) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) RecordView(videoID, viewerID string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) CreateTweet(ownerID, content string) (models.Tweet, error) {
	return models.Tweet{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetTweet(id string) (models.Tweet, bool) {
	return models.Tweet{}, false
}

func (r *postgresRepository) ListUserTweets(userID, viewerID string) ([]models.TweetSummary, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) UpdateTweet(id, content string) (models.Tweet, error) {
	return models.Tweet{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteTweet(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) CreateComment(videoID, ownerID, content string) (models.Comment, error) {
	return models.Comment{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetComment(id string) (models.Comment, bool) {
	return models.Comment{}, false
}

func (r *postgresRepository) ListComments(videoID, viewerID string, page, limit int) ([]models.CommentSummary, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) UpdateComment(id, content string) (models.Comment, error) {
	return models.Comment{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteComment(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) ToggleVideoLike(videoID, userID string) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) ToggleCommentLike(commentID, userID string) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) ToggleTweetLike(tweetID, userID string) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) ListLikedVideos(userID string) ([]models.VideoSummary, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) ToggleSubscription(subscriberID, channelID string) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) ListSubscribers(channelID string) ([]models.OwnerSummary, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) ListSubscribedChannels(subscriberID string) ([]models.OwnerSummary, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) CountSubscribers(channelID string) int {
	return 0
}

func (r *postgresRepository) CreatePlaylist(ownerID, name, description string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetPlaylist(id string) (models.Playlist, bool) {
	return models.Playlist{}, false
}

func (r *postgresRepository) ListUserPlaylists(userID string) ([]models.Playlist, error) {
	return nil, ErrPostgresUnavailable
}

func (r *postgresRepository) UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeletePlaylist(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) AddVideoToPlaylist(playlistID, videoID string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) RemoveVideoFromPlaylist(playlistID, videoID string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}
