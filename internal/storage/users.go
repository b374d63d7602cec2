package storage

import (
	"errors"
	"fmt"
	"strings"

	"clipstream/internal/models"
	"golang.org/x/text/unicode/norm"
)

// normalizeHandle canonicalises a username for storage and comparison.
// Unicode input is NFC-normalised before lowercasing so visually identical
// handles cannot coexist.
func normalizeHandle(username string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(username)))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(email)))
}

// CreateUser registers a new account. The username and email are normalised
// and must be unique across all existing accounts.
func (s *Storage) CreateUser(params CreateUserParams) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

	for _, user := range s.data.Users {
		if user.Username == username || strings.EqualFold(user.Email, email) {
			return models.User{}, ErrConflict
		}
	}

	id, err := generateID()
	if err != nil {
		return models.User{}, err
	}
	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created := now()
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

	s.data.Users[id] = user
	if err := s.persist(); err != nil {
		delete(s.data.Users, id)
		return models.User{}, err
	}
	return user, nil
}

// GetUser returns the account with the given ID.
func (s *Storage) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.Users[id]
	return user, ok
}

// FindUserByIdentity resolves an account by username or email. Either field
// may be blank; matching is case-insensitive.
func (s *Storage) FindUserByIdentity(username, email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username = normalizeHandle(username)
	email = normalizeEmail(email)
	for _, user := range s.data.Users {
		if user.MatchesIdentity(username, email) {
			return user, true
		}
	}
	return models.User{}, false
}

// UpdateUser mutates profile fields while enforcing email uniqueness.
func (s *Storage) UpdateUser(id string, update UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	previous := user

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
		for existingID, existing := range s.data.Users {
			if existingID == id {
				continue
			}
			if strings.EqualFold(existing.Email, email) {
				return models.User{}, ErrConflict
			}
		}
		user.Email = email
	}

	user.UpdatedAt = now()
	s.data.Users[id] = user
	if err := s.persist(); err != nil {
		s.data.Users[id] = previous
		return models.User{}, err
	}
	return user, nil
}

// SetUserAvatar swaps the account avatar and reports the replaced reference
// so callers can release the old object.
func (s *Storage) SetUserAvatar(id string, avatar models.ImageRef) (models.User, models.ImageRef, error) {
	return s.setUserImage(id, func(user *models.User) models.ImageRef {
		replaced := user.Avatar
		user.Avatar = avatar
		return replaced
	})
}

// SetUserCoverImage swaps the account cover image and reports the replaced
// reference.
func (s *Storage) SetUserCoverImage(id string, cover models.ImageRef) (models.User, models.ImageRef, error) {
	return s.setUserImage(id, func(user *models.User) models.ImageRef {
		replaced := user.CoverImage
		user.CoverImage = cover
		return replaced
	})
}

func (s *Storage) setUserImage(id string, swap func(*models.User) models.ImageRef) (models.User, models.ImageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return models.User{}, models.ImageRef{}, ErrUserNotFound
	}
	previous := user
	replaced := swap(&user)
	user.UpdatedAt = now()
	s.data.Users[id] = user
	if err := s.persist(); err != nil {
		s.data.Users[id] = previous
		return models.User{}, models.ImageRef{}, err
	}
	return user, replaced, nil
}
