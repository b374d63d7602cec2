package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"clipstream/internal/models"
)

func imageRef(key string) models.ImageRef {
	return models.ImageRef{Key: key, URL: "https://cdn.example.com/" + key}
}

func newTestStore(t *testing.T) *Storage {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}
	return store
}

func createTestUser(t *testing.T, store *Storage, username string) string {
	t.Helper()
	user, err := store.CreateUser(CreateUserParams{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) returned error: %v", username, err)
	}
	return user.ID
}

func createTestVideo(t *testing.T, store *Storage, ownerID, title string) string {
	t.Helper()
	video, err := store.CreateVideo(CreateVideoParams{
		OwnerID:   ownerID,
		Title:     title,
		VideoFile: imageRef("videos/" + title),
		Thumbnail: imageRef("thumbnails/" + title),
		Duration:  42.5,
	})
	if err != nil {
		t.Fatalf("CreateVideo(%s) returned error: %v", title, err)
	}
	return video.ID
}

func TestStoreReloadsPersistedDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}
	ownerID := createTestUser(t, store, "alice")
	videoID := createTestVideo(t, store, ownerID, "first")

	reopened, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage reopen error: %v", err)
	}
	if _, ok := reopened.GetUser(ownerID); !ok {
		t.Fatal("expected user to survive reload")
	}
	video, ok := reopened.GetVideo(videoID)
	if !ok {
		t.Fatal("expected video to survive reload")
	}
	if video.Title != "first" {
		t.Fatalf("expected title first, got %s", video.Title)
	}
}

func TestPersistFailureLeavesDataUntouched(t *testing.T) {
	store := newTestStore(t)
	ownerID := createTestUser(t, store, "alice")

	persistErr := errors.New("disk full")
	store.persistOverride = func(dataset) error { return persistErr }

	if _, err := store.CreateVideo(CreateVideoParams{
		OwnerID:   ownerID,
		Title:     "doomed",
		VideoFile: imageRef("videos/doomed"),
	}); !errors.Is(err, persistErr) {
		t.Fatalf("expected persist error, got %v", err)
	}

	store.persistOverride = nil
	videos, err := store.ListVideos(ListVideosParams{OwnerID: ownerID, IncludeHidden: true})
	if err != nil {
		t.Fatalf("ListVideos error: %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("expected rollback to remove video, got %d", len(videos))
	}
}
