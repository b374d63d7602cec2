package storage

import (
	"errors"
	"testing"
)

func TestPlaylistLifecycle(t *testing.T) {
	store := newTestStore(t)
	ownerID := createTestUser(t, store, "alice")
	videoID := createTestVideo(t, store, ownerID, "first")

	playlist, err := store.CreatePlaylist(ownerID, "  Watch Later  ", "queued videos")
	if err != nil {
		t.Fatalf("CreatePlaylist error: %v", err)
	}
	if playlist.Name != "Watch Later" {
		t.Fatalf("expected trimmed name, got %q", playlist.Name)
	}

	if _, err := store.CreatePlaylist(ownerID, "   ", ""); err == nil {
		t.Fatal("expected blank name rejected")
	}

	playlist, err = store.AddVideoToPlaylist(playlist.ID, videoID)
	if err != nil {
		t.Fatalf("AddVideoToPlaylist error: %v", err)
	}
	if len(playlist.VideoIDs) != 1 {
		t.Fatalf("expected 1 video, got %d", len(playlist.VideoIDs))
	}

	// Adding the same video again is a no-op.
	playlist, err = store.AddVideoToPlaylist(playlist.ID, videoID)
	if err != nil {
		t.Fatalf("AddVideoToPlaylist error: %v", err)
	}
	if len(playlist.VideoIDs) != 1 {
		t.Fatalf("expected duplicate add ignored, got %d", len(playlist.VideoIDs))
	}

	if _, err := store.AddVideoToPlaylist(playlist.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown video, got %v", err)
	}

	name := "Renamed"
	updated, err := store.UpdatePlaylist(playlist.ID, PlaylistUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdatePlaylist error: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("expected renamed playlist, got %q", updated.Name)
	}

	playlist, err = store.RemoveVideoFromPlaylist(playlist.ID, videoID)
	if err != nil {
		t.Fatalf("RemoveVideoFromPlaylist error: %v", err)
	}
	if len(playlist.VideoIDs) != 0 {
		t.Fatalf("expected video removed, got %v", playlist.VideoIDs)
	}

	lists, err := store.ListUserPlaylists(ownerID)
	if err != nil {
		t.Fatalf("ListUserPlaylists error: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(lists))
	}

	if err := store.DeletePlaylist(playlist.ID); err != nil {
		t.Fatalf("DeletePlaylist error: %v", err)
	}
	if err := store.DeletePlaylist(playlist.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
	// Deleting a playlist never touches its videos.
	if _, ok := store.GetVideo(videoID); !ok {
		t.Fatal("expected video to survive playlist deletion")
	}
}
