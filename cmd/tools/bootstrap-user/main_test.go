package main

import (
	"path/filepath"
	"testing"

	"clipstream/internal/storage"
)

func newTestRepo(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.NewJSONRepository(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func TestBootstrapUserCreatesAccount(t *testing.T) {
	repo := newTestRepo(t)

	user, created, err := bootstrapUser(repo, "alice", "Alice@Example.com", "Alice Example", "correct horse")
	if err != nil {
		t.Fatalf("bootstrap user: %v", err)
	}
	if !created {
		t.Fatal("expected account to be created")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}

	if _, err := repo.AuthenticateUser("alice", "", "correct horse"); err != nil {
		t.Fatalf("authenticate seeded account: %v", err)
	}
}

func TestBootstrapUserUpdatesExisting(t *testing.T) {
	repo := newTestRepo(t)

	if _, _, err := bootstrapUser(repo, "alice", "alice@example.com", "Alice", "correct horse"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	user, created, err := bootstrapUser(repo, "alice", "alice@example.com", "Alice Example", "ignored password")
	if err != nil {
		t.Fatalf("bootstrap user: %v", err)
	}
	if created {
		t.Fatal("expected existing account to be updated, not created")
	}
	if user.FullName != "Alice Example" {
		t.Fatalf("expected refreshed full name, got %q", user.FullName)
	}

	if _, err := repo.AuthenticateUser("alice", "", "correct horse"); err != nil {
		t.Fatalf("expected original password to survive: %v", err)
	}
}
