package storage

import (
	"errors"
	"testing"
)

func TestCreateUserNormalizesIdentity(t *testing.T) {
	store := newTestStore(t)

	user, err := store.CreateUser(CreateUserParams{
		Username: "  Alice  ",
		Email:    "Alice@Example.COM",
		FullName: "Alice Liddell",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected lowercased username, got %s", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %s", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse" {
		t.Fatal("expected password to be hashed")
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	store := newTestStore(t)
	createTestUser(t, store, "alice")

	if _, err := store.CreateUser(CreateUserParams{
		Username: "ALICE",
		Email:    "other@example.com",
		FullName: "Other",
		Password: "pw",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
	if _, err := store.CreateUser(CreateUserParams{
		Username: "bob",
		Email:    "Alice@example.com",
		FullName: "Bob",
		Password: "pw",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestCreateUserRequiresFields(t *testing.T) {
	store := newTestStore(t)
	cases := []CreateUserParams{
		{Email: "a@example.com", FullName: "A", Password: "pw"},
		{Username: "a", FullName: "A", Password: "pw"},
		{Username: "a", Email: "a@example.com", Password: "pw"},
		{Username: "a", Email: "a@example.com", FullName: "A"},
	}
	for i, params := range cases {
		if _, err := store.CreateUser(params); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestFindUserByIdentity(t *testing.T) {
	store := newTestStore(t)
	id := createTestUser(t, store, "alice")

	if user, ok := store.FindUserByIdentity("ALICE", ""); !ok || user.ID != id {
		t.Fatalf("expected username lookup to succeed, got ok=%v", ok)
	}
	if user, ok := store.FindUserByIdentity("", "alice@EXAMPLE.com"); !ok || user.ID != id {
		t.Fatalf("expected email lookup to succeed, got ok=%v", ok)
	}
	if _, ok := store.FindUserByIdentity("", ""); ok {
		t.Fatal("expected blank identity lookup to fail")
	}
	if _, ok := store.FindUserByIdentity("nobody", "nobody@example.com"); ok {
		t.Fatal("expected unknown identity lookup to fail")
	}
}

func TestUpdateUserEnforcesEmailUniqueness(t *testing.T) {
	store := newTestStore(t)
	aliceID := createTestUser(t, store, "alice")
	createTestUser(t, store, "bob")

	bobEmail := "bob@example.com"
	if _, err := store.UpdateUser(aliceID, UserUpdate{Email: &bobEmail}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	newName := "Alice in Chains"
	updated, err := store.UpdateUser(aliceID, UserUpdate{FullName: &newName})
	if err != nil {
		t.Fatalf("UpdateUser error: %v", err)
	}
	if updated.FullName != newName {
		t.Fatalf("expected full name update, got %s", updated.FullName)
	}
}

func TestSetUserAvatarReportsReplacedReference(t *testing.T) {
	store := newTestStore(t)
	id := createTestUser(t, store, "alice")

	first := imageRef("avatars/first")
	if _, replaced, err := store.SetUserAvatar(id, first); err != nil || !replaced.IsZero() {
		t.Fatalf("expected no replaced ref on first upload, got %+v err=%v", replaced, err)
	}

	second := imageRef("avatars/second")
	user, replaced, err := store.SetUserAvatar(id, second)
	if err != nil {
		t.Fatalf("SetUserAvatar error: %v", err)
	}
	if replaced.Key != first.Key {
		t.Fatalf("expected replaced ref %s, got %s", first.Key, replaced.Key)
	}
	if user.Avatar.Key != second.Key {
		t.Fatalf("expected new avatar %s, got %s", second.Key, user.Avatar.Key)
	}
}
