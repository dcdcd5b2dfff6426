package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

func newLocalUser(username, email string) *core.User {
	hash := "$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHRzYWx0c2FsdA$ZmFrZWtleWZha2VrZXlmYWtla2V5ZmFrZWtleWZha2U"
	return &core.User{
		Username:     core.StrPtr(username),
		Email:        core.StrPtr(email),
		PasswordHash: &hash,
		AuthMethod:   core.AuthMethodLocal,
		IsActive:     true,
	}
}

func TestCreateUserAssignsIDAndTimestamps(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newLocalUser("alice", "Alice@Example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("CreateUser did not assign an id")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Fatal("CreateUser did not set timestamps")
	}
	if core.Deref(u.Email) != "alice@example.com" {
		t.Fatalf("email not normalized: %q", core.Deref(u.Email))
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if core.Deref(got.Username) != "alice" {
		t.Fatalf("username = %q, want alice", core.Deref(got.Username))
	}
}

func TestLookupsByEachKey(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newLocalUser("alice", "alice@example.com")
	u.GoogleID = core.StrPtr("g-123")
	u.SupabaseID = core.StrPtr("sb-456")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := s.GetUserByUsername(ctx, "alice"); err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	// lookup por email es case-insensitive
	if _, err := s.GetUserByEmail(ctx, "ALICE@example.com"); err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if _, err := s.GetUserByGoogleID(ctx, "g-123"); err != nil {
		t.Fatalf("GetUserByGoogleID: %v", err)
	}
	if _, err := s.GetUserBySupabaseID(ctx, "sb-456"); err != nil {
		t.Fatalf("GetUserBySupabaseID: %v", err)
	}

	if _, err := s.GetUserByUsername(ctx, "bob"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("miss: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByGoogleID(ctx, ""); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("empty key: err = %v, want ErrNotFound", err)
	}
}

func TestCreateUserConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateUser(ctx, newLocalUser("alice", "alice@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	cases := []*core.User{
		newLocalUser("alice", "other@example.com"),  // username duplicado
		newLocalUser("other", "alice@example.com"),  // email duplicado
		newLocalUser("other2", "ALICE@EXAMPLE.COM"), // email duplicado (case)
	}
	for _, u := range cases {
		if err := s.CreateUser(ctx, u); !errors.Is(err, core.ErrConflict) {
			t.Fatalf("CreateUser(%v): err = %v, want ErrConflict", core.Deref(u.Username), err)
		}
	}
}

func TestCreateUserGoogleIDConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := newLocalUser("alice", "alice@example.com")
	a.GoogleID = core.StrPtr("g-1")
	if err := s.CreateUser(ctx, a); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	b := newLocalUser("bob", "bob@example.com")
	b.GoogleID = core.StrPtr("g-1")
	if err := s.CreateUser(ctx, b); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate google id: err = %v, want ErrConflict", err)
	}
}

func TestLinkGoogle(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newLocalUser("bob", "bob@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	link := core.GoogleLink{ID: "g-9", Email: "Bob@Gmail.com", Name: "Bob", Picture: "https://p/x.png"}
	got, err := s.LinkGoogle(ctx, u.ID, link, core.AuthMethodBoth)
	if err != nil {
		t.Fatalf("LinkGoogle: %v", err)
	}
	if core.Deref(got.GoogleID) != "g-9" {
		t.Fatalf("google id = %q, want g-9", core.Deref(got.GoogleID))
	}
	if core.Deref(got.GoogleEmail) != "bob@gmail.com" {
		t.Fatalf("google email = %q, want bob@gmail.com", core.Deref(got.GoogleEmail))
	}
	if got.AuthMethod != core.AuthMethodBoth {
		t.Fatalf("auth method = %q, want both", got.AuthMethod)
	}

	// ahora es buscable por google id
	if _, err := s.GetUserByGoogleID(ctx, "g-9"); err != nil {
		t.Fatalf("GetUserByGoogleID after link: %v", err)
	}
}

func TestLinkGoogleConflictAndNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := newLocalUser("alice", "alice@example.com")
	a.GoogleID = core.StrPtr("g-1")
	if err := s.CreateUser(ctx, a); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	b := newLocalUser("bob", "bob@example.com")
	if err := s.CreateUser(ctx, b); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := s.LinkGoogle(ctx, b.ID, core.GoogleLink{ID: "g-1"}, core.AuthMethodBoth); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("link with taken google id: err = %v, want ErrConflict", err)
	}
	if _, err := s.LinkGoogle(ctx, "missing", core.GoogleLink{ID: "g-2"}, core.AuthMethodBoth); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("link missing user: err = %v, want ErrNotFound", err)
	}
	if _, err := s.LinkGoogle(ctx, b.ID, core.GoogleLink{}, core.AuthMethodBoth); !errors.Is(err, core.ErrInvalid) {
		t.Fatalf("link empty google id: err = %v, want ErrInvalid", err)
	}
}

func TestLinkSupabase(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newLocalUser("carol", "carol@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.LinkSupabase(ctx, u.ID, core.SupabaseLink{ID: "sb-1", Email: "carol@sb.io"}, core.AuthMethodBoth)
	if err != nil {
		t.Fatalf("LinkSupabase: %v", err)
	}
	if core.Deref(got.SupabaseID) != "sb-1" {
		t.Fatalf("supabase id = %q, want sb-1", core.Deref(got.SupabaseID))
	}
	if _, err := s.GetUserBySupabaseID(ctx, "sb-1"); err != nil {
		t.Fatalf("GetUserBySupabaseID after link: %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newLocalUser("dave", "dave@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := s.UpdatePasswordHash(ctx, u.ID, "$argon2id$new"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}
	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if core.Deref(got.PasswordHash) != "$argon2id$new" {
		t.Fatalf("hash not updated: %q", core.Deref(got.PasswordHash))
	}

	if err := s.UpdatePasswordHash(ctx, "missing", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update missing user: err = %v, want ErrNotFound", err)
	}
}

func TestReturnedUserIsACopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newLocalUser("eve", "eve@example.com")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, _ := s.GetUserByID(ctx, u.ID)
	*got.Username = "mallory"
	got.AuthMethod = core.AuthMethodBoth

	again, _ := s.GetUserByID(ctx, u.ID)
	if core.Deref(again.Username) != "eve" || again.AuthMethod != core.AuthMethodLocal {
		t.Fatal("mutating a returned user leaked into the store")
	}
}
