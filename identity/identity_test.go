// Copyright (c) 2025 BVK Chaitanya

package identity

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
)

func TestSignUpAndResolve(t *testing.T) {
	ctx := context.Background()
	s, err := New(kvmemdb.New(), nil)
	if err != nil {
		t.Fatal(err)
	}

	user, err := s.SignUp(ctx, " Ada@Example.com ", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "ada@example.com" || len(user.ID) == 0 {
		t.Fatalf("unexpected user %#v", user)
	}

	if _, err := s.SignUp(ctx, "ada@example.com", "Ada Again"); !errors.Is(err, os.ErrExist) {
		t.Fatalf("wanted ErrExist, got %v", err)
	}

	if id, ok := s.ResolveUserID(ctx, "ADA@example.com"); !ok || id != user.ID {
		t.Fatalf("wanted %q, got %q (%t)", user.ID, id, ok)
	}
	for _, email := range []string{"", "bob@example.com", "not-an-email", "a/b@example.com"} {
		if id, ok := s.ResolveUserID(ctx, email); ok {
			t.Fatalf("email %q: wanted not-found, got %q", email, id)
		}
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	opts := &Options{
		Now:        func() time.Time { return now },
		SessionTTL: time.Hour,
	}
	s, err := New(kvmemdb.New(), opts)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.SignIn(ctx, "ada@example.com"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted ErrNotExist for unknown user, got %v", err)
	}

	user, err := s.SignUp(ctx, "ada@example.com", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	session, err := s.SignIn(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSession(ctx, session.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != user.ID {
		t.Fatalf("wanted user %q, got %q", user.ID, got.UserID)
	}

	for _, token := range []string{"", "../users/ada@example.com", "00000000-0000-0000-0000-000000000000"} {
		if _, err := s.GetSession(ctx, token); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("token %q: wanted ErrNotAuthenticated, got %v", token, err)
		}
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.GetSession(ctx, session.Token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("wanted expired session to fail, got %v", err)
	}

	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("wanted one expired session, got %d", n)
	}
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	s, err := New(kvmemdb.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SignUp(ctx, "ada@example.com", ""); err != nil {
		t.Fatal(err)
	}
	session, err := s.SignIn(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SignOut(ctx, session.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSession(ctx, session.Token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("wanted ErrNotAuthenticated after sign out, got %v", err)
	}
	if err := s.SignOut(ctx, session.Token); err != nil {
		t.Fatalf("sign out must be idempotent: %v", err)
	}
}
