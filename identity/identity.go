// Copyright (c) 2025 BVK Chaitanya

// Package identity keeps the users and their sign-in sessions. It is the
// collaborator that answers "who is calling" for the watchlist server and
// maps emails to user ids for lookups by email.
//
// Sign-in is intentionally minimal: a known email is issued a random session
// token. Credential checks belong to a real authentication provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/bvk/stockwatch/gobs"
	"github.com/bvk/stockwatch/kvutil"
	"github.com/bvkgo/kv"
	"github.com/google/uuid"
)

// ErrNotAuthenticated is returned when a caller has no valid session.
var ErrNotAuthenticated = errors.New("not authenticated")

const (
	UsersKeyspace    = "/users/"
	SessionsKeyspace = "/sessions/"
)

type Store struct {
	opts Options

	db kv.Database
}

func New(db kv.Database, opts *Options) (*Store, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	return &Store{opts: *opts, db: db}, nil
}

// NormalizeEmail returns the canonical form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string) error {
	if len(email) == 0 {
		return fmt.Errorf("email cannot be empty: %w", os.ErrInvalid)
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("email %q is malformed: %w", email, os.ErrInvalid)
	}
	if strings.ContainsAny(email, "/ \t\r\n") {
		return fmt.Errorf("email %q has invalid characters: %w", email, os.ErrInvalid)
	}
	return nil
}

func userKey(email string) string {
	return path.Join(UsersKeyspace, email)
}

func sessionKey(token string) string {
	return path.Join(SessionsKeyspace, token)
}

// SignUp creates a new user with a random id. Returns an error wrapping
// os.ErrExist if the email is already registered.
func (s *Store) SignUp(ctx context.Context, email, name string) (*gobs.User, error) {
	email = NormalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	user := &gobs.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.opts.Now(),
	}
	create := func(ctx context.Context, rw kv.ReadWriter) error {
		return kvutil.Create(ctx, rw, userKey(email), user)
	}
	if err := kv.WithReadWriter(ctx, s.db, create); err != nil {
		return nil, fmt.Errorf("could not create user %q: %w", email, err)
	}
	slog.InfoContext(ctx, "created new user", "email", email, "id", user.ID)
	return user, nil
}

// LookupUser returns the user registered with the email or an error wrapping
// os.ErrNotExist.
func (s *Store) LookupUser(ctx context.Context, email string) (*gobs.User, error) {
	email = NormalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	return kvutil.GetDB[gobs.User](ctx, s.db, userKey(email))
}

// ResolveUserID maps an email to the user id. Unknown emails, invalid input
// and lookup failures are all reported as not-found.
func (s *Store) ResolveUserID(ctx context.Context, email string) (string, bool) {
	user, err := s.LookupUser(ctx, email)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, os.ErrInvalid) {
			slog.WarnContext(ctx, "could not resolve user id (ignored)", "email", email, "err", err)
		}
		return "", false
	}
	if len(user.ID) == 0 {
		return "", false
	}
	return user.ID, true
}

// SignIn issues a new session for a registered user.
func (s *Store) SignIn(ctx context.Context, email string) (*gobs.Session, error) {
	user, err := s.LookupUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("could not lookup user: %w", err)
	}
	now := s.opts.Now()
	session := &gobs.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.SessionTTL),
	}
	if err := kvutil.SetDB(ctx, s.db, sessionKey(session.Token), session); err != nil {
		return nil, fmt.Errorf("could not save session: %w", err)
	}
	return session, nil
}

// GetSession returns the live session for a token. Missing, malformed and
// expired tokens fail with ErrNotAuthenticated.
func (s *Store) GetSession(ctx context.Context, token string) (*gobs.Session, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrNotAuthenticated
	}
	session, err := kvutil.GetDB[gobs.Session](ctx, s.db, sessionKey(token))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("could not load session: %w", err)
	}
	if !s.opts.Now().Before(session.ExpiresAt) {
		return nil, ErrNotAuthenticated
	}
	return session, nil
}

func (s *Store) SignOut(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return nil
	}
	return kv.WithReadWriter(ctx, s.db, func(ctx context.Context, rw kv.ReadWriter) error {
		return kvutil.Delete(ctx, rw, sessionKey(token))
	})
}

// PurgeExpired deletes all expired sessions and returns the number of deleted
// sessions.
func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	now := s.opts.Now()
	var expired []string
	find := func(ctx context.Context, r kv.Reader) error {
		return kvutil.WalkDir(ctx, r, SessionsKeyspace, func(key string, v *gobs.Session) error {
			if !now.Before(v.ExpiresAt) {
				expired = append(expired, key)
			}
			return nil
		})
	}
	if err := kv.WithReader(ctx, s.db, find); err != nil {
		return 0, fmt.Errorf("could not scan sessions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}
	purge := func(ctx context.Context, rw kv.ReadWriter) error {
		for _, key := range expired {
			if err := kvutil.Delete(ctx, rw, key); err != nil {
				return err
			}
		}
		return nil
	}
	if err := kv.WithReadWriter(ctx, s.db, purge); err != nil {
		return 0, fmt.Errorf("could not delete expired sessions: %w", err)
	}
	return len(expired), nil
}
