// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/bvk/stockwatch/gobs"
	"github.com/bvk/stockwatch/kvutil"
	"github.com/bvkgo/kv"
)

const DefaultKeyspace = "/watchlist/"

// Store holds the persisted watchlist rows. Implementations must guarantee
// that at most one row exists per (user, symbol) pair: Create must fail with
// os.ErrExist for a duplicate, even when racing with another Create.
type Store interface {
	// Find returns all rows of a user in unspecified order.
	Find(ctx context.Context, userID string) ([]*gobs.WatchlistEntry, error)

	// FindOne returns the row or an error wrapping os.ErrNotExist.
	FindOne(ctx context.Context, userID, symbol string) (*gobs.WatchlistEntry, error)

	Create(ctx context.Context, entry *gobs.WatchlistEntry) error

	// DeleteOne removes the row if it exists.
	DeleteOne(ctx context.Context, userID, symbol string) error
}

// KVStore implements Store on a transactional key-value database. Rows are
// stored at "<keyspace>/<user-id>/<symbol>", so the key itself enforces the
// uniqueness constraint.
type KVStore struct {
	db kv.Database

	keyspace string
}

var _ Store = &KVStore{}

func NewKVStore(db kv.Database) *KVStore {
	return &KVStore{db: db, keyspace: DefaultKeyspace}
}

func (s *KVStore) userDir(userID string) string {
	return path.Join(s.keyspace, userID)
}

func (s *KVStore) entryKey(userID, symbol string) string {
	return path.Join(s.keyspace, userID, symbol)
}

func checkUserID(userID string) error {
	if len(userID) == 0 || userID != path.Base(userID) || userID == "." || userID == ".." {
		return fmt.Errorf("invalid user id %q: %w", userID, os.ErrInvalid)
	}
	return nil
}

func (s *KVStore) Find(ctx context.Context, userID string) (entries []*gobs.WatchlistEntry, err error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	find := func(ctx context.Context, r kv.Reader) error {
		entries, err = kvutil.ListDir[gobs.WatchlistEntry](ctx, r, s.userDir(userID))
		return err
	}
	if err := kv.WithReader(ctx, s.db, find); err != nil {
		return nil, fmt.Errorf("could not scan watchlist of user %q: %w", userID, err)
	}
	return entries, nil
}

func (s *KVStore) FindOne(ctx context.Context, userID, symbol string) (*gobs.WatchlistEntry, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	return kvutil.GetDB[gobs.WatchlistEntry](ctx, s.db, s.entryKey(userID, symbol))
}

func (s *KVStore) Create(ctx context.Context, entry *gobs.WatchlistEntry) error {
	if err := checkUserID(entry.UserID); err != nil {
		return err
	}
	key := s.entryKey(entry.UserID, entry.Symbol)
	create := func(ctx context.Context, rw kv.ReadWriter) error {
		return kvutil.Create(ctx, rw, key, entry)
	}
	err := kv.WithReadWriter(ctx, s.db, create)
	if err == nil || errors.Is(err, os.ErrExist) {
		return err
	}
	// A conflicting concurrent transaction may have won the commit; report it
	// the same way as a duplicate found inside the transaction.
	if _, gerr := kvutil.GetDB[gobs.WatchlistEntry](ctx, s.db, key); gerr == nil {
		return fmt.Errorf("key %q was created concurrently: %w", key, os.ErrExist)
	}
	return err
}

func (s *KVStore) DeleteOne(ctx context.Context, userID, symbol string) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	key := s.entryKey(userID, symbol)
	return kv.WithReadWriter(ctx, s.db, func(ctx context.Context, rw kv.ReadWriter) error {
		return kvutil.Delete(ctx, rw, key)
	})
}
