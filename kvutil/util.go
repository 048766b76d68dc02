// Copyright (c) 2023 BVK Chaitanya

package kvutil

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/bvkgo/kv"
)

func Get[T any](ctx context.Context, g kv.Getter, key string) (*T, error) {
	value, err := g.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("could not Get from %q: %w", key, err)
	}
	gv := new(T)
	if err := gob.NewDecoder(value).Decode(gv); err != nil {
		return nil, fmt.Errorf("could not gob-decode value at key %q: %w", key, err)
	}
	return gv, nil
}

func Set[T any](ctx context.Context, s kv.Setter, key string, value *T) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	return s.Set(ctx, key, &buf)
}

// Create is similar to Set, but fails with os.ErrExist if the key already
// holds a value. Uniqueness is only guaranteed when rw is a transaction.
func Create[T any](ctx context.Context, rw kv.ReadWriter, key string, value *T) error {
	if _, err := rw.Get(ctx, key); err == nil {
		return fmt.Errorf("key %q already exists: %w", key, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not check for key %q: %w", key, err)
	}
	return Set(ctx, rw, key, value)
}

// Delete removes the key if it exists. Deleting a missing key is not an error.
func Delete(ctx context.Context, rw kv.ReadWriter, key string) error {
	if err := rw.Delete(ctx, key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete key %q: %w", key, err)
	}
	return nil
}

func GetDB[T any](ctx context.Context, db kv.Database, key string) (value *T, err error) {
	err = kv.WithReader(ctx, db, func(ctx context.Context, r kv.Reader) error {
		value, err = Get[T](ctx, r, key)
		return err
	})
	return value, err
}

func SetDB[T any](ctx context.Context, db kv.Database, key string, value *T) error {
	return kv.WithReadWriter(ctx, db, func(ctx context.Context, rw kv.ReadWriter) error {
		return Set[T](ctx, rw, key, value)
	})
}

// WalkDir calls fn with the gob-decoded values under the dir keyspace in key
// order. Walk stops at the first error from fn.
func WalkDir[T any](ctx context.Context, r kv.Reader, dir string, fn func(key string, value *T) error) error {
	begin, end := PathRange(dir)
	it, err := r.Ascend(ctx, begin, end)
	if err != nil {
		return fmt.Errorf("could not create iterator for %q: %w", dir, err)
	}
	defer kv.Close(it)

	for k, v, err := it.Fetch(ctx, false); err == nil; k, v, err = it.Fetch(ctx, true) {
		gv := new(T)
		if err := gob.NewDecoder(v).Decode(gv); err != nil {
			return fmt.Errorf("could not decode value at key %q: %w", k, err)
		}
		if err := fn(k, gv); err != nil {
			return err
		}
	}
	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not walk %q: %w", dir, err)
	}
	return nil
}

// ListDir returns all values stored under the dir keyspace in key order.
func ListDir[T any](ctx context.Context, r kv.Reader, dir string) ([]*T, error) {
	var values []*T
	collect := func(_ string, v *T) error {
		values = append(values, v)
		return nil
	}
	if err := WalkDir(ctx, r, dir, collect); err != nil {
		return nil, err
	}
	return values, nil
}

// PathRange returns the key range for the keys under dir. Both ends are empty
// for the root directory, which selects all keys.
func PathRange(dir string) (begin string, end string) {
	dir = path.Clean(dir)
	if dir == "/" {
		return "", ""
	}
	begin = dir + string('/')
	end = dir + string('/'+1)
	return begin, end
}
