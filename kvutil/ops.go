// Copyright (c) 2023 BVK Chaitanya

package kvutil

import (
	"bufio"
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bvk/stockwatch/gobs"
	"github.com/bvkgo/kv"
)

// Export writes the key-value pairs under the dir keyspace as a stream of
// gob-encoded gobs.KeyValue items.
func Export(ctx context.Context, r kv.Reader, dir string, w io.Writer) (count int, status error) {
	begin, end := PathRange(dir)
	it, err := r.Ascend(ctx, begin, end)
	if err != nil {
		return 0, fmt.Errorf("could not create iterator for %q: %w", dir, err)
	}
	defer kv.Close(it)

	encoder := gob.NewEncoder(w)
	for k, v, err := it.Fetch(ctx, false); err == nil; k, v, err = it.Fetch(ctx, true) {
		item := &gobs.KeyValue{Key: k}
		if item.Value, err = io.ReadAll(v); err != nil {
			return count, fmt.Errorf("could not read value at key %q: %w", k, err)
		}
		if err := encoder.Encode(item); err != nil {
			return count, fmt.Errorf("could not encode item at key %q: %w", k, err)
		}
		count++
	}
	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		return count, fmt.Errorf("could not complete export: %w", err)
	}
	return count, nil
}

// Import replaces the dir keyspace with the items from a stream created by
// Export. Items outside the keyspace are rejected.
func Import(ctx context.Context, r io.Reader, dir string, rw kv.ReadWriter) (count int, status error) {
	begin, end := PathRange(dir)
	it, err := rw.Ascend(ctx, begin, end)
	if err != nil {
		return 0, fmt.Errorf("could not create iterator for %q: %w", dir, err)
	}
	var stale []string
	for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
		stale = append(stale, k)
	}
	if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
		kv.Close(it)
		return 0, fmt.Errorf("could not scan keyspace %q: %w", dir, err)
	}
	kv.Close(it)

	for _, k := range stale {
		if err := rw.Delete(ctx, k); err != nil {
			return 0, fmt.Errorf("could not delete key %q: %w", k, err)
		}
	}

	decoder := gob.NewDecoder(r)
	for {
		var item gobs.KeyValue
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, fmt.Errorf("could not decode item %d: %w", count, err)
		}
		if begin != "" && (item.Key < begin || item.Key >= end) {
			return count, fmt.Errorf("key %q is outside the keyspace %q: %w", item.Key, dir, os.ErrInvalid)
		}
		if err := rw.Set(ctx, item.Key, bytes.NewReader(item.Value)); err != nil {
			return count, fmt.Errorf("could not restore at key %q: %w", item.Key, err)
		}
		count++
	}
}

// BackupDB saves the dir keyspace of the database into a file. File is
// replaced atomically.
func BackupDB(ctx context.Context, db kv.Database, dir, file string) (status error) {
	abspath, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("could not determine absolute path: %w", err)
	}

	fp, err := os.CreateTemp(filepath.Dir(abspath), ".backup*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer func() {
		fp.Close()
		if status != nil {
			os.Remove(fp.Name())
		}
	}()

	bw := bufio.NewWriter(fp)
	save := func(ctx context.Context, r kv.Reader) error {
		_, err := Export(ctx, r, dir, bw)
		return err
	}
	if err := kv.WithReader(ctx, db, save); err != nil {
		return fmt.Errorf("could not export db content: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not flush the backup file: %w", err)
	}
	if err := fp.Sync(); err != nil {
		return fmt.Errorf("could not sync the backup file: %w", err)
	}
	if err := os.Rename(fp.Name(), abspath); err != nil {
		return fmt.Errorf("could not rename temp file to %q: %w", abspath, err)
	}
	return nil
}

// RestoreDB replaces the dir keyspace with the contents of a backup file
// created by BackupDB. Restore is a single transaction.
func RestoreDB(ctx context.Context, db kv.Database, dir, file string) error {
	fp, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("could not open backup file: %w", err)
	}
	defer fp.Close()

	restore := func(ctx context.Context, rw kv.ReadWriter) error {
		_, err := Import(ctx, bufio.NewReader(fp), dir, rw)
		return err
	}
	if err := kv.WithReadWriter(ctx, db, restore); err != nil {
		return fmt.Errorf("could not restore db content: %w", err)
	}
	return nil
}
