// Copyright (c) 2025 BVK Chaitanya

package kvutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bvk/stockwatch/gobs"
	"github.com/bvkgo/kv/kvmemdb"
)

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()

	src := kvmemdb.New()
	entry := &gobs.WatchlistEntry{UserID: "u1", Symbol: "AAPL", Company: "Apple Inc."}
	if err := SetDB(ctx, src, "/watchlist/u1/AAPL", entry); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(t.TempDir(), "backup.gob")
	if err := BackupDB(ctx, src, "/", file); err != nil {
		t.Fatal(err)
	}

	dst := kvmemdb.New()
	if err := SetDB(ctx, dst, "/watchlist/u2/MSFT", &gobs.WatchlistEntry{UserID: "u2", Symbol: "MSFT"}); err != nil {
		t.Fatal(err)
	}
	if err := RestoreDB(ctx, dst, "/", file); err != nil {
		t.Fatal(err)
	}

	got, err := GetDB[gobs.WatchlistEntry](ctx, dst, "/watchlist/u1/AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if got.Company != "Apple Inc." {
		t.Fatalf("wanted Apple Inc., got %q", got.Company)
	}
	if _, err := GetDB[gobs.WatchlistEntry](ctx, dst, "/watchlist/u2/MSFT"); err == nil {
		t.Fatalf("wanted restore to replace old content")
	}
}

func TestKeyspaceBackup(t *testing.T) {
	ctx := context.Background()

	db := kvmemdb.New()
	if err := SetDB(ctx, db, "/watchlist/u1/AAPL", &gobs.WatchlistEntry{UserID: "u1", Symbol: "AAPL"}); err != nil {
		t.Fatal(err)
	}
	if err := SetDB(ctx, db, "/users/ada@example.com", &gobs.User{ID: "u1", Email: "ada@example.com"}); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	watchlists := filepath.Join(dir, "watchlist.gob")
	if err := BackupDB(ctx, db, "/watchlist", watchlists); err != nil {
		t.Fatal(err)
	}
	everything := filepath.Join(dir, "all.gob")
	if err := BackupDB(ctx, db, "/", everything); err != nil {
		t.Fatal(err)
	}

	if err := SetDB(ctx, db, "/watchlist/u1/MSFT", &gobs.WatchlistEntry{UserID: "u1", Symbol: "MSFT"}); err != nil {
		t.Fatal(err)
	}
	if err := RestoreDB(ctx, db, "/watchlist", watchlists); err != nil {
		t.Fatal(err)
	}
	if _, err := GetDB[gobs.WatchlistEntry](ctx, db, "/watchlist/u1/MSFT"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted keyspace to be replaced, got %v", err)
	}
	if _, err := GetDB[gobs.User](ctx, db, "/users/ada@example.com"); err != nil {
		t.Fatalf("keys outside the keyspace must survive: %v", err)
	}

	if err := RestoreDB(ctx, db, "/watchlist", everything); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("wanted os.ErrInvalid for keys outside the keyspace, got %v", err)
	}
	if _, err := GetDB[gobs.WatchlistEntry](ctx, db, "/watchlist/u1/AAPL"); err != nil {
		t.Fatalf("failed restore must not change the database: %v", err)
	}
}
