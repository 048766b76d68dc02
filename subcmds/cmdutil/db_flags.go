// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"path"

	"github.com/bvk/stockwatch/kvutil"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
)

// DBFlags pick one of the database backends. A backup file is loaded into an
// in-memory database, a data directory is opened directly and the running
// server's database is used over http otherwise.
type DBFlags struct {
	ClientFlags

	dbURLPath string

	dataDir string

	fromBackup string

	backupBefore string
	backupAfter  string
}

func (f *DBFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "data-dir", "", "Path to the database directory")

	fset.StringVar(&f.fromBackup, "from-backup", "", "Path to a database backup file")

	f.ClientFlags.SetFlags(fset)
	fset.StringVar(&f.dbURLPath, "db-url-path", "/db", "path to db api handler")

	fset.StringVar(&f.backupBefore, "backup-before", "", "Path to a file to receive db backup before cmd is run")
	fset.StringVar(&f.backupAfter, "backup-after", "", "Path to a file to receive db backup after cmd is run")
}

func (f *DBFlags) check() error {
	if len(f.fromBackup) != 0 && len(f.dataDir) != 0 {
		return fmt.Errorf("only one of -from-backup and -data-dir flags can be used")
	}
	return nil
}

// IsRemoteDatabase returns true if target database is a remote database over
// http.
func (f *DBFlags) IsRemoteDatabase() bool {
	return f.fromBackup == "" && f.dataDir == ""
}

// IsGoodKey reports if a key is an absolute, clean path.
func IsGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}

// GetDatabase returns the selected database and a closer function that must
// be called once the database is no longer used.
func (f *DBFlags) GetDatabase(ctx context.Context) (db kv.Database, closer func(), status error) {
	if err := f.check(); err != nil {
		return nil, nil, err
	}

	var bdb *badger.DB
	defer func() {
		if status == nil && len(f.backupBefore) != 0 {
			if err := kvutil.BackupDB(ctx, db, "/", f.backupBefore); err != nil {
				if bdb != nil {
					bdb.Close()
				}
				db, closer, status = nil, nil, fmt.Errorf("could not take a db backup before it is used: %w", err)
			}
		}
	}()

	switch {
	case len(f.fromBackup) != 0:
		mdb := kvmemdb.New()
		if err := kvutil.RestoreDB(ctx, mdb, "/", f.fromBackup); err != nil {
			return nil, nil, fmt.Errorf("could not restore in-memory db from backup: %w", err)
		}
		db = mdb

	case len(f.dataDir) != 0:
		bopts := badger.DefaultOptions(f.dataDir).WithLogger(nil)
		v, err := badger.Open(bopts)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open the database: %w", err)
		}
		bdb = v
		db = kvbadger.New(bdb, IsGoodKey)

	default:
		addrURL := f.ClientFlags.AddressURL()
		addrURL.Path = path.Join(addrURL.Path, f.dbURLPath)
		db = kvhttp.New(addrURL, f.ClientFlags.HttpClient())
	}

	closer = func() {
		if len(f.backupAfter) != 0 {
			if err := kvutil.BackupDB(context.Background(), db, "/", f.backupAfter); err != nil {
				slog.Warn("could not take db backup after it is used (ignored)", "err", err)
			}
		}
		if bdb != nil {
			bdb.Close()
		}
	}
	return db, closer, nil
}
