// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/stockwatch/kvutil"
	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Restore struct {
	cmdutil.DBFlags

	keyspace string
}

func (c *Restore) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.keyspace, "keyspace", "/", "database keyspace directory (ex: /watchlist)")
	return "restore", fset, cli.CmdFunc(c.run)
}

func (c *Restore) Purpose() string {
	return "Restores the database from a backup file"
}

func (c *Restore) Description() string {
	return `
Command "restore" replaces all keys in a keyspace of the database with the
keys from a backup file created by the "backup" command. The restore is
performed in a single transaction, so a failure leaves the database unchanged.

    stockwatch db restore -data-dir ~/.stockwatch -keyspace /watchlist watchlist.gob
`
}

func (c *Restore) run(ctx context.Context, args []string) error {
	if !cmdutil.IsGoodKey(c.keyspace) {
		return fmt.Errorf("keyspace %q must be a clean absolute path", c.keyspace)
	}
	if len(args) != 1 {
		return fmt.Errorf("command takes one (input backup file) argument")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not get database instance: %w", err)
	}
	defer closer()

	if err := kvutil.RestoreDB(ctx, db, c.keyspace, args[0]); err != nil {
		return fmt.Errorf("could not restore the database: %w", err)
	}
	return nil
}
