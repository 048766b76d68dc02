// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Symbols struct {
	cmdutil.ClientFlags

	email string
}

func (c *Symbols) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.email, "email", "", "email address of the signed-in user (optional)")
	return "symbols", fset, cli.CmdFunc(c.run)
}

func (c *Symbols) Purpose() string {
	return "Prints the watchlist symbols of the signed-in user"
}

func (c *Symbols) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	symbols, err := c.ClientFlags.Client().Symbols(ctx, c.email)
	if err != nil {
		return fmt.Errorf("could not fetch watchlist symbols: %w", err)
	}
	if len(symbols) != 0 {
		fmt.Fprintln(cli.Stdout(ctx), strings.Join(symbols, " "))
	}
	return nil
}
