// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Add struct {
	cmdutil.ClientFlags

	company string
}

func (c *Add) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.company, "company", "", "company name for the symbol")
	return "add", fset, cli.CmdFunc(c.run)
}

func (c *Add) Purpose() string {
	return "Adds a stock symbol to the watchlist"
}

func (c *Add) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (symbol) argument")
	}

	result, err := c.ClientFlags.Client().Add(ctx, args[0], c.company)
	if err != nil {
		return fmt.Errorf("could not add %q to the watchlist: %w", args[0], err)
	}
	fmt.Fprintln(cli.Stdout(ctx), result.Message)
	return nil
}
