// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Remove struct {
	cmdutil.ClientFlags
}

func (c *Remove) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	return "remove", fset, cli.CmdFunc(c.run)
}

func (c *Remove) Purpose() string {
	return "Removes stock symbols from the watchlist"
}

func (c *Remove) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("command takes one or more (symbol) arguments")
	}

	client := c.ClientFlags.Client()
	stdout := cli.Stdout(ctx)
	for _, symbol := range args {
		result, err := client.Remove(ctx, symbol)
		if err != nil {
			return fmt.Errorf("could not remove %q from the watchlist: %w", symbol, err)
		}
		fmt.Fprintf(stdout, "%s: %s\n", symbol, result.Message)
	}
	return nil
}
