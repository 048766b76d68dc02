// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type List struct {
	cmdutil.ClientFlags
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Prints the watchlist entries, most recently added first"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	entries, err := c.ClientFlags.Client().List(ctx)
	if err != nil {
		return fmt.Errorf("could not list the watchlist: %w", err)
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "SYMBOL\tCOMPANY\tADDED\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Symbol, e.Company, e.AddedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
