// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Show struct {
	cmdutil.ClientFlags
}

func (c *Show) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	return "show", fset, cli.CmdFunc(c.run)
}

func (c *Show) Purpose() string {
	return "Prints the watchlist with live market data"
}

func (c *Show) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	entries, err := c.ClientFlags.Client().ListEnriched(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch the enriched watchlist: %w", err)
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "SYMBOL\tCOMPANY\tPRICE\tCHANGE\tMARKET CAP\tP/E\t\n")
	for _, e := range entries {
		if e.Quote == nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t\n", e.Symbol, e.Company)
			continue
		}
		q := e.Quote
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", e.Symbol, e.Company, q.PriceFormatted, q.ChangeFormatted, q.MarketCapFormatted, q.PERatio)
	}
	return tw.Flush()
}
