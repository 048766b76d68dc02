// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"context"
	"flag"
	"fmt"
	"slices"
	"time"

	"github.com/bvk/stockwatch/ctxutil"
	"github.com/bvk/stockwatch/notify"
	"github.com/bvk/stockwatch/quote"
	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/bvk/stockwatch/toggle"
	"github.com/visvasity/cli"
)

type Toggle struct {
	cmdutil.ClientFlags

	company string

	clicks   int
	interval time.Duration
	window   time.Duration
}

func (c *Toggle) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.company, "company", "", "company name for the symbol")
	fset.IntVar(&c.clicks, "clicks", 1, "number of times to flip the toggle")
	fset.DurationVar(&c.interval, "interval", 0, "time interval between the clicks")
	fset.DurationVar(&c.window, "window", toggle.DefaultWindow, "debounce window for the clicks")
	return "toggle", fset, cli.CmdFunc(c.run)
}

func (c *Toggle) Purpose() string {
	return "Flips a symbol's watchlist membership like a button"
}

func (c *Toggle) Description() string {
	return `
Command "toggle" flips the watchlist membership of a symbol one or more times,
the same way a watchlist button does. Clicks that arrive within the debounce
window are collapsed into a single request for the final state, so an even
number of quick clicks sends no request at all.
`
}

func (c *Toggle) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (symbol) argument")
	}
	if c.clicks <= 0 {
		return fmt.Errorf("number of clicks must be positive")
	}
	symbol := quote.Normalize(args[0])
	if err := quote.CheckSymbol(symbol); err != nil {
		return err
	}

	client := c.ClientFlags.Client()
	symbols, err := client.Symbols(ctx, "")
	if err != nil {
		return fmt.Errorf("could not fetch current watchlist: %w", err)
	}

	stdout := cli.Stdout(ctx)
	opts := &toggle.Options{
		Window:   c.window,
		Notifier: notify.Multi(notify.Log(), notify.Writer(stdout)),
	}
	t, err := toggle.New(symbol, c.company, slices.Contains(symbols, symbol), client, opts)
	if err != nil {
		return err
	}
	defer t.Close()

	for i := 0; i < c.clicks; i++ {
		if i > 0 && c.interval > 0 {
			ctxutil.Sleep(ctx, c.interval)
		}
		t.Click()
	}
	if err := t.Wait(ctx); err != nil {
		return err
	}

	if s := t.State(); s.Added {
		fmt.Fprintf(stdout, "%s is in the watchlist\n", s.Symbol)
	} else {
		fmt.Fprintf(stdout, "%s is not in the watchlist\n", s.Symbol)
	}
	return nil
}
