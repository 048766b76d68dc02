// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/stockwatch/quote"
	"github.com/bvk/stockwatch/server"
	"github.com/visvasity/cli"
)

type Finnhub struct {
	Flags

	token string
}

func (c *Finnhub) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.Flags.SetFlags(fset)
	fset.StringVar(&c.token, "token", "", "Finnhub api token (prompted when empty)")
	return "finnhub", fset, cli.CmdFunc(c.run)
}

func (c *Finnhub) Purpose() string {
	return "Configures the Finnhub market data api token"
}

func (c *Finnhub) Description() string {
	return `
Command "finnhub" saves the Finnhub api token in the secrets file. The token
is verified by fetching a quote for the AAPL symbol.

  $ stockwatch setup finnhub
`
}

func (c *Finnhub) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	token, err := readSecret(c.token, "Finnhub api token")
	if err != nil {
		return err
	}
	creds := &quote.Credentials{Token: token}
	if err := creds.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		client, err := quote.New(creds.Token, nil /* opts */)
		if err != nil {
			return err
		}
		q, err := client.GetQuote(ctx, "AAPL")
		if err != nil {
			return fmt.Errorf("could not verify the token with a quote: %w", err)
		}
		fmt.Fprintf(cli.Stdout(ctx), "AAPL %s\n", q.PriceFormatted)
	}

	return c.update(func(s *server.Secrets) error {
		s.Finnhub = creds
		return nil
	})
}
