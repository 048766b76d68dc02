// Copyright (c) 2025 BVK Chaitanya

package user

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type SignOut struct {
	cmdutil.ClientFlags
}

func (c *SignOut) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	return "signout", fset, cli.CmdFunc(c.run)
}

func (c *SignOut) Purpose() string {
	return "Ends the current session"
}

func (c *SignOut) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	if len(c.ClientFlags.Session()) == 0 {
		return fmt.Errorf("no session token is given")
	}
	if err := c.ClientFlags.Client().SignOut(ctx); err != nil {
		return fmt.Errorf("could not sign out: %w", err)
	}
	return nil
}
