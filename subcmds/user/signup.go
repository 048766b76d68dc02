// Copyright (c) 2025 BVK Chaitanya

package user

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type SignUp struct {
	cmdutil.ClientFlags

	name string
}

func (c *SignUp) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.name, "name", "", "display name for the user")
	return "signup", fset, cli.CmdFunc(c.run)
}

func (c *SignUp) Purpose() string {
	return "Registers a new user with an email address"
}

func (c *SignUp) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (email) argument")
	}

	userID, err := c.ClientFlags.Client().SignUp(ctx, args[0], c.name)
	if err != nil {
		return fmt.Errorf("could not sign up user %q: %w", args[0], err)
	}
	fmt.Fprintln(cli.Stdout(ctx), userID)
	return nil
}
