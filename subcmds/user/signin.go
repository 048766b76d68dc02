// Copyright (c) 2025 BVK Chaitanya

package user

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/stockwatch/subcmds/cmdutil"
	"github.com/bvk/stockwatch/subcmds/defaults"
	"github.com/visvasity/cli"
)

type SignIn struct {
	cmdutil.ClientFlags
}

func (c *SignIn) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.ClientFlags.SetFlags(fset)
	return "signin", fset, cli.CmdFunc(c.run)
}

func (c *SignIn) Purpose() string {
	return "Creates a new session for a user"
}

func (c *SignIn) Description() string {
	return `
Command "signin" creates a new session for the user with the given email
address and prints a shell command that exports the session token. Other
commands pick the session from the STOCKWATCH_SESSION environment variable or
the -session flag.

    eval $(stockwatch user signin alice@example.com)
`
}

func (c *SignIn) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (email) argument")
	}

	_, resp, err := c.ClientFlags.Client().SignIn(ctx, args[0])
	if err != nil {
		return fmt.Errorf("could not sign in user %q: %w", args[0], err)
	}
	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "# user %s session expires at %s\n", resp.UserID, resp.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(stdout, "export %s=%s\n", defaults.SessionEnv, resp.Token)
	return nil
}
