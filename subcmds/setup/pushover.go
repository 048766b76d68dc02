// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/stockwatch/pushover"
	"github.com/bvk/stockwatch/server"
	"github.com/visvasity/cli"
)

type Pushover struct {
	Flags

	appKey  string
	userKey string
}

func (c *Pushover) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.Flags.SetFlags(fset)
	fset.StringVar(&c.userKey, "user-key", "", "Pushover user key")
	fset.StringVar(&c.appKey, "app-key", "", "Pushover application key (prompted when empty)")
	return "pushover", fset, cli.CmdFunc(c.run)
}

func (c *Pushover) Purpose() string {
	return "Configures notifications through the Pushover service"
}

func (c *Pushover) Description() string {
	return `
Command "pushover" saves the Pushover keys in the secrets file. Pushover keys
are optional. They are only required to receive notifications on the mobile
phones.

  $ stockwatch setup pushover -user-key=uscjs2...tvp4kv
`
}

func (c *Pushover) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	appKey, err := readSecret(c.appKey, "Pushover application key")
	if err != nil {
		return err
	}
	keys := &pushover.Keys{ApplicationKey: appKey, UserKey: c.userKey}
	if err := keys.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		client, err := pushover.New(keys, nil /* endpoint */)
		if err != nil {
			return err
		}
		if err := client.SendMessage(ctx, time.Now(), "Test message from stockwatch setup; please ignore."); err != nil {
			return fmt.Errorf("could not verify the keys with a test message: %w", err)
		}
	}

	return c.update(func(s *server.Secrets) error {
		s.Pushover = keys
		return nil
	})
}
