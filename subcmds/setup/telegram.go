// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/bvk/stockwatch/ctxutil"
	"github.com/bvk/stockwatch/server"
	"github.com/bvk/stockwatch/telegram"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/visvasity/cli"
)

type Telegram struct {
	Flags

	owner    string
	members  string
	botToken string
}

func (c *Telegram) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := new(flag.FlagSet)
	c.Flags.SetFlags(fset)
	fset.StringVar(&c.owner, "owner", "", "Owner's telegram user name")
	fset.StringVar(&c.members, "members", "", "Comma separated telegram user names that can use the bot")
	fset.StringVar(&c.botToken, "bot-token", "", "Telegram bot's authentication token (prompted when empty)")
	return "telegram", fset, cli.CmdFunc(c.run)
}

func (c *Telegram) Purpose() string {
	return "Configures notifications through a Telegram bot"
}

func (c *Telegram) Description() string {
	return `
Command "telegram" saves the Telegram bot parameters in the secrets file.
Users must start a chat with the bot before it can message them.

  $ stockwatch setup telegram -owner=username
`
}

func (c *Telegram) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	token, err := readSecret(c.botToken, "Telegram bot token")
	if err != nil {
		return err
	}
	secrets := &telegram.Secrets{BotToken: token, Owner: c.owner}
	if len(c.members) != 0 {
		secrets.Members = strings.Split(c.members, ",")
	}
	if err := secrets.Check(); err != nil {
		return err
	}

	if !c.skipTesting {
		client, err := telegram.New(ctx, kvmemdb.New(), secrets)
		if err != nil {
			return err
		}
		defer client.Close()

		fmt.Fprintf(cli.Stdout(ctx), "Send a message to @%s from the telegram app; waiting for a minute\n", client.BotUserName())
		ctxutil.Sleep(ctx, time.Minute)
		if err := client.SendMessage(ctx, time.Now(), "Test message from stockwatch setup; please ignore."); err != nil {
			return err
		}
	}

	return c.update(func(s *server.Secrets) error {
		s.Telegram = secrets
		return nil
	})
}
