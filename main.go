// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/stockwatch/envfile"
	"github.com/bvk/stockwatch/subcmds"
	"github.com/bvk/stockwatch/subcmds/db"
	"github.com/bvk/stockwatch/subcmds/defaults"
	"github.com/bvk/stockwatch/subcmds/setup"
	"github.com/bvk/stockwatch/subcmds/user"
	"github.com/bvk/stockwatch/subcmds/watchlist"
	"github.com/visvasity/cli"
)

func main() {
	if err := envfile.UpdateEnv(defaults.EnvFile, envfile.VariableNamePrefix(defaults.EnvPrefix)); err != nil {
		log.Printf("could not load %s file (ignored): %v", defaults.EnvFile, err)
	}

	dbCmds := []cli.Command{
		new(db.List),
		new(db.Delete),
		new(db.Backup),
		new(db.Restore),
	}

	userCmds := []cli.Command{
		new(user.SignUp),
		new(user.SignIn),
		new(user.SignOut),
	}

	watchlistCmds := []cli.Command{
		new(watchlist.Add),
		new(watchlist.Remove),
		new(watchlist.List),
		new(watchlist.Show),
		new(watchlist.Symbols),
		new(watchlist.Toggle),
	}

	setupCmds := []cli.Command{
		new(setup.Finnhub),
		new(setup.Pushover),
		new(setup.Telegram),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		cli.NewGroup("user", "Manage user accounts and sessions", userCmds...),
		cli.NewGroup("watchlist", "View/update the watchlist", watchlistCmds...),
		cli.NewGroup("setup", "Configure third-party service credentials", setupCmds...),
		cli.NewGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
