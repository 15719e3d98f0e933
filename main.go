// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/sentinel/subcmds"
	"github.com/bvk/sentinel/subcmds/db"
	"github.com/bvk/sentinel/subcmds/journal"
	"github.com/bvk/sentinel/subcmds/setup"
	"github.com/bvk/sentinel/subcmds/sim"
	"github.com/visvasity/cli"
)

func main() {
	dbCmds := []cli.Command{
		new(db.Get),
		new(db.List),
		new(db.Delete),
	}

	journalCmds := []cli.Command{
		new(journal.List),
		new(journal.Follow),
		new(journal.Prune),
	}

	setupCmds := []cli.Command{
		new(setup.Steam),
		new(setup.Telegram),
		new(setup.PushOver),
	}

	simCmds := []cli.Command{
		new(sim.Login),
		new(sim.Logout),
		new(sim.Message),
		new(sim.Friend),
		new(sim.Offer),
		new(sim.OfferState),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		new(subcmds.AuthCode),
		cli.CommandGroup("setup", "Configure account credentials and notifications", setupCmds...),
		cli.CommandGroup("journal", "View recorded session events", journalCmds...),
		cli.CommandGroup("db", "View/update database directly", dbCmds...),
		cli.CommandGroup("sim", "Inject events into the simulated steam network", simCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
