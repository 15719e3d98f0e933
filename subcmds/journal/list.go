// Copyright (c) 2025 BVK Chaitanya

package journal

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/sentinel/journal"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type List struct {
	cmdutil.DBFlags

	since  string
	event  string
	asJSON bool
}

func (c *List) Purpose() string {
	return "Prints the recorded session events"
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.since, "since", "", "prints events at or after this time (ex: -24h, 2025-01-02)")
	fset.StringVar(&c.event, "event", "", "prints only the events with this name")
	fset.BoolVar(&c.asJSON, "json", false, "prints the entries as JSON objects")
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	since, err := parseTime(time.Now(), c.since)
	if err != nil {
		return err
	}

	db, closer, err := c.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	j, err := journal.New(db)
	if err != nil {
		return err
	}
	entries, err := j.List(ctx, since)
	if err != nil {
		return fmt.Errorf("could not list journal entries: %w", err)
	}

	stdout := cli.Stdout(ctx)
	for _, e := range entries {
		if len(c.event) != 0 && e.Event != c.event {
			continue
		}
		if !c.asJSON {
			printEntry(stdout, e.Time, e.Event, e.Payload)
			continue
		}
		v := struct {
			ID      string          `json:"id"`
			Time    time.Time       `json:"time"`
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}{e.ID, e.Time, e.Event, e.Payload}
		data, err := json.Marshal(&v)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\n", data)
	}
	return nil
}
