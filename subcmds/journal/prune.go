// Copyright (c) 2025 BVK Chaitanya

package journal

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/sentinel/journal"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Prune struct {
	cmdutil.DBFlags

	before string
}

func (c *Prune) Purpose() string {
	return "Removes the recorded session events before a time"
}

func (c *Prune) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("prune", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.before, "before", "", "removes events before this time (ex: -720h, 2025-01-02)")
	return "prune", fset, cli.CmdFunc(c.run)
}

func (c *Prune) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	if len(c.before) == 0 {
		return fmt.Errorf("before flag is required")
	}
	before, err := parseTime(time.Now(), c.before)
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
	n, err := j.Prune(ctx, before)
	if err != nil {
		return fmt.Errorf("could not prune journal entries: %w", err)
	}
	fmt.Fprintf(cli.Stdout(ctx), "removed %d entries\n", n)
	return nil
}
