// Copyright (c) 2025 BVK Chaitanya

package journal

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/bvk/sentinel/feed"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Follow struct {
	cmdutil.ClientFlags

	event string
}

func (c *Follow) Purpose() string {
	return "Prints the session events live from a running server"
}

func (c *Follow) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("follow", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.event, "event", "", "prints only the events with this name")
	return "follow", fset, cli.CmdFunc(c.run)
}

func (c *Follow) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stdout := cli.Stdout(ctx)
	show := func(msg *feed.Message) error {
		if len(c.event) == 0 || msg.Event == c.event {
			printEntry(stdout, msg.Time, msg.Event, msg.Payload)
		}
		return nil
	}
	if err := feed.Follow(ctx, c.WebsocketURL("/events"), show); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
