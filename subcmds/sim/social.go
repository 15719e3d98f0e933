// Copyright (c) 2025 BVK Chaitanya

package sim

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/sentinel/steamsim"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Message struct {
	cmdutil.ClientFlags
}

func (c *Message) Purpose() string {
	return "Sends a chat message to the simulated session"
}

func (c *Message) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("message", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "message", fset, cli.CmdFunc(c.run)
}

func (c *Message) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("needs sender steamid and message arguments")
	}
	req := &steamsim.MessageRequest{
		SteamID: args[0],
		Message: strings.Join(args[1:], " "),
	}
	_, err := cmdutil.Post[empty](ctx, &c.ClientFlags, "/sim/message", req)
	return err
}

type Friend struct {
	cmdutil.ClientFlags

	relationship int
}

func (c *Friend) Purpose() string {
	return "Sends a friend relationship change to the simulated session"
}

func (c *Friend) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("friend", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.IntVar(&c.relationship, "relationship", 0, "relationship value; friend request when zero")
	return "friend", fset, cli.CmdFunc(c.run)
}

func (c *Friend) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (sender steamid) argument")
	}
	req := &steamsim.FriendRequest{
		SteamID:      args[0],
		Relationship: c.relationship,
	}
	_, err := cmdutil.Post[empty](ctx, &c.ClientFlags, "/sim/friend", req)
	return err
}
