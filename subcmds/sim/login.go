// Copyright (c) 2025 BVK Chaitanya

// Package sim implements commands to inject events into the simulated steam
// network of a running server.
package sim

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/sentinel/steamsim"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type empty struct{}

type Login struct {
	cmdutil.ClientFlags

	steamGuard bool
}

func (c *Login) Purpose() string {
	return "Completes the login of the simulated session"
}

func (c *Login) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("login", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.BoolVar(&c.steamGuard, "steam-guard", false, "sends a two-factor challenge instead of completing the login")
	return "login", fset, cli.CmdFunc(c.run)
}

func (c *Login) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	subpath := "/sim/login"
	if c.steamGuard {
		subpath = "/sim/steamguard"
	}
	_, err := cmdutil.Post[empty](ctx, &c.ClientFlags, subpath, &empty{})
	return err
}

type Logout struct {
	cmdutil.ClientFlags

	eresult int
}

func (c *Logout) Purpose() string {
	return "Disconnects the simulated session"
}

func (c *Logout) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("logout", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.IntVar(&c.eresult, "eresult", 6, "result code for the disconnect")
	return "logout", fset, cli.CmdFunc(c.run)
}

func (c *Logout) run(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("command takes at most one (message) argument")
	}
	req := &steamsim.LogoutRequest{EResult: c.eresult}
	if len(args) == 1 {
		req.Message = args[0]
	}
	_, err := cmdutil.Post[empty](ctx, &c.ClientFlags, "/sim/logout", req)
	return err
}
