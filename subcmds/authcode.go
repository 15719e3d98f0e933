// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/sentinel/server"
	"github.com/bvk/sentinel/steamtotp"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type AuthCode struct {
	cmdutil.DataDirFlags

	at string
}

func (c *AuthCode) run(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("command takes at most one (shared secret) argument")
	}

	secret := ""
	if len(args) == 1 {
		secret = args[0]
	} else {
		spath, err := c.SecretsPath()
		if err != nil {
			return err
		}
		secrets, err := server.SecretsFromFile(spath)
		if err != nil {
			return err
		}
		secret = secrets.Steam.SharedSecret
	}

	at := time.Now()
	if len(c.at) != 0 {
		v, err := time.Parse(time.RFC3339, c.at)
		if err != nil {
			return fmt.Errorf("could not parse time %q: %w", c.at, err)
		}
		at = v
	}

	code, err := steamtotp.AuthCode(secret, at)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "%s (valid for %s)\n", code, steamtotp.Remaining(at))
	return nil
}

func (c *AuthCode) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("auth-code", flag.ContinueOnError)
	c.DataDirFlags.SetFlags(fset)
	fset.StringVar(&c.at, "at", "", "RFC3339 time for the code instead of the current time")
	return "auth-code", fset, cli.CmdFunc(c.run)
}

func (c *AuthCode) Purpose() string {
	return "Prints the steam guard two-factor code"
}
