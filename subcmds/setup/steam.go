// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/sentinel/reactor"
	"github.com/bvk/sentinel/server"
	"github.com/bvk/sentinel/steam"
	"github.com/bvk/sentinel/steamtotp"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Steam struct {
	cmdutil.DataDirFlags

	steamID      string
	accountName  string
	sharedSecret string
	logonID      uint
	gameName     string
}

func (c *Steam) Purpose() string {
	return "Setup configures the steam account credentials"
}

func (c *Steam) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("steam", flag.ContinueOnError)
	c.DataDirFlags.SetFlags(fset)
	fset.StringVar(&c.steamID, "steamid", "", "64-bit steam id of the account")
	fset.StringVar(&c.accountName, "account-name", "", "steam account login name")
	fset.StringVar(&c.sharedSecret, "shared-secret", "", "base64 encoded steam guard shared secret")
	fset.UintVar(&c.logonID, "logon-id", 0, "fixed logon id; random when zero")
	fset.StringVar(&c.gameName, "playing-game-name", "", "activity string displayed for the account")
	return "steam", fset, cli.CmdFunc(c.run)
}

func (c *Steam) Description() string {
	return `

Command "steam" saves the steam account credentials into the secrets file.
Password is read from the terminal without echo. Shared secret is the base64
encoded value from the steam guard mobile authenticator setup.

  $ sentinel setup steam --account-name=mybot --shared-secret=MTIzNDU2...

`
}

func (c *Steam) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}
	if len(c.accountName) == 0 {
		return fmt.Errorf("account-name flag is required")
	}
	if len(c.steamID) != 0 {
		if _, err := steam.ParseSteamID(c.steamID); err != nil {
			return fmt.Errorf("invalid steamid: %w", err)
		}
	}
	if c.logonID > 0xffffffff {
		return fmt.Errorf("logon id must be a 32-bit value")
	}

	spath, secrets, err := loadSecrets(&c.DataDirFlags)
	if err != nil {
		return err
	}
	if secrets == nil {
		secrets = new(server.Secrets)
	}

	stdout := cli.Stdout(ctx)
	password, err := prompt(stdout, "Password for "+c.accountName, true /* secret */)
	if err != nil {
		return err
	}
	secret := c.sharedSecret
	if len(secret) == 0 {
		if secret, err = prompt(stdout, "Shared secret", true /* secret */); err != nil {
			return err
		}
	}

	secrets.Steam = &reactor.Credentials{
		SteamID:         c.steamID,
		AccountName:     c.accountName,
		Password:        password,
		SharedSecret:    secret,
		LogonID:         uint32(c.logonID),
		PlayingGameName: c.gameName,
	}
	if err := secrets.Check(); err != nil {
		return err
	}

	code, err := steamtotp.Now(secret)
	if err != nil {
		return err
	}
	if err := secrets.SaveToFile(spath); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Saved steam credentials to %s (current auth code %s)\n", spath, code)
	return nil
}
