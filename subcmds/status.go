// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bvk/sentinel/server"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/dustin/go-humanize"
	"github.com/visvasity/cli"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Purpose() string {
	return "Status prints the session status of a running server"
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	status, err := cmdutil.Get[server.Status](ctx, &c.ClientFlags, "/status")
	if err != nil {
		return fmt.Errorf("could not get server status: %w", err)
	}

	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format(time.DateTime)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Account:\t%s\t\n", status.SteamID)
	fmt.Fprintf(tw, "Online:\t%t\t\n", status.Online)
	fmt.Fprintf(tw, "Last Login:\t%s\t\n", formatTime(status.LastLoginTime))
	fmt.Fprintf(tw, "Last Logout:\t%s\t\n", formatTime(status.LastLogoutTime))
	if len(status.LastLogoutMessage) != 0 {
		fmt.Fprintf(tw, "Logout Reason:\t%s\t\n", status.LastLogoutMessage)
	}
	fmt.Fprintf(tw, "Completed Trades:\t%d\t\n", status.NumCompletedTrades)
	fmt.Fprintf(tw, "Failed Trades:\t%d\t\n", status.NumFailedTrades)
	if p := status.Process; p != nil {
		fmt.Fprintf(tw, "PID:\t%d\t\n", p.PID)
		fmt.Fprintf(tw, "Started:\t%s (%s ago)\t\n", formatTime(p.StartTime), time.Since(p.StartTime).Round(time.Second))
		fmt.Fprintf(tw, "Threads:\t%d\t\n", p.NumThreads)
		fmt.Fprintf(tw, "Memory:\t%s\t\n", humanize.IBytes(p.MemoryRSS))
		fmt.Fprintf(tw, "CPU:\t%.1f%%\t\n", p.CPUPercent)
	}
	return tw.Flush()
}
