// Copyright (c) 2025 BVK Chaitanya

package sim

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/bvk/sentinel/steamsim"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"github.com/bvk/sentinel/tradeoffer"
	"github.com/visvasity/cli"
)

type Offer struct {
	cmdutil.ClientFlags

	message    string
	isOurOffer bool
	appID      int
	contextID  string
	give       string
	receive    string
}

func (c *Offer) Purpose() string {
	return "Creates a trade offer in the simulated trade manager"
}

func (c *Offer) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("offer", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.message, "message", "", "offer message")
	fset.BoolVar(&c.isOurOffer, "ours", false, "when true, offer is created as sent by the account")
	fset.IntVar(&c.appID, "app-id", 730, "app id for the items")
	fset.StringVar(&c.contextID, "context-id", "2", "context id for the items")
	fset.StringVar(&c.give, "give", "", "comma separated asset ids to give")
	fset.StringVar(&c.receive, "receive", "", "comma separated asset ids to receive")
	return "offer", fset, cli.CmdFunc(c.run)
}

func (c *Offer) items(assets string) []*tradeoffer.Item {
	var items []*tradeoffer.Item
	for _, id := range strings.Split(assets, ",") {
		if id = strings.TrimSpace(id); len(id) != 0 {
			items = append(items, &tradeoffer.Item{AppID: c.appID, ContextID: c.contextID, AssetID: id})
		}
	}
	return items
}

func (c *Offer) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("needs one (partner steamid) argument")
	}
	req := &steamsim.OfferRequest{
		Partner:        args[0],
		Message:        c.message,
		IsOurOffer:     c.isOurOffer,
		ItemsToGive:    c.items(c.give),
		ItemsToReceive: c.items(c.receive),
	}
	resp, err := cmdutil.Post[steamsim.OfferResponse](ctx, &c.ClientFlags, "/sim/offer", req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "%s %s\n", resp.ID, resp.State)
	return nil
}

type OfferState struct {
	cmdutil.ClientFlags
}

func (c *OfferState) Purpose() string {
	return "Changes the state of a simulated trade offer"
}

func (c *OfferState) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("offer-state", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "offer-state", fset, cli.CmdFunc(c.run)
}

func (c *OfferState) run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("needs offer id and state name arguments")
	}
	state, err := tradeoffer.ParseState(args[1])
	if err != nil {
		return err
	}
	req := &steamsim.OfferStateRequest{ID: args[0], State: state}
	resp, err := cmdutil.Post[steamsim.OfferResponse](ctx, &c.ClientFlags, "/sim/offer/state", req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "%s %s\n", resp.ID, resp.State)
	return nil
}
