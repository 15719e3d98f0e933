// Copyright (c) 2025 BVK Chaitanya

package feed

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Follow connects to the event feed at the websocket url and invokes fn for
// every message till the context is canceled, the server closes the stream
// or fn returns an error.
func Follow(ctx context.Context, addr *url.URL, fn func(*Message) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr.String(), nil)
	if err != nil {
		return fmt.Errorf("could not dial event feed at %s: %w", addr, err)
	}
	defer conn.Close()

	stopf := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopf()

	for {
		msg := new(Message)
		if err := conn.ReadJSON(msg); err != nil {
			if err := context.Cause(ctx); err != nil {
				return err
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("could not read from event feed: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
