package chain

import (
	"context"
	"encoding/json"

	"github.com/hasura/go-graphql-client"
)

// SubscribeMessages opens a live subscription for outbound external
// messages emitted by src and streams their bodies. The returned cancel
// function tears the websocket down; it must be called on every exit
// path so neither the subscription nor its goroutine leaks.
func (c *Client) SubscribeMessages(ctx context.Context, src string) (<-chan string, func(), error) {
	sc := graphql.NewSubscriptionClient(c.conf.Get().SubscriptionEndpoint)

	bodies := make(chan string, 16)

	var sub struct {
		Messages struct {
			Body string `graphql:"body"`
		} `graphql:"messages(filter: {src: {eq: $src}, msg_type: {eq: 2}})"`
	}
	vars := map[string]any{"src": src}

	_, err := sc.Subscribe(&sub, vars, func(message []byte, err error) error {
		if err != nil {
			return err
		}
		var payload struct {
			Messages struct {
				Body string `json:"body"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(message, &payload); err != nil {
			return err
		}
		if payload.Messages.Body == "" {
			return nil
		}
		select {
		case bodies <- payload.Messages.Body:
		case <-ctx.Done():
		}
		return nil
	})
	if err != nil {
		return nil, nil, &RpcError{Op: "subscribe messages", Err: err}
	}

	go func() {
		if err := sc.Run(); err != nil {
			c.log.Error("message subscription closed:", err)
		}
		// Wakes any reader blocked on the channel so a dead
		// subscription does not look like silence until the timeout.
		close(bodies)
	}()

	cancel := func() {
		_ = sc.Close()
	}
	return bodies, cancel, nil
}
