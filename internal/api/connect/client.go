package connect

import (
	"context"
	"encoding/json"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/apperr"
)

// Client invokes commands on a remote backend.
type Client struct {
	unary     map[command.Name]*connect.Client[json.RawMessage, json.RawMessage]
	subscribe *connect.Client[command.Empty, command.Notification]
}

// NewClient creates a client for the backend at baseURL. A non-empty token is
// sent with every command.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{
		WithJSON(),
		connect.WithInterceptors(newTokenHeaderInterceptor(token)),
	}, opts...)

	c := &Client{
		unary: make(map[command.Name]*connect.Client[json.RawMessage, json.RawMessage], len(command.Unary)),
	}
	for _, name := range command.Unary {
		c.unary[name] = connect.NewClient[json.RawMessage, json.RawMessage](
			httpClient,
			baseURL+name.Procedure(),
			opts...,
		)
	}
	c.subscribe = connect.NewClient[command.Empty, command.Notification](
		httpClient,
		baseURL+command.SubscribeDisplay.Procedure(),
		opts...,
	)
	return c
}

// Invoke sends one command and decodes its response into res.
// The request is shape-checked before it leaves and the response after it
// arrives; a malformed response is a CommandFailed.
func (c *Client) Invoke(ctx context.Context, name command.Name, req command.Record, res command.Record) error {
	client, ok := c.unary[name]
	if !ok {
		return apperr.CommandFailed(errors.Newf("unknown command %q", name))
	}
	if err := req.Validate(); err != nil {
		return errors.Wrapf(err, "%s request", name)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return apperr.CommandFailed(errors.Wrapf(err, "encode %s request", name))
	}
	raw := json.RawMessage(body)

	resp, err := client.CallUnary(ctx, connect.NewRequest(&raw))
	if err != nil {
		return errors.Wrapf(fromConnectError(err), "%s", name)
	}

	if resp.Msg == nil || len(*resp.Msg) == 0 {
		return apperr.CommandFailed(errors.Newf("%s: empty response", name))
	}
	if err := json.Unmarshal(*resp.Msg, res); err != nil {
		return apperr.CommandFailed(errors.Wrapf(err, "%s: malformed response", name))
	}
	if err := res.Validate(); err != nil {
		return apperr.CommandFailed(errors.Wrapf(err, "%s: malformed response", name))
	}
	return nil
}

// Subscribe opens the display notification stream and calls fn for each
// notification until ctx ends, the stream closes or fn returns an error.
func (c *Client) Subscribe(ctx context.Context, fn func(*command.Notification) error) error {
	stream, err := c.subscribe.CallServerStream(ctx, connect.NewRequest(&command.Empty{}))
	if err != nil {
		return errors.Wrapf(fromConnectError(err), "%s", command.SubscribeDisplay)
	}
	defer stream.Close()

	for stream.Receive() {
		n := stream.Msg()
		if err := n.Validate(); err != nil {
			return apperr.CommandFailed(errors.Wrap(err, "malformed notification"))
		}
		if err := fn(n); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrapf(fromConnectError(err), "%s", command.SubscribeDisplay)
	}
	return nil
}
