// Package client implements the outbound half of zrpc: a REQ socket,
// envelope construction, response demux, and client-side reconstruction of
// server-side errors.
//
// Grounded in the teacher's client/client.go Call shape, stripped of the
// registry-discovery/load-balancing staging (spec.md's Client is defined
// against a single fixed addr; see the discovery package for the
// service-discovery analogue of the teacher's Registry.Discover +
// Balancer.Pick staging).
package client

import (
	"fmt"
	"strings"

	"github.com/pebbe/zmq4"
	"github.com/pkg/errors"

	"zrpc/codec"
	"zrpc/envelope"
)

// Client wraps a single REQ socket. Per spec.md §5, a Client is not safe
// for concurrent Call; concurrent callers should use a pool.Pool of
// distinct Clients.
type Client struct {
	Codec  codec.Codec // defaults to codec.MsgpackCodec{}
	socket *zmq4.Socket
}

// New connects a REQ socket to addr on ctx (nil uses the package-level
// default zmq context).
func New(addr string, ctx *zmq4.Context) (*Client, error) {
	var socket *zmq4.Socket
	var err error
	if ctx != nil {
		socket, err = ctx.NewSocket(zmq4.REQ)
	} else {
		socket, err = zmq4.NewSocket(zmq4.REQ)
	}
	if err != nil {
		return nil, errors.Wrap(err, "client: creating REQ socket")
	}
	if err := socket.Connect(addr); err != nil {
		socket.Close()
		return nil, errors.Wrapf(err, "client: connecting to %s", addr)
	}
	return &Client{socket: socket}, nil
}

func (c *Client) codec() codec.Codec {
	if c.Codec == nil {
		return codec.MsgpackCodec{}
	}
	return c.Codec
}

// Close releases the underlying socket.
func (c *Client) Close() error {
	return c.socket.Close()
}

// Call builds a request envelope with a fresh ID, sends it, waits for the
// matching response, and returns its Result — or a *CallError reconstructed
// from the response's Error.
func (c *Client) Call(method string, params ...any) (any, error) {
	req := &envelope.Request{ID: envelope.NewID(), Method: method, Params: params}

	data, err := c.codec().Encode(req)
	if err != nil {
		return nil, errors.Wrap(err, "client: encoding request")
	}
	if _, err := c.socket.SendBytes(data, 0); err != nil {
		return nil, errors.Wrap(err, "client: sending request")
	}

	raw, err := c.socket.RecvBytes(0)
	if err != nil {
		return nil, errors.Wrap(err, "client: receiving response")
	}

	var resp envelope.Response
	if err := c.codec().Decode(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "client: decoding response")
	}

	if resp.Error == nil {
		return resp.Result, nil
	}
	return nil, newCallError(req, &resp)
}

// CallError reconstructs a server-side RPCError on the caller side. It
// carries the original request/response for programmatic inspection, and
// `Is` lets a caller match either the fully-qualified or leaf class name —
// the statically typed replacement for the synthesized exception hierarchy
// spec.md §9 describes for dynamic targets.
type CallError struct {
	FullType string
	Message  string
	Args     []any
	Request  *envelope.Request
	Response *envelope.Response
}

func newCallError(req *envelope.Request, resp *envelope.Response) *CallError {
	return &CallError{
		FullType: resp.Error.Type,
		Message:  resp.Error.Message,
		Args:     resp.Error.Args,
		Request:  req,
		Response: resp,
	}
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.FullType, e.Message)
}

// Is reports whether kind matches this error's leaf class name (the part
// after the last dot, e.g. "MissingMethod") or its fully-qualified name
// (e.g. "registry.MissingMethod") — the two granularities spec.md §8's
// "Error fidelity" property requires, plus the root ("error") granularity
// that any Go type check already gives for free.
func (e *CallError) Is(kind string) bool {
	if e.FullType == kind {
		return true
	}
	return leafName(e.FullType) == kind
}

func leafName(fullType string) string {
	if i := strings.LastIndexByte(fullType, '.'); i >= 0 {
		return fullType[i+1:]
	}
	return fullType
}
