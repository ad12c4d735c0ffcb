package client

import "strings"

// Call is a fluent method-name builder: client.N("foo").N("bar").Invoke(x)
// sends method == "foo.bar". This is the builder/stub alternative spec.md
// §9 prescribes for statically typed targets in place of the reference
// implementation's dynamic `client.foo.bar(x)` attribute-access sugar; it
// is purely client-side convenience and never changes what the server
// sees.
type Call struct {
	client *Client
	parts  []string
}

// N starts a dotted method-name builder whose first segment is part.
func (c *Client) N(part string) *Call {
	return &Call{client: c, parts: []string{part}}
}

// Method starts a builder from an already-composed method name (which may
// itself contain dots); Invoke sends it unchanged.
func (c *Client) Method(name string) *Call {
	return &Call{client: c, parts: []string{name}}
}

// N appends another namespace segment.
func (m *Call) N(part string) *Call {
	m.parts = append(m.parts, part)
	return m
}

// Method returns the composed dotted method name without invoking it.
func (m *Call) Method() string {
	return strings.Join(m.parts, ".")
}

// Invoke sends the composed method name with params, exactly as
// Client.Call(m.Method(), params...) would.
func (m *Call) Invoke(params ...any) (any, error) {
	return m.client.Call(m.Method(), params...)
}
