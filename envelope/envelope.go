// Package envelope defines the request/response wire shapes exchanged
// between a zrpc Client and Server.
//
// A Request carries a method name and positional params; a Response carries
// either a Result or an RPCError, never both. Response errors are
// reconstructed into a *client.CallError on the caller side.
package envelope

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Request is the envelope sent by a Client to a Server.
type Request struct {
	ID     string `json:"id,omitempty" msgpack:"id,omitempty"`
	Method string `json:"method" msgpack:"method"`
	Params []any  `json:"params" msgpack:"params"`
}

// Response is the envelope a Server sends back for a Request.
//
// Exactly one of Result and Error is non-nil.
type Response struct {
	ID     string    `json:"id,omitempty" msgpack:"id,omitempty"`
	Result any       `json:"result,omitempty" msgpack:"result,omitempty"`
	Error  *RPCError `json:"error,omitempty" msgpack:"error,omitempty"`
}

// RPCError is the structured error carried by a failed Response.
type RPCError struct {
	Type    string `json:"type" msgpack:"type"`
	Message string `json:"message" msgpack:"message"`
	Args    []any  `json:"args,omitempty" msgpack:"args,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// NewID returns a fresh correlation token: a random (version 4) UUID's 128
// bits rendered as a 32-character lowercase hex string with no separators. Uniqueness is only
// probabilistic, which is all the wire protocol requires.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
