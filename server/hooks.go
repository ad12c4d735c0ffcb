package server

import "zrpc/envelope"

// HandlerFunc processes one decoded request into a response. It is the
// signature shared by Server.dispatch and every Hook-wrapped handler.
type HandlerFunc func(req *envelope.Request) *envelope.Response

// Hook wraps a HandlerFunc to add a cross-cutting concern (logging, rate
// limiting) without touching dispatch itself — the onion-model middleware
// the teacher's middleware package implements, generalized from
// *message.RPCMessage to *envelope.Request/*envelope.Response and renamed
// since spec.md's component table has no standalone middleware component:
// hooks are purely ambient/observability, layered just inside the server.
type Hook func(next HandlerFunc) HandlerFunc
