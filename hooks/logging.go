// Package hooks provides the built-in server.Hook implementations: request
// logging and rate limiting. Both are ambient observability/throttling
// concerns, not part of the RPC protocol — grounded in the teacher's
// middleware package, retargeted from *message.RPCMessage to
// *envelope.Request/*envelope.Response.
package hooks

import (
	"time"

	"zrpc/envelope"
	"zrpc/server"
	"zrpc/zrpclog"
)

// Logging records the method, duration, and any error for each request.
func Logging(logger zrpclog.Logger) server.Hook {
	if logger == nil {
		logger = zrpclog.Discard
	}
	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(req *envelope.Request) *envelope.Response {
			start := time.Now()
			resp := next(req)
			elapsed := time.Since(start)

			if resp.Error != nil {
				logger.Warnf("method=%s duration=%s error=%s", req.Method, elapsed, resp.Error.Message)
			} else {
				logger.Infof("method=%s duration=%s", req.Method, elapsed)
			}
			return resp
		}
	}
}
