// Package zrpclog defines the logging interface the zrpc core calls into.
//
// The core never imports a concrete logging library (spec.md treats the log
// sink as an external collaborator); binaries wire a concrete Logger, e.g.
// a logrus-backed one in cmd/zrpc-server.
package zrpclog

// Logger is the minimal structured-logging surface the core depends on.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type discard struct{}

func (discard) Debugf(string, ...any) {}
func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}

// Discard is the zero-cost default Logger; every call is a no-op.
var Discard Logger = discard{}
