package zrpclog

import "github.com/sirupsen/logrus"

// Logrus adapts a *logrus.Logger to the Logger interface, giving zrpc
// binaries structured, leveled logs without the core importing logrus
// itself.
//
// Grounded in other_examples/a7c7118c_geoffjay-plantd__core-mdp-broker.go.go,
// which logs Majordomo broker/worker lifecycle events with
// logrus.WithFields.
type Logrus struct {
	*logrus.Logger
}

func (l Logrus) Debugf(format string, args ...any) { l.Logger.Debugf(format, args...) }
func (l Logrus) Infof(format string, args ...any)  { l.Logger.Infof(format, args...) }
func (l Logrus) Warnf(format string, args ...any)  { l.Logger.Warnf(format, args...) }
func (l Logrus) Errorf(format string, args ...any) { l.Logger.Errorf(format, args...) }

var _ Logger = Logrus{}
