// Package registry implements the procedure dispatch table: the mapping
// from a method name to a handler within a single Server.
//
// A handler is any func value whose parameters are concrete types and
// whose results are (T, error), (error), or (T), e.g.
//
//	func(a, b int) (int, error)
//	func(a, b int) int
//
// Dispatch adapts the positional []any arguments carried on the wire to the
// handler's declared parameter types via reflection, the same technique the
// teacher's server/service.go uses to adapt a fixed (Args, Reply) pair,
// generalized to N variadic arguments.
package registry

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"zrpc/zrpclog"
)

// MissingMethod is returned by Dispatch when name has no registered handler.
// Its type name is load-bearing: errorTypeName in the server package reports
// the wire error.type as "<package>.<TypeName>", and spec.md §8's "Missing
// method" property requires that name to end in "MissingMethod".
type MissingMethod struct {
	Name string
}

func (e *MissingMethod) Error() string {
	return fmt.Sprintf("missing method: %s", e.Name)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Registry maps procedure names to handlers. The zero value is usable.
//
// Mutation (Register) is not synchronized against concurrent Dispatch, per
// spec.md §5: registration is expected to complete before concurrent
// dispatch begins.
type Registry struct {
	Logger   zrpclog.Logger
	handlers map[string]reflect.Value
}

// New returns an empty Registry using logger for replacement warnings.
// A nil logger falls back to zrpclog.Discard.
func New(logger zrpclog.Logger) *Registry {
	if logger == nil {
		logger = zrpclog.Discard
	}
	return &Registry{Logger: logger, handlers: make(map[string]reflect.Value)}
}

// Register binds name to handler, a func value. Dots in name are purely
// namespacing sugar for callers; the registry looks the whole string up
// verbatim. Re-registration replaces the prior binding and logs a warning
// (spec.md §9 Open Question: the reference implementation does this
// silently; zrpc surfaces it instead).
func (r *Registry) Register(name string, handler any) error {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		return errors.Errorf("registry: handler for %q must be a function, got %s", name, v.Kind())
	}
	if r.handlers == nil {
		r.handlers = make(map[string]reflect.Value)
	}
	if _, exists := r.handlers[name]; exists {
		r.logger().Warnf("registry: replacing existing handler for %q", name)
	}
	r.handlers[name] = v
	return nil
}

func (r *Registry) logger() zrpclog.Logger {
	if r.Logger == nil {
		return zrpclog.Discard
	}
	return r.Logger
}

// Dispatch looks up name and invokes its handler with args. On a miss it
// fails with *MissingMethod. On a hit, a panic raised by the handler
// is not recovered here — capture happens in the server layer, per
// spec.md §4.2.
func (r *Registry) Dispatch(name string, args ...any) (result any, err error) {
	fn, ok := r.handlers[name]
	if !ok {
		return nil, &MissingMethod{Name: name}
	}

	callArgs, err := adaptArgs(fn.Type(), args)
	if err != nil {
		return nil, errors.Wrapf(err, "registry: dispatching %q", name)
	}

	out := fn.Call(callArgs)
	return splitResult(out)
}

// adaptArgs converts the positional wire arguments into reflect.Values
// matching fnType's declared parameter types.
func adaptArgs(fnType reflect.Type, args []any) ([]reflect.Value, error) {
	if fnType.IsVariadic() {
		if len(args) < fnType.NumIn()-1 {
			return nil, errors.Errorf("expected at least %d args, got %d", fnType.NumIn()-1, len(args))
		}
	} else if len(args) != fnType.NumIn() {
		return nil, errors.Errorf("expected %d args, got %d", fnType.NumIn(), len(args))
	}

	callArgs := make([]reflect.Value, len(args))
	for i, a := range args {
		want := paramType(fnType, i)
		callArgs[i] = convertArg(a, want)
	}
	return callArgs, nil
}

func paramType(fnType reflect.Type, i int) reflect.Type {
	if fnType.IsVariadic() && i >= fnType.NumIn()-1 {
		return fnType.In(fnType.NumIn() - 1).Elem()
	}
	return fnType.In(i)
}

// convertArg coerces a decoded wire value (e.g. a codec-decoded float64)
// into the handler's declared parameter type when the kinds are
// convertible, otherwise passes it through unchanged.
func convertArg(a any, want reflect.Type) reflect.Value {
	v := reflect.ValueOf(a)
	if !v.IsValid() {
		return reflect.Zero(want)
	}
	if v.Type() == want {
		return v
	}
	if v.Type().ConvertibleTo(want) {
		return v.Convert(want)
	}
	return v
}

// splitResult normalizes a handler's return values into (value, error).
// Handlers may return (T, error) or just (error) or just (T).
func splitResult(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type() == errorType {
		var err error
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, err
		}
		return out[0].Interface(), err
	}
	if len(out) == 1 {
		return out[0].Interface(), nil
	}
	return out[0].Interface(), nil
}
