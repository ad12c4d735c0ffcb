// Package callback implements a one-shot value-or-error rendezvous between
// two goroutines, used to wait for a socket to be bound/connected, to
// propagate startup failures out of a spawned goroutine, and to hand sockets
// back out of worker goroutines.
//
// Grounded in the channel-based startup signaling cowsql-go-cowsql's
// app.App uses (a readyCh the run goroutine closes, and a stop
// context.CancelFunc that reports completion back to the caller),
// generalized from a signal-only channel to a value-or-error result.
package callback

import (
	"context"
	"sync"
)

type result struct {
	value any
	err   error
}

// Callback is a one-shot value-or-error rendezvous. The zero value is not
// usable; construct with New.
type Callback struct {
	mu   sync.Mutex
	ch   chan result
	done bool
}

// New returns an unset Callback.
func New() *Callback {
	return &Callback{ch: make(chan result, 1)}
}

// Send deposits value, transitions to the value-set state, and wakes any
// waiter. Calling Send or Throw more than once without an intervening
// Reset panics, mirroring a one-shot promise.
func (c *Callback) Send(value any) {
	c.deposit(result{value: value})
}

// Throw deposits err, transitioning to the error-set state.
func (c *Callback) Throw(err error) {
	c.deposit(result{err: err})
}

func (c *Callback) deposit(r result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		panic("callback: Send/Throw called twice without Reset")
	}
	c.done = true
	c.ch <- r
}

// Wait blocks until Send or Throw is called, or ctx is done. It returns the
// deposited value, or re-raises the deposited error, or ctx.Err() on
// cancellation.
func (c *Callback) Wait(ctx context.Context) (any, error) {
	select {
	case r := <-c.ch:
		// Put it back so a second Wait (or a concurrent one) observes the
		// same outcome; Reset is the only way to clear it.
		c.ch <- r
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reset returns the Callback to its unset state. Not safe to call
// concurrently with an in-flight Wait.
func (c *Callback) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.ch:
	default:
	}
	c.done = false
}

// CatchExceptions returns a deferred cleanup function for use at the top of
// a spawned goroutine:
//
//	go func() {
//	    defer cb.CatchExceptions(true)()
//	    ... work that may panic ...
//	}()
//
// On an unhandled panic within the goroutine, it calls Throw with the
// recovered value wrapped as an error, then either swallows the panic
// (die=true, the goroutine unwinds quietly) or re-panics for a local
// recover to handle (die=false).
func (c *Callback) CatchExceptions(die bool) func() {
	return func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = &panicError{value: r}
			}
			c.Throw(err)
			if !die {
				panic(r)
			}
		}
	}
}

type panicError struct{ value any }

func (p *panicError) Error() string {
	if err, ok := p.value.(error); ok {
		return err.Error()
	}
	return "panic: " + toString(p.value)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "non-string panic value"
}

// nullCallback implements the same surface as Callback but every operation
// is a no-op; Wait returns immediately with a nil value and nil error. Used
// where the caller doesn't care about readiness.
type nullCallback struct{}

func (nullCallback) Send(any)               {}
func (nullCallback) Throw(error)            {}
func (nullCallback) Reset()                 {}
func (nullCallback) CatchExceptions(bool) func() {
	return func() {}
}
func (nullCallback) Wait(context.Context) (any, error) { return nil, nil }

// Waiter is the subset of Callback's surface Server/LoadBalancer/MultiServer
// depend on, satisfied by both *Callback and Null().
type Waiter interface {
	Send(value any)
	Throw(err error)
	Wait(ctx context.Context) (any, error)
	Reset()
	CatchExceptions(die bool) func()
}

// Null returns a Waiter whose operations are all no-ops.
func Null() Waiter {
	return nullCallback{}
}

var (
	_ Waiter = (*Callback)(nil)
	_ Waiter = nullCallback{}
)
