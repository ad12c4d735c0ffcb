// Package loadbalancer runs the transport's built-in fair-queue device
// (zmq.Proxy) between a ROUTER frontend and a DEALER backend, so that many
// REQ clients can be fanned out across many REP-speaking workers without
// either side knowing about the other.
//
// Two topologies, grounded in spec.md §4.4:
//
//   - proxy:  the frontend binds and the backend connects out to a fixed
//     list of worker addresses (workers bind; the balancer dials them).
//   - broker: both frontend and backend bind, and workers dial in to the
//     backend address (dynamic worker population).
//
// Grounded in the teacher's server/server.go bind/connect split, adapted
// from a single REP socket to a ROUTER/DEALER pair — the teacher has no
// analogue for a fair-queue device since its TCP server accepts connections
// directly.
package loadbalancer

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pebbe/zmq4"
	"github.com/pkg/errors"

	"zrpc/callback"
)

// LoadBalancer fans requests from a ROUTER frontend out to a DEALER
// backend, letting zmq.Proxy handle fair queuing between however many
// clients and workers are attached on either side.
type LoadBalancer struct {
	// Frontend is the address clients connect (REQ) to.
	Frontend string

	// Output lists fixed worker addresses to dial for the "proxy"
	// topology. Mutually exclusive with Backend.
	Output []string

	// Backend is the address workers connect to for the "broker"
	// topology (both sockets bind). Mutually exclusive with Output.
	Backend string

	Context *zmq4.Context // shared transport context; nil uses the package-level default
}

func (lb *LoadBalancer) broker() bool {
	return lb.Backend != ""
}

// Run creates the ROUTER/DEALER pair, binds/connects per topology, signals
// ready with both sockets, then blocks in zmq.Proxy until ctx is cancelled
// or the process receives SIGINT/SIGTERM. Returns nil on graceful shutdown;
// propagates any other error.
func (lb *LoadBalancer) Run(ctx context.Context, ready callback.Waiter) error {
	newSocket := zmq4.NewSocket
	if lb.Context != nil {
		newSocket = lb.Context.NewSocket
	}

	frontend, err := newSocket(zmq4.ROUTER)
	if err != nil {
		wrapped := errors.Wrap(err, "loadbalancer: creating ROUTER socket")
		ready.Throw(wrapped)
		return wrapped
	}
	if err := frontend.Bind(lb.Frontend); err != nil {
		frontend.Close()
		wrapped := errors.Wrapf(err, "loadbalancer: binding frontend %s", lb.Frontend)
		ready.Throw(wrapped)
		return wrapped
	}

	backend, err := newSocket(zmq4.DEALER)
	if err != nil {
		frontend.Close()
		wrapped := errors.Wrap(err, "loadbalancer: creating DEALER socket")
		ready.Throw(wrapped)
		return wrapped
	}

	if lb.broker() {
		if err := backend.Bind(lb.Backend); err != nil {
			frontend.Close()
			backend.Close()
			wrapped := errors.Wrapf(err, "loadbalancer: binding backend %s", lb.Backend)
			ready.Throw(wrapped)
			return wrapped
		}
	} else {
		for _, addr := range lb.Output {
			if err := backend.Connect(addr); err != nil {
				frontend.Close()
				backend.Close()
				wrapped := errors.Wrapf(err, "loadbalancer: connecting backend to %s", addr)
				ready.Throw(wrapped)
				return wrapped
			}
		}
	}

	ready.Send([2]*zmq4.Socket{frontend, backend})
	defer frontend.Close()
	defer backend.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() {
		done <- zmq4.Proxy(frontend, backend, nil)
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-sigCh:
		return nil
	case err := <-done:
		if isShutdownErr(err) {
			return nil
		}
		return errors.Wrap(err, "loadbalancer: proxy")
	}
}

func isShutdownErr(err error) bool {
	if err == nil {
		return true
	}
	errno, ok := zmq4.AsErrno(err)
	return ok && errno == zmq4.Errno(zmq4.ETERM)
}
