// Package multiserver composes a broker-topology LoadBalancer with N
// Servers behind a shared inproc address, giving callers a single fixed
// frontend address backed by a pool of worker goroutines — spec.md §4.5's
// 5-step startup protocol: allocate address, spawn balancer, spawn workers,
// wait for all of them, signal composed ready.
//
// Grounded in the teacher's server package's bind/connect split (reused
// here for the inner Servers, which all Connect to the balancer's backend)
// and in cowsql-go-cowsql's App, whose startup uses a weighted semaphore to
// bound and await a set of concurrently starting components.
package multiserver

import (
	"context"

	"github.com/google/uuid"
	"github.com/pebbe/zmq4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"zrpc/callback"
	"zrpc/codec"
	"zrpc/loadbalancer"
	"zrpc/registry"
	"zrpc/server"
	"zrpc/zrpclog"
)

// MultiServer is a fixed public Frontend address backed by NWorkers
// goroutines dispatching through the same Registry, fanned out via an
// internal broker LoadBalancer.
type MultiServer struct {
	Frontend string
	NWorkers int
	Registry *registry.Registry
	Codec    codec.Codec
	Logger   zrpclog.Logger
	Hooks    []server.Hook
	Context  *zmq4.Context // shared transport context; nil uses the package-level default
}

// Run starts the internal LoadBalancer and NWorkers Servers, waits for all
// of them to be ready, then signals ready with the workers' sockets.
// Run blocks until ctx is cancelled or a fatal error occurs in any
// component, in which case it cancels the rest and returns the first error.
func (m *MultiServer) Run(ctx context.Context, ready callback.Waiter) error {
	zctx := m.Context

	backend := "inproc://" + uuid.New().String()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lb := &loadbalancer.LoadBalancer{
		Frontend: m.Frontend,
		Backend:  backend,
		Context:  zctx,
	}
	lbReady := callback.New()
	errCh := make(chan error, 1+m.NWorkers)
	go func() { errCh <- lb.Run(runCtx, lbReady) }()

	if _, err := lbReady.Wait(ctx); err != nil {
		cancel()
		wrapped := errors.Wrap(err, "multiserver: starting load balancer")
		ready.Throw(wrapped)
		return wrapped
	}

	sem := semaphore.NewWeighted(int64(m.NWorkers))
	if err := sem.Acquire(ctx, int64(m.NWorkers)); err != nil {
		cancel()
		wrapped := errors.Wrap(err, "multiserver: acquiring worker-startup semaphore")
		ready.Throw(wrapped)
		return wrapped
	}

	startupErrs := make(chan error, m.NWorkers)
	workerSockets := make(chan *zmq4.Socket, m.NWorkers)
	for i := 0; i < m.NWorkers; i++ {
		srv := &server.Server{
			Addr:     backend,
			Registry: m.Registry,
			Connect:  true,
			Context:  zctx,
			Codec:    m.Codec,
			Logger:   m.Logger,
			Hooks:    m.Hooks,
		}
		workerReady := callback.New()
		go func() { errCh <- srv.Run(runCtx, 0, workerReady) }()

		go func() {
			defer sem.Release(1)
			v, err := workerReady.Wait(ctx)
			if err != nil {
				startupErrs <- err
				return
			}
			if socket, ok := v.(*zmq4.Socket); ok {
				workerSockets <- socket
			}
		}()
	}

	if err := sem.Acquire(ctx, int64(m.NWorkers)); err != nil {
		cancel()
		wrapped := errors.Wrap(err, "multiserver: waiting for workers to become ready")
		ready.Throw(wrapped)
		return wrapped
	}
	select {
	case err := <-startupErrs:
		cancel()
		wrapped := errors.Wrap(err, "multiserver: a worker failed to start")
		ready.Throw(wrapped)
		return wrapped
	default:
	}

	sockets := make([]*zmq4.Socket, 0, m.NWorkers)
	for len(workerSockets) > 0 {
		sockets = append(sockets, <-workerSockets)
	}
	ready.Send(sockets)

	select {
	case <-ctx.Done():
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	}
}
