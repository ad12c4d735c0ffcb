package zrpc_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"zrpc/callback"
	"zrpc/client"
	"zrpc/codec"
	"zrpc/loadbalancer"
	"zrpc/multiserver"
	"zrpc/pool"
	"zrpc/registry"
	"zrpc/server"
)

// TestProxyTopologyRoutesClientToWorker exercises the "proxy" topology: a
// LoadBalancer whose frontend binds for clients and whose backend connects
// out to a single statically addressed worker that itself binds.
func TestProxyTopologyRoutesClientToWorker(t *testing.T) {
	reg := registry.New(nil)
	if err := reg.Register("add", func(a, b int) int { return a + b }); err != nil {
		t.Fatalf("registering handler: %v", err)
	}

	workerAddr := "inproc://proxy-worker-" + uuid.New().String()
	frontendAddr := "inproc://proxy-frontend-" + uuid.New().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &server.Server{Addr: workerAddr, Registry: reg, Codec: codec.JSONCodec{}}
	srvReady := callback.New()
	go srv.Run(ctx, 0, srvReady)
	if _, err := srvReady.Wait(context.Background()); err != nil {
		t.Fatalf("worker failed to start: %v", err)
	}

	lb := &loadbalancer.LoadBalancer{Frontend: frontendAddr, Output: []string{workerAddr}}
	lbReady := callback.New()
	go lb.Run(ctx, lbReady)
	if _, err := lbReady.Wait(context.Background()); err != nil {
		t.Fatalf("load balancer failed to start: %v", err)
	}

	cl, err := client.New(frontendAddr, nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	defer cl.Close()
	cl.Codec = codec.JSONCodec{}

	result, err := cl.Call("add", 2, 3)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got := int(result.(float64)); got != 5 {
		t.Fatalf("expected 5, got %v", result)
	}
}

// TestBrokerMultiServerHandlesConcurrentClients exercises scenario 6:
// a broker-topology MultiServer with several workers, hit by several
// concurrent clients.
func TestBrokerMultiServerHandlesConcurrentClients(t *testing.T) {
	reg := registry.New(nil)
	if err := reg.Register("math.add", func(a, b int) int { return a + b }); err != nil {
		t.Fatalf("registering handler: %v", err)
	}

	frontend := "inproc://broker-frontend-" + uuid.New().String()
	ms := &multiserver.MultiServer{
		Frontend: frontend,
		NWorkers: 4,
		Registry: reg,
		Codec:    codec.JSONCodec{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := callback.New()
	go ms.Run(ctx, ready)
	if _, err := ready.Wait(context.Background()); err != nil {
		t.Fatalf("multiserver failed to start: %v", err)
	}

	const nClients = 4
	var wg sync.WaitGroup
	errs := make(chan error, nClients)
	for i := 0; i < nClients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cl, err := client.New(frontend, nil)
			if err != nil {
				errs <- err
				return
			}
			defer cl.Close()
			cl.Codec = codec.JSONCodec{}

			result, err := cl.N("math").N("add").Invoke(i, 10)
			if err != nil {
				errs <- err
				return
			}
			if got := int(result.(float64)); got != i+10 {
				errs <- fmt.Errorf("expected %d, got %v", i+10, result)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent client failed: %v", err)
		}
	}
}

// TestPoolBoundsConcurrentClients exercises the ObjectPool/Client
// concurrency property: K pooled clients serving more than K concurrent
// callers, with a would-block failure observable at the bound.
func TestPoolBoundsConcurrentClients(t *testing.T) {
	reg := registry.New(nil)
	if err := reg.Register("echo", func(s string) string { return s }); err != nil {
		t.Fatalf("registering handler: %v", err)
	}

	addr := "inproc://pool-worker-" + uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &server.Server{Addr: addr, Registry: reg, Codec: codec.JSONCodec{}}
	srvReady := callback.New()
	go srv.Run(ctx, 0, srvReady)
	if _, err := srvReady.Wait(context.Background()); err != nil {
		t.Fatalf("worker failed to start: %v", err)
	}

	const k = 2
	p := pool.New(k, func() (any, error) {
		return client.New(addr, nil)
	}, func(obj any) {
		obj.(*client.Client).Close()
	})
	defer p.Close()

	h1, err := p.Get(context.Background(), true)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	h2, err := p.Get(context.Background(), true)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := p.Get(context.Background(), false); err != pool.ErrWouldBlock {
		t.Fatalf("expected ErrWouldBlock once the pool is exhausted, got %v", err)
	}
	h1.Release()
	h2.Release()

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := p.Get(context.Background(), true)
			if err != nil {
				errs <- err
				return
			}
			defer h.Release()

			cl := h.Object.(*client.Client)
			cl.Codec = codec.JSONCodec{}
			result, err := cl.Call("echo", "hello")
			if err != nil {
				errs <- err
				return
			}
			if result.(string) != "hello" {
				errs <- fmt.Errorf("expected %q, got %v", "hello", result)
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent pooled calls did not complete in time")
	}
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("pooled client call failed: %v", err)
		}
	}
}
