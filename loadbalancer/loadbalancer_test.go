package loadbalancer

import (
	"context"
	"testing"
	"time"

	"zrpc/callback"
)

func TestRunProxyTopologySignalsReady(t *testing.T) {
	lb := &LoadBalancer{
		Frontend: "inproc://lb-test-frontend",
		Output:   nil,
	}
	ctx, cancel := context.WithCancel(context.Background())
	ready := callback.New()

	done := make(chan error, 1)
	go func() { done <- lb.Run(ctx, ready) }()

	if _, err := ready.Wait(context.Background()); err != nil {
		t.Fatalf("expected ready to fire without error, got %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected graceful shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loadbalancer did not shut down after context cancellation")
	}
}

func TestRunBrokerTopologyBindsBothSockets(t *testing.T) {
	lb := &LoadBalancer{
		Frontend: "inproc://lb-test-broker-frontend",
		Backend:  "inproc://lb-test-broker-backend",
	}
	ctx, cancel := context.WithCancel(context.Background())
	ready := callback.New()

	done := make(chan error, 1)
	go func() { done <- lb.Run(ctx, ready) }()

	if _, err := ready.Wait(context.Background()); err != nil {
		t.Fatalf("expected ready to fire without error, got %v", err)
	}
	if !lb.broker() {
		t.Fatal("expected broker() to report true when Backend is set")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected graceful shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loadbalancer did not shut down after context cancellation")
	}
}
