package multiserver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"zrpc/callback"
	"zrpc/client"
	"zrpc/codec"
	"zrpc/registry"
)

func TestRunStartsAllWorkersAndServesRequests(t *testing.T) {
	reg := registry.New(nil)
	if err := reg.Register("add", func(a, b int) int { return a + b }); err != nil {
		t.Fatalf("registering handler: %v", err)
	}

	frontend := "inproc://multiserver-test-" + uuid.New().String()
	ms := &MultiServer{
		Frontend: frontend,
		NWorkers: 4,
		Registry: reg,
		Codec:    codec.JSONCodec{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := callback.New()
	done := make(chan error, 1)
	go func() { done <- ms.Run(ctx, ready) }()

	if _, err := ready.Wait(context.Background()); err != nil {
		t.Fatalf("expected multiserver to become ready, got %v", err)
	}

	cl, err := client.New(frontend, nil)
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

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("multiserver did not shut down after context cancellation")
	}
}
