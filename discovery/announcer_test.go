package discovery

import (
	"context"
	"testing"
	"time"
)

// Exercises Announcer against a local etcd instance, mirroring the
// teacher's registry.EtcdRegistry test — requires etcd reachable at
// localhost:2379.
func TestAnnounceAndDiscover(t *testing.T) {
	a, err := NewAnnouncer([]string{"localhost:2379"})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inst1 := Instance{Addr: "127.0.0.1:9001", Weight: 10, Version: "1.0"}
	inst2 := Instance{Addr: "127.0.0.1:9002", Weight: 5, Version: "1.0"}

	if err := a.Announce(ctx, "arith", inst1, 10); err != nil {
		t.Fatal(err)
	}
	if err := a.Announce(ctx, "arith", inst2, 10); err != nil {
		t.Fatal(err)
	}

	instances, err := a.Discover(ctx, "arith")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}

	if err := a.Withdraw(ctx, "arith", inst1.Addr); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	instances, err = a.Discover(ctx, "arith")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 || instances[0].Addr != inst2.Addr {
		t.Fatalf("expected only %s to remain, got %v", inst2.Addr, instances)
	}

	a.Withdraw(ctx, "arith", inst2.Addr)
}
