package discovery

import (
	"fmt"
	"testing"
)

var testInstances = []Instance{
	{Addr: ":8001", Weight: 10, Version: "1.0"},
	{Addr: ":8002", Weight: 5, Version: "1.0"},
	{Addr: ":8003", Weight: 10, Version: "1.0"},
}

func TestRoundRobinCyclesAndWraps(t *testing.T) {
	p := &RoundRobin{}

	results := make([]string, 3)
	for i := 0; i < 3; i++ {
		inst, err := p.Pick(testInstances)
		if err != nil {
			t.Fatal(err)
		}
		results[i] = inst.Addr
	}

	inst, _ := p.Pick(testInstances)
	if inst.Addr != results[0] {
		t.Fatalf("expected wrap around to %s, got %s", results[0], inst.Addr)
	}
}

func TestRoundRobinEmptyErrors(t *testing.T) {
	p := &RoundRobin{}
	if _, err := p.Pick(nil); err == nil {
		t.Fatal("expected error for empty instance list")
	}
}

func TestWeightedRandomRatio(t *testing.T) {
	p := WeightedRandom{}

	counts := map[string]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		inst, err := p.Pick(testInstances)
		if err != nil {
			t.Fatal(err)
		}
		counts[inst.Addr]++
	}

	ratio := float64(counts[":8001"]) / float64(counts[":8002"])
	if ratio < 1.5 || ratio > 2.5 {
		t.Fatalf("weight ratio :8001/:8002 = %.2f, expected ~2.0", ratio)
	}
}

func TestConsistentHashStableAndSpread(t *testing.T) {
	h := NewConsistentHash(100)
	for i := range testInstances {
		h.Add(&testInstances[i])
	}

	inst1, err := h.PickFor("user-123")
	if err != nil {
		t.Fatal(err)
	}
	inst2, err := h.PickFor("user-123")
	if err != nil {
		t.Fatal(err)
	}
	if inst1.Addr != inst2.Addr {
		t.Fatalf("same key mapped to different instances: %s vs %s", inst1.Addr, inst2.Addr)
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		inst, err := h.PickFor(fmt.Sprintf("key-%d", i))
		if err != nil {
			t.Fatal(err)
		}
		seen[inst.Addr] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected at least 2 different instances, got %d", len(seen))
	}
}

func TestConsistentHashEmptyRingErrors(t *testing.T) {
	h := NewConsistentHash(10)
	if _, err := h.PickFor("anything"); err == nil {
		t.Fatal("expected error for empty ring")
	}
}
