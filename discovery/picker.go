package discovery

import (
	"fmt"
	"hash/crc32"
	"math/rand"
	"sort"
	"sync/atomic"
)

// Picker selects one instance from a set of currently announced instances.
// Implementations must be goroutine-safe: a client may call Pick before
// every outgoing Call.
//
// Grounded in the teacher's loadbalance.Balancer, retargeted from
// registry.ServiceInstance to discovery.Instance.
type Picker interface {
	Pick(instances []Instance) (*Instance, error)
	Name() string
}

// RoundRobin cycles through instances in order, using an atomic counter for
// lock-free, goroutine-safe selection. Best for stateless, equal-capacity
// instances.
type RoundRobin struct {
	counter int64
}

func (p *RoundRobin) Pick(instances []Instance) (*Instance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("discovery: no instances available")
	}
	idx := atomic.AddInt64(&p.counter, 1) % int64(len(instances))
	return &instances[idx], nil
}

func (p *RoundRobin) Name() string { return "RoundRobin" }

// WeightedRandom picks probabilistically in proportion to each instance's
// Weight. Best for heterogeneous instances.
type WeightedRandom struct{}

func (WeightedRandom) Pick(instances []Instance) (*Instance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("discovery: no instances available")
	}

	total := 0
	for _, inst := range instances {
		total += inst.Weight
	}
	if total <= 0 {
		return &instances[rand.Intn(len(instances))], nil
	}

	r := rand.Intn(total)
	for i := range instances {
		r -= instances[i].Weight
		if r < 0 {
			return &instances[i], nil
		}
	}
	return nil, fmt.Errorf("discovery: unexpected error in weighted selection")
}

func (WeightedRandom) Name() string { return "WeightedRandom" }

// ConsistentHash maps keys to instances on a hash ring with virtual nodes,
// so the same key maps to the same instance while the ring is unchanged and
// adding an instance moves only the keys that land on its virtual nodes —
// cache affinity for stateful services. Unlike RoundRobin/WeightedRandom, it
// picks by an explicit key rather than round-robin state, so it does not
// implement Picker; callers that need key affinity use PickFor directly.
type ConsistentHash struct {
	replicas int
	ring     []uint32
	nodes    map[uint32]*Instance
}

// NewConsistentHash builds an empty ring with the given number of virtual
// nodes per real instance (100 is a reasonable default).
func NewConsistentHash(replicas int) *ConsistentHash {
	if replicas <= 0 {
		replicas = 100
	}
	return &ConsistentHash{
		replicas: replicas,
		nodes:    make(map[uint32]*Instance),
	}
}

// Add places instance onto the ring with its virtual nodes.
func (h *ConsistentHash) Add(instance *Instance) {
	for i := 0; i < h.replicas; i++ {
		key := fmt.Sprintf("%s#%d", instance.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		h.ring = append(h.ring, hash)
		h.nodes[hash] = instance
	}
	sort.Slice(h.ring, func(i, j int) bool { return h.ring[i] < h.ring[j] })
}

// PickFor returns the instance responsible for key: the first ring node at
// or after hash(key), wrapping around to the first node.
func (h *ConsistentHash) PickFor(key string) (*Instance, error) {
	if len(h.ring) == 0 {
		return nil, fmt.Errorf("discovery: consistent hash ring is empty")
	}
	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(h.ring), func(i int) bool { return h.ring[i] >= hash })
	if idx == len(h.ring) {
		idx = 0
	}
	return h.nodes[h.ring[idx]], nil
}

func (h *ConsistentHash) Name() string { return "ConsistentHash" }

var (
	_ Picker = (*RoundRobin)(nil)
	_ Picker = WeightedRandom{}
)
