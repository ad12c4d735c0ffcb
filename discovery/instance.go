// Package discovery is the optional, etcd-backed address-announcement
// layer spec.md §6 allows clients to use instead of a fixed address: a
// Server or MultiServer announces its public address under a TTL lease so
// that it disappears automatically on crash, and a client-side Picker
// chooses among the currently announced instances.
//
// This is distinct from (and named apart from) the procedure-dispatch
// registry package: the teacher calls this concern "registry" too, but
// spec.md's Registry means the method-name-to-handler table, so the
// service-instance concern gets its own package here.
//
// Grounded in the teacher's registry/etcd_registry.go (lease-based
// registration, prefix Discover/Watch) and loadbalance/*.go (Picker
// strategies), retargeted from registry.ServiceInstance to discovery.Instance.
package discovery

// Instance is one announced, reachable address for a service.
type Instance struct {
	Addr    string
	Weight  int
	Version string
}
