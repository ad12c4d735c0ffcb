package discovery

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Announcer registers and discovers service instances in etcd under
// /zrpc/<serviceName>/<addr>, using TTL leases so a crashed instance is
// automatically forgotten instead of lingering as a ghost entry.
//
// Grounded in the teacher's registry.EtcdRegistry; renamed from "registry"
// to avoid colliding with this module's procedure-dispatch Registry.
type Announcer struct {
	client *clientv3.Client
}

// NewAnnouncer connects to the given etcd endpoints.
func NewAnnouncer(endpoints []string) (*Announcer, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, errors.Wrap(err, "discovery: connecting to etcd")
	}
	return &Announcer{client: c}, nil
}

func keyFor(serviceName, addr string) string {
	return "/zrpc/" + serviceName + "/" + addr
}

// Announce registers instance under serviceName with a ttl-second lease,
// and starts a background keepalive that renews it until ctx is cancelled.
func (a *Announcer) Announce(ctx context.Context, serviceName string, instance Instance, ttl int64) error {
	lease, err := a.client.Grant(ctx, ttl)
	if err != nil {
		return errors.Wrap(err, "discovery: granting lease")
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return errors.Wrap(err, "discovery: encoding instance")
	}

	if _, err := a.client.Put(ctx, keyFor(serviceName, instance.Addr), string(val), clientv3.WithLease(lease.ID)); err != nil {
		return errors.Wrap(err, "discovery: registering instance")
	}

	keepAlive, err := a.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return errors.Wrap(err, "discovery: starting keepalive")
	}
	go func() {
		for range keepAlive {
		}
	}()
	return nil
}

// Withdraw removes a previously-announced instance, e.g. during graceful
// shutdown before the socket closes.
func (a *Announcer) Withdraw(ctx context.Context, serviceName, addr string) error {
	_, err := a.client.Delete(ctx, keyFor(serviceName, addr))
	return errors.Wrap(err, "discovery: withdrawing instance")
}

// Discover returns every instance currently announced for serviceName.
func (a *Announcer) Discover(ctx context.Context, serviceName string) ([]Instance, error) {
	resp, err := a.client.Get(ctx, "/zrpc/"+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "discovery: querying instances")
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance Instance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Watch emits the full, refreshed instance list for serviceName whenever
// etcd reports a change under its prefix (new announcement, withdrawal, or
// lease expiry). The returned channel is closed when ctx is cancelled.
func (a *Announcer) Watch(ctx context.Context, serviceName string) <-chan []Instance {
	out := make(chan []Instance, 1)
	prefix := "/zrpc/" + serviceName + "/"

	go func() {
		defer close(out)
		watchCh := a.client.Watch(ctx, prefix, clientv3.WithPrefix())
		for range watchCh {
			instances, err := a.Discover(ctx, serviceName)
			if err != nil {
				continue
			}
			select {
			case out <- instances:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Close releases the underlying etcd client.
func (a *Announcer) Close() error {
	return a.client.Close()
}
