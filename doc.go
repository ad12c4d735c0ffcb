// Package zrpc is a small RPC framework over ZeroMQ REQ/REP and
// ROUTER/DEALER sockets: a Server dispatches decoded requests through a
// Registry of named handlers, a LoadBalancer fans requests from many
// clients out to many workers via the transport's fair-queue proxy device,
// and a Client reconstructs server-side errors on the caller side.
//
// See the envelope, codec, registry, server, loadbalancer, multiserver,
// callback, pool, client, discovery, and hooks packages for the individual
// components; SPEC_FULL.md and DESIGN.md describe how they fit together.
package zrpc
