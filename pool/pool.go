// Package pool implements a bounded, reusable-object pool for client-side
// connection reuse: a factory function, a free list, and a bounding
// semaphore.
//
// Grounded in the teacher's transport/pool.go (ConnPool/PoolConn:
// channel-backed free list plus a factory function), generalized from
// net.Conn specifically to any factory-built object, and given an explicit
// non-blocking mode — spec.md §4.7 requires a distinguishable would-block
// failure the teacher's pool doesn't have.
package pool

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// ErrWouldBlock is returned by Get(ctx, false) when acquiring capacity or
// the internal lock would block.
var ErrWouldBlock = errors.New("pool: would block")

// Pool bounds concurrent checkouts of objects built by a factory function.
// The free list never grows beyond maxsize; an object checked out is never
// simultaneously in the free list.
type Pool struct {
	factory func() (any, error)
	close   func(any)
	sem     *semaphore.Weighted // nil means unbounded

	mu   sync.Mutex
	free []any
}

// New returns a Pool whose factory builds new objects on demand and whose
// close (optional) is called when an object is discarded. maxsize <= 0
// means unbounded.
func New(maxsize int, factory func() (any, error), close func(any)) *Pool {
	p := &Pool{factory: factory, close: close}
	if maxsize > 0 {
		p.sem = semaphore.NewWeighted(int64(maxsize))
	}
	return p
}

// Handle is a scoped checkout; Release returns the object to the free list
// and frees its capacity slot.
type Handle struct {
	pool   *Pool
	Object any
	broken bool
}

// Release returns the handle's object to the pool. Call Discard first if
// the object is no longer usable (e.g. its connection broke).
func (h *Handle) Release() {
	if h.broken {
		h.pool.discard(h.Object)
		return
	}
	h.pool.mu.Lock()
	h.pool.free = append(h.pool.free, h.Object)
	h.pool.mu.Unlock()
	if h.pool.sem != nil {
		h.pool.sem.Release(1)
	}
}

// Discard marks the handle's object as unusable; Release will drop it
// instead of returning it to the free list.
func (h *Handle) Discard() {
	h.broken = true
}

func (p *Pool) discard(obj any) {
	if p.close != nil {
		p.close(obj)
	}
	if p.sem != nil {
		p.sem.Release(1)
	}
}

// Get acquires capacity then the internal lock; if the free list is
// non-empty it pops an object, otherwise it builds one via the factory. In
// blocking mode (the default), Get waits for capacity; in non-blocking
// mode, it fails fast with ErrWouldBlock if capacity or the lock would
// block.
func (p *Pool) Get(ctx context.Context, blocking bool) (*Handle, error) {
	if p.sem != nil {
		if blocking {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return nil, errors.Wrap(err, "pool: acquiring capacity")
			}
		} else if !p.sem.TryAcquire(1) {
			return nil, ErrWouldBlock
		}
	}

	obj, err := p.take(blocking)
	if err != nil {
		if p.sem != nil {
			p.sem.Release(1)
		}
		return nil, err
	}
	return &Handle{pool: p, Object: obj}, nil
}

func (p *Pool) take(blocking bool) (any, error) {
	if blocking {
		p.mu.Lock()
	} else if !p.mu.TryLock() {
		return nil, ErrWouldBlock
	}
	if n := len(p.free); n > 0 {
		obj := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return obj, nil
	}
	p.mu.Unlock()
	return p.factory()
}

// Close discards every free object, calling p.close on each if set.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.close != nil {
		for _, obj := range p.free {
			p.close(obj)
		}
	}
	p.free = nil
}
