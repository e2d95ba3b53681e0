package resolver

import (
	"context"
	"sync"
)

// flightGroup deduplicates concurrent work per key. Unlike a plain
// singleflight it tracks subscribed waiters: the leader runs on a context
// detached from any one caller, and is canceled only when the last waiter
// abandons the flight. A slot is released the moment its result
// materializes, so a subsequent call starts a fresh flight.
type flightGroup[V any] struct {
	mu      sync.Mutex
	flights map[string]*flight[V]
}

type flight[V any] struct {
	waiters int
	settled bool
	cancel  context.CancelFunc
	done    chan struct{}
	val     V
	err     error
}

func newFlightGroup[V any]() *flightGroup[V] {
	return &flightGroup[V]{flights: map[string]*flight[V]{}}
}

// Do subscribes to the flight for key, starting it with fn when absent.
// fn receives the leader context; it must not publish results after that
// context is canceled. When ctx ends before the flight settles, Do returns
// ctx.Err() and unsubscribes; the flight keeps running for the remaining
// waiters.
func (g *flightGroup[V]) Do(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	g.mu.Lock()
	f, ok := g.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight[V]{done: make(chan struct{}), cancel: cancel}
		g.flights[key] = f
		go g.lead(key, f, fctx, fn)
	}
	f.waiters++
	g.mu.Unlock()

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		g.unsubscribe(key, f)
		var zero V
		return zero, ctx.Err()
	}
}

func (g *flightGroup[V]) lead(key string, f *flight[V], fctx context.Context, fn func(context.Context) (V, error)) {
	val, err := fn(fctx)

	g.mu.Lock()
	f.settled = true
	if g.flights[key] == f {
		delete(g.flights, key)
	}
	g.mu.Unlock()

	f.val, f.err = val, err
	close(f.done)
	f.cancel()
}

func (g *flightGroup[V]) unsubscribe(key string, f *flight[V]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f.waiters--
	if f.waiters == 0 && !f.settled {
		// nobody left to consume the result; vacate the slot so a later
		// caller is not chained to the canceled leader
		f.cancel()
		if g.flights[key] == f {
			delete(g.flights, key)
		}
	}
}
