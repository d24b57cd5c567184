// Package keylock provides context-aware mutual exclusion keyed by string.
package keylock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// Registry hands out one lock per key. Entries are dropped once no caller
// holds or waits for them.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{locks: make(map[string]*entry)}
}

// Default is the process-wide registry.
var Default = New()

// Lock blocks until key is free or ctx is done. The returned unlock must be
// called exactly once.
func (r *Registry) Lock(ctx context.Context, key string) (unlock func(), err error) {
	r.mu.Lock()
	e, ok := r.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		r.locks[key] = e
	}
	e.refs++
	r.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		r.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			r.release(key, e)
		})
	}, nil
}

func (r *Registry) release(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(r.locks, key)
	}
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
