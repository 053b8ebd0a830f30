package state

import (
	"context"
	"sync"
	"sync/atomic"
)

// Readiness signals whether the device currently holds a network address.
// It is written by the connectivity machine and read from any goroutine.
type Readiness struct {
	ready atomic.Bool

	mu sync.Mutex
	ch chan struct{} // closed while ready
}

func NewReadiness() *Readiness {
	return &Readiness{ch: make(chan struct{})}
}

func (r *Readiness) Set() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready.Load() {
		return
	}
	r.ready.Store(true)
	close(r.ch)
}

func (r *Readiness) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready.Load() {
		return
	}
	r.ready.Store(false)
	r.ch = make(chan struct{})
}

func (r *Readiness) IsReady() bool {
	return r.ready.Load()
}

// Wait blocks until ready or ctx is done.
func (r *Readiness) Wait(ctx context.Context) error {
	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
