package loader

import (
	"context"
	"sync"
	"sync/atomic"
)

// Barrier opens once a fixed number of loads have completed, whatever their
// outcome. Callbacks registered with OnOpen run exactly once.
type Barrier struct {
	pending atomic.Int64
	total   int

	mu        sync.Mutex
	open      bool
	done      chan struct{}
	callbacks []func()
}

// NewBarrier creates a barrier waiting for n completions. A barrier with
// nothing to wait for is open from the start.
func NewBarrier(n int) *Barrier {
	b := &Barrier{total: n, done: make(chan struct{})}
	b.pending.Store(int64(n))
	if n <= 0 {
		b.release()
	}
	return b
}

// Done records one completion. Extra calls after the barrier opened are ignored.
func (b *Barrier) Done() {
	if b.pending.Add(-1) == 0 {
		b.release()
	}
}

// OnOpen queues fn to run when the barrier opens, or runs it at once when it
// already is.
func (b *Barrier) OnOpen(fn func()) {
	b.mu.Lock()
	if !b.open {
		b.callbacks = append(b.callbacks, fn)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	fn()
}

// IsOpen reports whether every load has completed.
func (b *Barrier) IsOpen() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Opened is closed when the barrier opens.
func (b *Barrier) Opened() <-chan struct{} {
	return b.done
}

// Wait blocks until the barrier opens or ctx ends.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Remaining is the number of loads still outstanding.
func (b *Barrier) Remaining() int {
	if n := b.pending.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// Total is the number of loads the barrier waits for.
func (b *Barrier) Total() int {
	return b.total
}

func (b *Barrier) release() {
	b.mu.Lock()
	if b.open {
		b.mu.Unlock()
		return
	}
	b.open = true
	callbacks := b.callbacks
	b.callbacks = nil
	close(b.done)
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
