// Package buffer implements the write buffer between HTTP ingest and the
// database writer: a bounded FIFO that drops the oldest element on overflow
// instead of blocking the producer.
//
// Grounded structurally on mercator-hq-jupiter's pkg/evidence/recorder
// (non-blocking producer, a done-channel drain loop for shutdown) but a
// Go channel cannot serve as the underlying queue here: a buffered channel
// full at capacity can only block the sender or drop the value being sent
// (the newest), never evict the value already queued at the head (the
// oldest). Spec §4.2 requires drop-oldest, so the queue is a slice guarded
// by a mutex and condition variable instead.
package buffer

import (
	"sync"

	"hikari/internal/modules/collector/entity"
)

// Buffer is a bounded FIFO of accepted span records. Safe for concurrent use
// by many producers and exactly one consumer, per spec §4.2/§5.
type Buffer struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []entity.Span
	capacity int
	overflow uint64
	closed   bool
}

// New creates a Buffer with the given capacity. capacity must be >= 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	b := &Buffer{
		items:    make([]entity.Span, 0, capacity),
		capacity: capacity,
	}
	b.notEmpty = sync.NewCond(&b.mu)
	return b
}

// Enqueue appends spans to the tail of the buffer in the order given,
// preserving payload order within a single ingestion request (spec §5).
// Never blocks: if the buffer is at capacity, the oldest element is
// discarded and the overflow counter is incremented, once per dropped
// element.
func (b *Buffer) Enqueue(spans ...entity.Span) {
	if len(spans) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range spans {
		if len(b.items) >= b.capacity {
			b.items = b.items[1:]
			b.overflow++
		}
		b.items = append(b.items, s)
	}
	b.notEmpty.Signal()
}

// EnqueueFront re-inserts a batch at the head of the buffer, used by the
// writer to retry a transiently-failed batch without losing its place in
// line (the "head" choice from the Open Questions in SPEC_FULL.md §5).
// Overflow follows the same drop-oldest policy as Enqueue: capacity is
// counted from the tail, so when the re-inserted batch plus the buffered
// records exceed it, entries are dropped from the head (the re-inserted
// batch first) and counted in the overflow counter.
func (b *Buffer) EnqueueFront(spans []entity.Span) {
	if len(spans) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	combined := make([]entity.Span, 0, len(spans)+len(b.items))
	combined = append(combined, spans...)
	combined = append(combined, b.items...)

	if len(combined) > b.capacity {
		dropped := len(combined) - b.capacity
		b.overflow += uint64(dropped)
		combined = combined[dropped:]
	}
	b.items = combined
	b.notEmpty.Signal()
}

// Drain removes and returns up to max spans from the head of the buffer,
// blocking until at least one is available or the buffer is closed.
// Returns ok=false only once the buffer has been closed and fully drained.
func (b *Buffer) Drain(max int) (spans []entity.Span, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.items) == 0 && !b.closed {
		b.notEmpty.Wait()
	}

	if len(b.items) == 0 && b.closed {
		return nil, false
	}

	n := max
	if n > len(b.items) {
		n = len(b.items)
	}

	spans = make([]entity.Span, n)
	copy(spans, b.items[:n])
	b.items = b.items[n:]
	return spans, true
}

// Close signals shutdown: any goroutine blocked in Drain wakes and returns
// ok=false once the buffer has no more items, per spec §4.3's bounded drain
// on graceful shutdown.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.notEmpty.Broadcast()
}

// Len returns the current depth of the buffer.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Usage reports the current depth as a fraction of capacity, in [0.0, 1.0],
// for the §6 health endpoint.
func (b *Buffer) Usage() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(len(b.items)) / float64(b.capacity)
}

// Overflow returns the cumulative count of elements dropped due to
// capacity pressure.
func (b *Buffer) Overflow() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflow
}
