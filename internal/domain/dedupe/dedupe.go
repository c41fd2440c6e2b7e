// Package dedupe tracks contribution IDs so the ingestion path stays
// idempotent: a contribution submitted twice is applied at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen contribution IDs for at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set so it may be submitted
	// again. Used when a recorded contribution could not be enqueued
	// (queue backpressure) and the caller wants the client to retry.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// entry is a single node in the recency list.
type entry struct {
	id   string
	next *entry
}

func (e *entry) reset() {
	e.id = ""
	e.next = nil
}

// inMemoryDeduper keeps seen IDs in a map. With maxSize > 0 a singly
// linked recency list backs eviction of the oldest ID once the map is
// full; with maxSize <= 0 the set grows without bound.
type inMemoryDeduper struct {
	mu      sync.RWMutex
	seen    map[string]*entry // id -> list node, nil values in unbounded mode
	head    *entry            // most recently recorded
	maxSize int
	size    atomic.Int64
	pool    sync.Pool
}

// defaultMaxSize bounds memory for the seen set when no option is given.
const defaultMaxSize = 50000

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*entry)

	if d.maxSize > 0 {
		d.pool = sync.Pool{
			New: func() interface{} {
				return &entry{}
			},
		}
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}

		e := d.pool.Get().(*entry)
		e.id = id
		e.next = d.head

		d.head = e
		d.seen[id] = e
	} else {
		d.seen[id] = nil
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen set.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, exists := d.seen[id]
	if !exists {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)

	if d.maxSize <= 0 {
		return
	}

	if d.head == e {
		d.head = e.next
	} else {
		current := d.head
		for current != nil && current.next != e {
			current = current.next
		}
		if current != nil {
			current.next = e.next
		}
	}

	e.reset()
	d.pool.Put(e)
}

// evictOldest drops the tail of the recency list. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	if len(d.seen) == 0 || d.head == nil {
		return
	}

	if d.head.next == nil {
		delete(d.seen, d.head.id)
		d.head.reset()
		d.pool.Put(d.head)
		d.head = nil
		d.size.Add(-1)
		return
	}

	var prev *entry
	current := d.head
	for current.next != nil {
		prev = current
		current = current.next
	}

	prev.next = nil
	delete(d.seen, current.id)
	current.reset()
	d.pool.Put(current)
	d.size.Add(-1)
}

// Size returns the current number of recorded IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
