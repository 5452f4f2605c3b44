// Package dedupe tracks idempotency keys so a retried badge submission is
// recorded at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Defaults for NewInMemoryDeduper.
const (
	DefaultMaxSize = 10000
	DefaultTTL     = 24 * time.Hour
)

// Deduper records seen idempotency keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so the request can be retried, e.g. after the
	// append it guarded failed.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key string
	at  time.Time
}

// inMemoryDeduper keeps keys in insertion order. The oldest key is evicted
// when the bound is hit, and keys older than ttl are dropped on access.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is oldest
	maxSize int        // <= 0 means unbounded
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: DefaultMaxSize,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.expire(now)
	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.remove(d.order.Front())
	}
	d.seen[key] = d.order.PushBack(entry{key: key, at: now})
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.seen[key]; ok {
		d.remove(el)
	}
}

// Size returns the number of keys currently held.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// expire drops keys recorded ttl or longer ago. Caller holds d.mu.
func (d *inMemoryDeduper) expire(now time.Time) {
	if d.ttl <= 0 {
		return
	}
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if now.Sub(el.Value.(entry).at) < d.ttl {
			return
		}
		d.remove(el)
	}
}

// remove deletes el from both indexes. Caller holds d.mu.
func (d *inMemoryDeduper) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(d.seen, el.Value.(entry).key)
	d.order.Remove(el)
}
