// Package swarm is the parallel scan variant: explorer workers map
// directory trees concurrently while analyzer workers deep-dive the complex
// targets the explorers surface. Items from worker goroutines are batched
// before hitting the output stream to keep contention off the emitter.
package swarm

import (
	"sync"
	"time"

	"github.com/fenilsonani/storage-intel/internal/events"
	"github.com/fenilsonani/storage-intel/internal/model"
)

// FlushInterval is the batching window for item events.
const FlushInterval = 150 * time.Millisecond

// Batcher buffers item events and flushes them as a single batch event.
// Non-item events force the buffer out first so ordering guarantees hold.
type Batcher struct {
	emitter *events.Emitter

	mu        sync.Mutex
	buf       []map[string]any
	lastFlush time.Time
	now       func() time.Time
}

// NewBatcher creates a Batcher over the emitter.
func NewBatcher(em *events.Emitter) *Batcher {
	return &Batcher{emitter: em, now: time.Now}
}

// AddItem queues one item, flushing if the window has elapsed.
func (b *Batcher) AddItem(it model.Item) {
	fields := events.ItemFields(it)
	fields["event"] = events.EventItem
	fields["sizeBytes"] = it.Size
	fields["sizeFormatted"] = it.SizeFormatted
	fields["lastUsed"] = it.LastAccessed

	b.mu.Lock()
	b.buf = append(b.buf, fields)
	due := b.now().Sub(b.lastFlush) >= FlushInterval
	b.mu.Unlock()

	if due {
		b.Flush()
	}
}

// Flush drains the buffer as one batch event. No-op when empty.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if len(b.buf) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buf
	b.buf = nil
	b.lastFlush = b.now()
	b.mu.Unlock()

	b.emitter.Emit(map[string]any{
		"event": events.EventBatch,
		"items": batch,
	})
}

// Emit flushes pending items, then emits a non-item event directly.
func (b *Batcher) Emit(fields map[string]any) {
	b.Flush()
	b.emitter.Emit(fields)
}
