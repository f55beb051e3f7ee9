package queue

import (
	"sync"

	"reload-gateway/internal/core/domain/entity"
)

const (
	DefaultCapacity     = 100
	DefaultHistoryLimit = 1000
)

// Queue is a bounded FIFO of QUEUED transactions. It also remembers the last
// known record of every transaction it has seen so status lookups keep
// working after a transaction leaves the queue.
type Queue struct {
	mu           sync.Mutex
	capacity     int
	historyLimit int
	items        []entity.Transaction
	queued       map[string]struct{}
	history      map[string]entity.Transaction
	terminal     []string
	succeeded    int
	failed       int
}

func New(capacity, historyLimit int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Queue{
		capacity:     capacity,
		historyLimit: historyLimit,
		items:        make([]entity.Transaction, 0, capacity),
		queued:       make(map[string]struct{}, capacity),
		history:      make(map[string]entity.Transaction),
	}
}

// Enqueue appends a copy of tx to the tail. It refuses nil, non-QUEUED and
// already queued transactions, any transaction once capacity is reached, and
// a transaction whose reference already belongs to another record.
func (q *Queue) Enqueue(tx *entity.Transaction) bool {
	if tx == nil || tx.Status != entity.StatusQueued {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return false
	}
	if _, dup := q.queued[tx.Reference]; dup {
		return false
	}
	if prev, seen := q.history[tx.Reference]; seen && !isRetryOf(prev, *tx) {
		return false
	}

	q.items = append(q.items, *tx)
	q.queued[tx.Reference] = struct{}{}
	q.trackLocked(*tx)
	return true
}

func (q *Queue) DequeueNext() (entity.Transaction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return entity.Transaction{}, false
	}
	head := q.items[0]
	q.items[0] = entity.Transaction{}
	q.items = q.items[1:]
	delete(q.queued, head.Reference)
	return head, true
}

func (q *Queue) PeekNext() (entity.Transaction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return entity.Transaction{}, false
	}
	return q.items[0], true
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Capacity() int {
	return q.capacity
}

func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *Queue) IsFull() bool {
	return q.Size() >= q.capacity
}

func (q *Queue) Snapshot() []entity.Transaction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]entity.Transaction, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) RecordSuccess() {
	q.mu.Lock()
	q.succeeded++
	q.mu.Unlock()
}

func (q *Queue) RecordFailure() {
	q.mu.Lock()
	q.failed++
	q.mu.Unlock()
}

func (q *Queue) Stats() entity.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return entity.QueueStats{
		QueueSize:      len(q.items),
		Capacity:       q.capacity,
		TotalSucceeded: q.succeeded,
		TotalFailed:    q.failed,
	}
}

// Track stores tx as the latest known record for its reference.
func (q *Queue) Track(tx entity.Transaction) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.trackLocked(tx)
}

func (q *Queue) Lookup(reference string) (entity.Transaction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tx, ok := q.history[reference]
	return tx, ok
}

func (q *Queue) trackLocked(tx entity.Transaction) {
	prev, seen := q.history[tx.Reference]
	q.history[tx.Reference] = tx

	if tx.IsTerminal() && (!seen || !prev.IsTerminal()) {
		q.terminal = append(q.terminal, tx.Reference)
	}

	// Only terminal records are evicted, oldest first.
	for len(q.history) > q.historyLimit && len(q.terminal) > 0 {
		oldest := q.terminal[0]
		q.terminal = q.terminal[1:]
		delete(q.history, oldest)
	}
}

// isRetryOf reports whether next is prev coming back for another attempt:
// the worker requeues while history still shows the attempt in flight.
func isRetryOf(prev, next entity.Transaction) bool {
	return prev.Status == entity.StatusProcessing && prev.CreatedAt.Equal(next.CreatedAt)
}
