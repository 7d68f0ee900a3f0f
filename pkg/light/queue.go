package light

import (
	"sync"

	"github.com/edgelight/edgelight-go/pkg/wire"
)

// request is one command for one endpoint.
type request struct {
	index int
	cmd   wire.Command
}

// sendQueue is a bounded FIFO that drops the oldest entry when full.
type sendQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []request
	limit   int
	dropped int
	busy    bool
	closed  bool
}

func newSendQueue(limit int) *sendQueue {
	q := &sendQueue{limit: limit}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends r. It returns the entry evicted to make room, if any.
func (q *sendQueue) push(r request) (request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return request{}, false
	}

	var evicted request
	full := len(q.items) >= q.limit
	if full {
		evicted = q.items[0]
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, r)
	q.cond.Broadcast()
	return evicted, full
}

// pop blocks for the next entry. It returns false once the queue is closed.
func (q *sendQueue) pop() (request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.busy = false
	q.cond.Broadcast()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return request{}, false
	}
	r := q.items[0]
	q.items = q.items[1:]
	q.busy = true
	return r, true
}

// wait blocks until the queue is empty and the worker is idle.
func (q *sendQueue) wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.closed && (len(q.items) > 0 || q.busy) {
		q.cond.Wait()
	}
}

// close discards pending entries and wakes the worker.
func (q *sendQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}

func (q *sendQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *sendQueue) droppedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
