package compress

import (
	"errors"
	"sync"
	"time"

	"github.com/eapache/queue"
)

var (
	ErrBlockQueueFull = errors.New("compress: block queue full")
	ErrBlockTimeout   = errors.New("compress: block receive timed out")
)

// BlockQueue is a bounded FIFO of *DataBlock with a timeout-based blocking
// receive, the DataBlock-typed counterpart of refqueue.Queue (the
// original's ReferenceQueueBase<DataBlock> template instantiation).
// Grounded on refqueue.Queue's structure, reusing the same
// github.com/eapache/queue backing ring.
type BlockQueue struct {
	mu       sync.Mutex
	q        *queue.Queue
	capacity int
	notify   chan struct{}
}

func NewBlockQueue(capacity int) *BlockQueue {
	return &BlockQueue{
		q:        queue.New(),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Send enqueues b. Returns ErrBlockQueueFull without side effects if the
// queue is at capacity.
func (bq *BlockQueue) Send(b *DataBlock) error {
	bq.mu.Lock()
	if bq.q.Length() >= bq.capacity {
		bq.mu.Unlock()
		return ErrBlockQueueFull
	}
	bq.q.Add(b)
	bq.mu.Unlock()
	select {
	case bq.notify <- struct{}{}:
	default:
	}
	return nil
}

// Receive blocks up to timeout for a block, returning ErrBlockTimeout if
// none arrives in time.
func (bq *BlockQueue) Receive(timeout time.Duration) (*DataBlock, error) {
	deadline := time.Now().Add(timeout)
	for {
		if v, ok := bq.tryPop(); ok {
			return v, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrBlockTimeout
		}
		select {
		case <-bq.notify:
		case <-time.After(remaining):
			return nil, ErrBlockTimeout
		}
	}
}

func (bq *BlockQueue) tryPop() (*DataBlock, bool) {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	if bq.q.Length() == 0 {
		return nil, false
	}
	return bq.q.Remove().(*DataBlock), true
}

func (bq *BlockQueue) IsEmpty() bool {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	return bq.q.Length() == 0
}
