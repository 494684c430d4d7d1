// Package refqueue implements the Reference Queue of spec §4.9: a bounded
// MPSC FIFO of shared-buffer handles with a timeout-based blocking
// receive. The backing ring is github.com/eapache/queue, the teacher's own
// dependency for this exact shape of problem in
// internal/concurrency/executor.go; pluto-core adds the blocking-receive
// contract via a signal channel, mirroring the inbox-channel suspension
// idiom of core/concurrency/eventloop.go.
package refqueue

import (
	"errors"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/tuhh-sat/pluto-core/pool"
)

var (
	ErrQueueFull = errors.New("refqueue: queue full")
	ErrTimeout   = errors.New("refqueue: receive timed out")
)

// Queue is a bounded FIFO of *pool.SharedBufferPointer. Send retains a
// clone of the handle (incrementing refcount); Receive hands ownership of
// the stored clone to the caller.
type Queue struct {
	mu       sync.Mutex
	q        *queue.Queue
	capacity int
	notify   chan struct{}
}

func New(capacity int) *Queue {
	return &Queue{
		q:        queue.New(),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Send enqueues a clone of ptr, incrementing its buffer's refcount. Returns
// ErrQueueFull without side effects if the queue is at capacity.
func (rq *Queue) Send(ptr *pool.SharedBufferPointer) error {
	rq.mu.Lock()
	if rq.q.Length() >= rq.capacity {
		rq.mu.Unlock()
		return ErrQueueFull
	}
	rq.q.Add(ptr.Clone())
	rq.mu.Unlock()
	select {
	case rq.notify <- struct{}{}:
	default:
	}
	return nil
}

// SendFromISR is the interrupt-context variant of Send: it takes no
// blocking primitive beyond the spinnable mutex and additionally reports
// woke = true when it posted the wake-up signal, which it does whenever no
// earlier signal is still pending. It does not detect whether a receiver
// is actually blocked: woke is also true when no receiver is waiting.
// Must not be mixed with blocking calls on the same interrupt path.
func (rq *Queue) SendFromISR(ptr *pool.SharedBufferPointer) (woke bool, err error) {
	rq.mu.Lock()
	if rq.q.Length() >= rq.capacity {
		rq.mu.Unlock()
		return false, ErrQueueFull
	}
	rq.q.Add(ptr.Clone())
	rq.mu.Unlock()
	select {
	case rq.notify <- struct{}{}:
		return true, nil
	default:
		return false, nil
	}
}

// Receive blocks up to timeout for an item, returning ErrTimeout if none
// arrives in time.
func (rq *Queue) Receive(timeout time.Duration) (*pool.SharedBufferPointer, error) {
	deadline := time.Now().Add(timeout)
	for {
		if v, ok := rq.tryPop(); ok {
			return v, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		select {
		case <-rq.notify:
		case <-time.After(remaining):
			return nil, ErrTimeout
		}
	}
}

func (rq *Queue) tryPop() (*pool.SharedBufferPointer, bool) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	if rq.q.Length() == 0 {
		return nil, false
	}
	return rq.q.Remove().(*pool.SharedBufferPointer), true
}

func (rq *Queue) IsEmpty() bool {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return rq.q.Length() == 0
}

func (rq *Queue) IsFull() bool {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return rq.q.Length() >= rq.capacity
}
