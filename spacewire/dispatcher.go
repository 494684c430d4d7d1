package spacewire

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/tuhh-sat/pluto-core/glue"
	"github.com/tuhh-sat/pluto-core/pool"
)

// receiveWaitTime bounds each link receive attempt so the loop can observe
// a stop request and feed its heartbeat.
const receiveWaitTime = 1 * time.Second

// Filter selects which incoming packets a channel accepts: the protocol
// identifier read from byte 1 of the packet, an upper bound on the bytes
// handed to the consumer, and whether truncated (partial) packets are
// accepted at all.
type Filter struct {
	Protocol     byte
	MaxSize      int
	AllowPartial bool
}

// ReceivedPacket is what a channel consumer dequeues: a child-pointer view
// into a pooled buffer holding the packet bytes, plus the end marker the
// link reported. The child's type tag carries the protocol identifier.
// The consumer must Release the child when done.
type ReceivedPacket struct {
	Child *pool.SharedChildPointer
	End   EndMarker
}

var (
	ErrChannelTimeout = errors.New("spacewire: channel receive timed out")
	errChannelFull    = errors.New("spacewire: channel queue full")
)

// Channel is a bounded FIFO of ReceivedPackets fed by the dispatcher.
// Structured like refqueue.Queue: an eapache ring under a mutex with a
// signal channel for the blocking receive.
type Channel struct {
	filter Filter

	mu       sync.Mutex
	q        *queue.Queue
	capacity int
	notify   chan struct{}
}

func NewChannel(filter Filter, capacity int) *Channel {
	return &Channel{
		filter:   filter,
		q:        queue.New(),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

func (c *Channel) Filter() Filter { return c.filter }

// Receive blocks up to timeout for the next packet on this channel.
func (c *Channel) Receive(timeout time.Duration) (ReceivedPacket, error) {
	deadline := time.Now().Add(timeout)
	for {
		if p, ok := c.tryPop(); ok {
			return p, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ReceivedPacket{}, ErrChannelTimeout
		}
		select {
		case <-c.notify:
		case <-time.After(remaining):
			return ReceivedPacket{}, ErrChannelTimeout
		}
	}
}

func (c *Channel) tryPop() (ReceivedPacket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q.Length() == 0 {
		return ReceivedPacket{}, false
	}
	return c.q.Remove().(ReceivedPacket), true
}

func (c *Channel) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Length() == 0
}

func (c *Channel) push(p ReceivedPacket) error {
	c.mu.Lock()
	if c.q.Length() >= c.capacity {
		c.mu.Unlock()
		return errChannelFull
	}
	c.q.Add(p)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// matches reports whether a packet with the given protocol and end marker
// passes this channel's filter. MaxSize is not checked here; deliver
// truncates to it.
func (f Filter) matches(protocol byte, end EndMarker) bool {
	if protocol != f.Protocol {
		return false
	}
	if end == EndPartial && !f.AllowPartial {
		return false
	}
	return true
}

// Dispatcher pulls packets off a SpaceWire link and routes each to the
// first registered channel whose filter matches the packet's protocol
// identifier (byte 1). Packet bytes are copied into a pooled buffer and
// handed to the channel as a child-pointer view tagged with the protocol.
// Overflow in any form (no matching channel, channel queue full, pool
// exhausted, runt packet) drops the packet and counts it.
type Dispatcher struct {
	link      Link
	pool      *pool.SharedBufferPool
	heartbeat glue.HeartbeatSink

	mu                sync.Mutex
	channels          []*Channel
	timeCodeQueues    []*TimeCodeQueue
	maxTimeCodeQueues int

	numReceived    atomic.Uint32
	numDistributed atomic.Uint32
	numDropped     atomic.Uint32

	stop chan struct{}
	done chan struct{}
}

// NewDispatcher constructs a dispatcher over link, copying packets into
// buffers from bufferPool. maxTimeCodeQueues bounds AddTimeCodeListener
// registrations. Pass nil heartbeat for a no-op sink.
func NewDispatcher(link Link, bufferPool *pool.SharedBufferPool, maxTimeCodeQueues int, heartbeat glue.HeartbeatSink) *Dispatcher {
	if heartbeat == nil {
		heartbeat = glue.NoopHeartbeat{}
	}
	return &Dispatcher{
		link:              link,
		pool:              bufferPool,
		heartbeat:         heartbeat,
		maxTimeCodeQueues: maxTimeCodeQueues,
		stop:              make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// RegisterChannel appends ch to the match list. Registration order is
// significant: an incoming packet goes to the first matching channel.
func (d *Dispatcher) RegisterChannel(ch *Channel) {
	d.mu.Lock()
	d.channels = append(d.channels, ch)
	d.mu.Unlock()
}

// AddTimeCodeListener registers q for TimeCode distribution. Returns false
// if the listener table is full.
func (d *Dispatcher) AddTimeCodeListener(q *TimeCodeQueue) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.timeCodeQueues) >= d.maxTimeCodeQueues {
		return false
	}
	d.timeCodeQueues = append(d.timeCodeQueues, q)
	return true
}

// DispatchTimeCode broadcasts tc to every registered TimeCode queue.
// Full queues drop the TimeCode for that listener only.
func (d *Dispatcher) DispatchTimeCode(tc TimeCode) {
	d.mu.Lock()
	queues := make([]*TimeCodeQueue, len(d.timeCodeQueues))
	copy(queues, d.timeCodeQueues)
	d.mu.Unlock()
	for _, q := range queues {
		q.send(tc)
	}
}

func (d *Dispatcher) NumberOfReceivedPackets() uint32    { return d.numReceived.Load() }
func (d *Dispatcher) NumberOfDistributedPackets() uint32 { return d.numDistributed.Load() }
func (d *Dispatcher) NumberOfDroppedPackets() uint32     { return d.numDropped.Load() }

// Run executes the packet reader loop until Stop is called. Intended to
// run in its own goroutine, started by the application (spec §5).
func (d *Dispatcher) Run() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		default:
		}
		d.heartbeat.Send(receiveWaitTime + 100*time.Millisecond)
		d.ReceiveSinglePacket(receiveWaitTime)
	}
}

// Stop requests the loop to exit and blocks until it has.
func (d *Dispatcher) Stop() {
	close(d.stop)
	<-d.done
}

// ReceiveSinglePacket performs one receive/route cycle; exported so tests
// and single-shot callers can drive the dispatcher without a goroutine.
func (d *Dispatcher) ReceiveSinglePacket(timeout time.Duration) {
	buf, err := d.link.Receive(timeout)
	if err != nil {
		return
	}
	defer d.link.ReleaseBuffer(buf)

	d.numReceived.Add(1)
	if len(buf.Data) < 2 {
		d.numDropped.Add(1)
		return
	}
	protocol := buf.Data[1]

	d.mu.Lock()
	channels := make([]*Channel, len(d.channels))
	copy(channels, d.channels)
	d.mu.Unlock()

	for _, ch := range channels {
		if !ch.filter.matches(protocol, buf.End) {
			continue
		}
		if d.deliver(ch, buf, protocol) {
			d.numDistributed.Add(1)
		} else {
			d.numDropped.Add(1)
		}
		return
	}
	d.numDropped.Add(1)
}

// deliver copies the packet into a pooled buffer, limited by the channel's
// MaxSize and the pool's chunk size, and pushes a child view onto ch.
func (d *Dispatcher) deliver(ch *Channel, buf *ReceiveBuffer, protocol byte) bool {
	parent := d.pool.Allocate()
	if parent == nil {
		return false
	}
	dst := parent.Bytes()
	n := len(buf.Data)
	if n > ch.filter.MaxSize {
		n = ch.filter.MaxSize
	}
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], buf.Data[:n])

	child, err := pool.NewSharedChildPointer(parent.Underlying(), 0, n, int(protocol))
	if err != nil {
		parent.Release()
		return false
	}
	// The child holds its own references; the dispatcher's parent handle
	// is no longer needed.
	parent.Release()

	if err := ch.push(ReceivedPacket{Child: child, End: buf.End}); err != nil {
		child.Release()
		return false
	}
	return true
}
