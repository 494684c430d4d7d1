package compress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tuhh-sat/pluto-core/glue"
	"github.com/tuhh-sat/pluto-core/pool"
)

// Timeouts mirror data_processor_thread.h's waitForBlockTimeout (5s) and
// processingTimeout (1s).
const (
	waitForBlockTimeout = 5 * time.Second
	processingTimeout   = 1 * time.Second

	defaultNumOutputRetries = 5
	defaultRetryTimeout     = 500 * time.Millisecond
)

// Processor takes raw DataBlocks off an input queue, wavelet-transforms
// and NLS-encodes them, and forwards the result to an output queue,
// retrying the forward a bounded number of times. Grounded on
// data_processor_thread.cpp/.h; the enable/disable checkpoint and
// goroutine-loop/heartbeat idiom follow core/concurrency/executor.go in
// the teacher repository.
type Processor struct {
	heartbeat glue.HeartbeatSink

	pool        *pool.SharedBufferPool
	inputQueue  *BlockQueue
	outputQueue *BlockQueue

	encoder NLSEncoder

	retryTimeout time.Duration
	maxRetries   uint8

	mu      sync.Mutex
	enabled bool

	numIncoming  atomic.Uint32
	numProcessed atomic.Uint32
	numForwarded atomic.Uint32
	numLost      atomic.Uint32

	stop chan struct{}
	done chan struct{}
}

// NewProcessor constructs a Processor. Pass nil heartbeat to use a no-op
// sink.
func NewProcessor(heartbeat glue.HeartbeatSink, bufferPool *pool.SharedBufferPool, inputQueue, outputQueue *BlockQueue, numOutputRetries uint8, retryTimeout time.Duration) *Processor {
	if heartbeat == nil {
		heartbeat = glue.NoopHeartbeat{}
	}
	if numOutputRetries == 0 {
		numOutputRetries = defaultNumOutputRetries
	}
	if retryTimeout == 0 {
		retryTimeout = defaultRetryTimeout
	}
	return &Processor{
		heartbeat:    heartbeat,
		pool:         bufferPool,
		inputQueue:   inputQueue,
		outputQueue:  outputQueue,
		retryTimeout: retryTimeout,
		maxRetries:   numOutputRetries,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Enable resumes processing; the run loop otherwise sits idle at the
// checkpoint, mirroring rtos_utils::Checkpoint's suspend/resume pair.
func (p *Processor) Enable() {
	p.mu.Lock()
	p.enabled = true
	p.mu.Unlock()
}

// Disable suspends processing at the next checkpoint.
func (p *Processor) Disable() {
	p.mu.Lock()
	p.enabled = false
	p.mu.Unlock()
}

func (p *Processor) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *Processor) NumberOfReceivedBlocks() uint32  { return p.numIncoming.Load() }
func (p *Processor) NumberOfProcessedBlocks() uint32 { return p.numProcessed.Load() }
func (p *Processor) NumberOfForwardedBlocks() uint32 { return p.numForwarded.Load() }
func (p *Processor) NumberOfLostBlocks() uint32      { return p.numLost.Load() }

// ResetCounters zeroes the incoming/processed/forwarded/lost counters.
func (p *Processor) ResetCounters() {
	p.numIncoming.Store(0)
	p.numProcessed.Store(0)
	p.numForwarded.Store(0)
	p.numLost.Store(0)
}

// Run executes the compress loop until Stop is called, yielding at the
// checkpoint whenever disabled. Intended to run in its own goroutine.
func (p *Processor) Run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		default:
		}
		if !p.IsEnabled() {
			time.Sleep(processingTimeout)
			continue
		}
		p.ProcessSingleBlock(waitForBlockTimeout)
	}
}

// Stop requests the loop to exit and blocks until it has.
func (p *Processor) Stop() {
	close(p.stop)
	<-p.done
}

// ProcessSingleBlock receives one block from the input queue (waiting up
// to timeout), compresses it, and retries forwarding it to the output
// queue up to maxRetries times. Feeds the heartbeat with an allowance
// that covers the worst case of waiting, compressing, and exhausting all
// retries — matching processSingleBlock's
// `timeout + processingTimeout*2 + retryTimeout*maxRetries` budget.
func (p *Processor) ProcessSingleBlock(timeout time.Duration) {
	allowance := timeout + processingTimeout*2 + p.retryTimeout*time.Duration(p.maxRetries)
	p.heartbeat.Send(allowance)

	b, err := p.inputQueue.Receive(timeout)
	if err != nil {
		return
	}
	p.numIncoming.Add(1)

	encoded, ok := p.compress(b)
	if !ok {
		p.numLost.Add(1)
		return
	}
	p.numProcessed.Add(1)

	success := false
	for tries := uint8(0); tries < p.maxRetries && !success; tries++ {
		if err := p.outputQueue.Send(encoded); err == nil {
			success = true
		} else {
			time.Sleep(p.retryTimeout)
		}
	}
	if success {
		p.numForwarded.Add(1)
	} else {
		p.numLost.Add(1)
	}
}

func (p *Processor) compress(b *DataBlock) (*DataBlock, bool) {
	if !b.ApplyWaveletTransform() || len(b.GetCoefficients()) == 0 {
		return nil, false
	}
	outPtr := p.pool.Allocate()
	if outPtr == nil {
		return nil, false
	}
	out := NewDataBlock(outPtr, b.ParameterID(), b.StartTimeSeconds(), b.StartTimeMillis(), b.SamplingRate(), b.GetBlocksize())
	if !b.Encode(out, p.encoder) {
		outPtr.Release()
		return nil, false
	}
	return out, true
}
