package sip

import (
	"sync"
	"time"
)

// responseTimeout is the fixed wait for a worker's response, per spec
// §4.12 and coordinator.cpp's outpost::time::Seconds(2).
const responseTimeout = 2 * time.Second

// ResponseData is what CoordinatorPacketReceiver deposits on the response
// queue after validating an incoming SIP packet. Grounded on
// coordinator.h's ResponseData struct.
type ResponseData struct {
	Length            uint16
	WorkerId          uint8
	Counter           uint8
	Type              uint8
	PayloadDataLength uint16
	PayloadData       [MaxPayloadLength]byte
}

// Coordinator issues SIP requests and awaits a typed response on a
// single-slot queue. Per spec §9 Open Question (iv) and the original's
// `sizeOfQueue = 1`, parallel transactions are structurally forbidden: a
// second SendRequest while one is outstanding is rejected rather than
// queued or correlated by transaction ID.
type Coordinator struct {
	transport PacketTransport
	buf       []byte

	mu   sync.Mutex
	busy bool

	responseQueue chan ResponseData
}

// NewCoordinator constructs a Coordinator over transport, using buf as its
// scratch packet-build buffer (must be at least MaxPacketLength bytes for
// the configured payload size).
func NewCoordinator(transport PacketTransport, buf []byte) *Coordinator {
	return &Coordinator{
		transport:     transport,
		buf:           buf,
		responseQueue: make(chan ResponseData, 1),
	}
}

// acquire marks the coordinator busy, returning false if a transaction is
// already outstanding.
func (c *Coordinator) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// SendRequest builds a SIP packet, transmits it, and awaits a matching
// response with a 2-second timeout (spec §4.12).
func (c *Coordinator) SendRequest(workerId, counter, ptype, expectedResponseType uint8, payload []byte) Result {
	if !c.acquire() {
		return ResponseError
	}
	defer c.release()
	return c.doRequest(workerId, counter, ptype, expectedResponseType, payload, nil)
}

// SendRequestGetResponseData is SendRequest plus copying the response
// payload into out (truncated to len(out) if the response is larger).
func (c *Coordinator) SendRequestGetResponseData(workerId, counter, ptype, expectedResponseType uint8, payload []byte, out []byte) Result {
	if !c.acquire() {
		return ResponseError
	}
	defer c.release()
	return c.doRequest(workerId, counter, ptype, expectedResponseType, payload, out)
}

func (c *Coordinator) doRequest(workerId, counter, ptype, expectedResponseType uint8, payload []byte, out []byte) Result {
	writer := NewPacketWriter(c.buf, MaxPayloadLength)
	writer.SetWorkerId(workerId)
	writer.SetCounter(counter)
	writer.SetType(ptype)
	writer.SetPayloadData(payload)

	reader, err := writer.GetReader()
	if err != nil {
		if res, ok := err.(Result); ok {
			return res
		}
		return BufferError
	}

	if _, err := c.transport.Transmit(reader.GetSlice()); err != nil {
		return TransmitError
	}

	var data ResponseData
	select {
	case data = <-c.responseQueue:
	case <-time.After(responseTimeout):
		return ResponseError
	}

	if data.WorkerId != workerId {
		return WorkerIdError
	}
	if data.Type != expectedResponseType {
		return ResponseTypeError
	}
	if out != nil {
		n := int(data.PayloadDataLength)
		if n > len(out) {
			n = len(out)
		}
		copy(out, data.PayloadData[:n])
	}
	return Success
}

// SendResponseQueue is invoked by CoordinatorPacketReceiver to deposit a
// validated response. Returns false if the single-slot queue is full
// (should not happen under the single-outstanding-transaction contract).
func (c *Coordinator) SendResponseQueue(data ResponseData) bool {
	select {
	case c.responseQueue <- data:
		return true
	default:
		return false
	}
}
