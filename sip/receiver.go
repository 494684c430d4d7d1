package sip

import (
	"time"

	"github.com/tuhh-sat/pluto-core/glue"
)

// packetWaitTime bounds each receive attempt, matching
// coordinator_packet_receiver.h's packetWaitTime = Seconds(1).
const packetWaitTime = 1 * time.Second

// CoordinatorPacketReceiver loops on transport.Receive, validates incoming
// packets as SIP responses, and deposits them on the Coordinator's
// response queue. Grounded on coordinator_packet_receiver.h; goroutine-
// loop/heartbeat idiom follows core/concurrency/executor.go's worker loop
// in the teacher repository.
type CoordinatorPacketReceiver struct {
	transport   PacketTransport
	coordinator *Coordinator
	heartbeat   glue.HeartbeatSink
	buf         []byte

	stop chan struct{}
	done chan struct{}
}

// NewCoordinatorPacketReceiver constructs a receiver; call Run in its own
// goroutine, Stop to request a clean exit.
func NewCoordinatorPacketReceiver(transport PacketTransport, coordinator *Coordinator, heartbeat glue.HeartbeatSink, buf []byte) *CoordinatorPacketReceiver {
	if heartbeat == nil {
		heartbeat = glue.NoopHeartbeat{}
	}
	return &CoordinatorPacketReceiver{
		transport:   transport,
		coordinator: coordinator,
		heartbeat:   heartbeat,
		buf:         buf,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run executes the receive loop until Stop is called. Intended to be run in
// its own goroutine (the application starts this thread, per spec §5 — the
// core itself never spawns it implicitly).
func (r *CoordinatorPacketReceiver) Run() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		r.heartbeat.Send(packetWaitTime + 100*time.Millisecond)
		r.receivePacket(packetWaitTime)
	}
}

// Stop requests the loop to exit and blocks until it has.
func (r *CoordinatorPacketReceiver) Stop() {
	close(r.stop)
	<-r.done
}

type receiveResult int

const (
	receiveSuccess receiveResult = iota
	receiveReadError
	receiveError
	receiveQueueError
)

func (r *CoordinatorPacketReceiver) receivePacket(timeout time.Duration) receiveResult {
	slice, err := r.transport.Receive(r.buf, timeout)
	if err != nil {
		return receiveError
	}
	if len(slice) == 0 {
		return receiveError
	}

	reader := NewPacketReader(slice)
	if res := reader.ReadPacket(); res != Success {
		return receiveReadError
	}

	var data ResponseData
	data.Length = uint16(reader.GetLength())
	data.WorkerId = reader.GetWorkerId()
	data.Counter = reader.GetCounter()
	data.Type = reader.GetType()
	payload := reader.GetPayloadData()
	data.PayloadDataLength = uint16(len(payload))
	copy(data.PayloadData[:], payload)

	if !r.coordinator.SendResponseQueue(data) {
		return receiveQueueError
	}
	return receiveSuccess
}
