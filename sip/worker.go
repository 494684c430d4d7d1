package sip

// Worker holds a SIP workerId and transport, and builds/transmits response
// packets. Grounded on worker.cpp/.h.
type Worker struct {
	workerId  uint8
	transport PacketTransport
	buf       []byte
}

// NewWorker constructs a Worker over transport, using buf as its scratch
// packet-build buffer (at least MaxPacketLength bytes).
func NewWorker(workerId uint8, transport PacketTransport, buf []byte) *Worker {
	return &Worker{workerId: workerId, transport: transport, buf: buf}
}

func (w *Worker) Id() uint8 { return w.workerId }

// SendResponse builds and transmits a SIP response packet, returning the
// number of bytes transmitted.
func (w *Worker) SendResponse(counter, ptype uint8, payload []byte) (int, Result) {
	writer := NewPacketWriter(w.buf, MaxPayloadLength)
	writer.SetWorkerId(w.workerId)
	writer.SetCounter(counter)
	writer.SetType(ptype)
	writer.SetPayloadData(payload)

	reader, err := writer.GetReader()
	if err != nil {
		if res, ok := err.(Result); ok {
			return 0, res
		}
		return 0, BufferError
	}

	n, err := w.transport.Transmit(reader.GetSlice())
	if err != nil {
		return 0, TransmitError
	}
	return n, Success
}
