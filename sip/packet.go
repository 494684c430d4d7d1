// Package sip implements the Simple Interface Protocols framing layer of
// spec §4.3/§4.12: a length-prefixed request/response packet format with
// CRC-16/CCITT integrity, plus a synchronous Coordinator/Worker pair built
// on top of it. Wire format and error taxonomy are ported from
// outpost-core's packet_reader.cpp/packet_writer.cpp/operation_result.h;
// coding style (explicit length checks before CRC, no panics) follows
// core/protocol/frame_codec.go in the teacher repository. Multi-byte wire
// fields use encoding/binary.BigEndian throughout, per spec §1's
// endianness non-goal and the byte-order idiom of
// _examples/hayabusa-cloud-framer's internal/bo package.
package sip

import (
	"encoding/binary"
	"errors"

	"github.com/tuhh-sat/pluto-core/crc"
)

// headerLength is the three single-byte fields (workerId, counter, type)
// plus the 2-byte length prefix that precede the payload.
const headerLength = 5

// structureInLength is the number of header bytes the length field itself
// counts (workerId + counter + type), matching outpost's
// sip::constants::structureInLength.
const structureInLength = 3

// minPacketSize is the smallest legal wire packet: 2-byte length + 3
// header bytes + 2-byte CRC, no payload.
const minPacketSize = 2 + structureInLength + 2

// Result mirrors spec §7's SIP error taxonomy.
type Result int

const (
	Success Result = iota
	LengthErrorTooSmall
	LengthErrorEndOfFrame
	CrcError
	BufferError
	NotFinalized
	TransmitError
	ResponseError
	WorkerIdError
	ResponseTypeError
	TransportError
	Timeout
	SerialStopped
)

func (r Result) Error() string {
	switch r {
	case Success:
		return "success"
	case LengthErrorTooSmall:
		return "sip: buffer too small for header+payload+crc"
	case LengthErrorEndOfFrame:
		return "sip: payload length exceeds configured maximum"
	case CrcError:
		return "sip: crc mismatch"
	case BufferError:
		return "sip: buffer error"
	case NotFinalized:
		return "sip: packet not finalized, call Update first"
	case TransmitError:
		return "sip: transport transmit failed"
	case ResponseError:
		return "sip: no response received before timeout"
	case WorkerIdError:
		return "sip: response workerId does not match request"
	case ResponseTypeError:
		return "sip: response type does not match expected type"
	case TransportError:
		return "sip: transport error"
	case Timeout:
		return "sip: timeout"
	case SerialStopped:
		return "sip: underlying serial transport stopped"
	default:
		return "sip: unknown result"
	}
}

var errNotFinalized = errors.New(NotFinalized.Error())

// MaxPayloadLength is the compile-time payload cap (spec §6); it must stay
// small enough that structureInLength+payload never exceeds the 16-bit
// length field's range.
const MaxPayloadLength = 1024

// MaxPacketLength is the largest legal wire packet size for MaxPayloadLength.
const MaxPacketLength = MaxPayloadLength + headerLength + 2

// PacketWriter accumulates header fields and a payload slice, then
// serializes them into a caller-supplied backing buffer on Update.
// Grounded on packet_writer.cpp/.h.
type PacketWriter struct {
	workerId   uint8
	counter    uint8
	ptype      uint8
	payload    []byte
	finalized  bool
	buf        []byte
	maxPayload int
}

// NewPacketWriter constructs a writer over buf, serializing into it on
// Update. maxPayload bounds the payload Update accepts (use MaxPayloadLength for the
// spec default).
func NewPacketWriter(buf []byte, maxPayload int) *PacketWriter {
	return &PacketWriter{buf: buf, maxPayload: maxPayload}
}

func (w *PacketWriter) SetWorkerId(id uint8) {
	w.workerId = id
	w.finalized = false
}

func (w *PacketWriter) SetCounter(c uint8) {
	w.counter = c
	w.finalized = false
}

func (w *PacketWriter) SetType(t uint8) {
	w.ptype = t
	w.finalized = false
}

// SetPayloadData sets the payload slice and marks the writer un-finalized.
// A zero-length payload is accepted. A payload exceeding maxPayload is not
// rejected here; callers discover it when Update/GetReader reports
// LengthErrorEndOfFrame.
func (w *PacketWriter) SetPayloadData(payload []byte) {
	w.payload = payload
	w.finalized = false
}

// Update serializes the accumulated fields into the backing buffer: length
// (= structureInLength + len(payload)), the three header bytes, the
// payload, then the CRC-16/CCITT over [length-field .. end-of-payload].
// Returns LengthErrorEndOfFrame if the payload exceeds maxPayload, and
// LengthErrorTooSmall if buf cannot hold header+payload+CRC.
func (w *PacketWriter) Update() Result {
	if len(w.payload) > w.maxPayload {
		return LengthErrorEndOfFrame
	}
	need := len(w.payload) + minPacketSize
	if need > len(w.buf) {
		return LengthErrorTooSmall
	}
	length := len(w.payload) + structureInLength
	binary.BigEndian.PutUint16(w.buf[0:2], uint16(length))
	w.buf[2] = w.workerId
	w.buf[3] = w.counter
	w.buf[4] = w.ptype
	copy(w.buf[headerLength:], w.payload)

	end := headerLength + len(w.payload)
	c := crc.CCITT16(w.buf[:end])
	binary.BigEndian.PutUint16(w.buf[end:end+2], c)

	w.finalized = true
	return Success
}

// GetSliceIfFinalized returns the finalized wire slice, or an error if
// Update has not been called (or failed) since the last field mutation.
func (w *PacketWriter) GetSliceIfFinalized() ([]byte, error) {
	if !w.finalized {
		return nil, errNotFinalized
	}
	end := headerLength + len(w.payload) + 2
	return w.buf[:end], nil
}

// GetReader finalizes the packet (calling Update if needed) and returns a
// PacketReader over the serialized wire slice.
func (w *PacketWriter) GetReader() (*PacketReader, error) {
	if !w.finalized {
		if r := w.Update(); r != Success {
			return nil, r
		}
	}
	slice, err := w.GetSliceIfFinalized()
	if err != nil {
		return nil, err
	}
	reader := NewPacketReader(slice)
	if r := reader.ReadPacket(); r != Success {
		return nil, r
	}
	return reader, nil
}

// PacketReader wraps a received byte slice, validating header, payload
// length, and CRC. Grounded on packet_reader.cpp/.h.
type PacketReader struct {
	length            int
	workerId          uint8
	counter           uint8
	ptype             uint8
	payloadDataLength int
	crcField          uint16
	buf               []byte
	maxPayload        int
}

// NewPacketReader wraps buf (not yet validated; call ReadPacket).
func NewPacketReader(buf []byte) *PacketReader {
	return &PacketReader{buf: buf, maxPayload: MaxPayloadLength}
}

// NewPacketReaderWithLimit is NewPacketReader with an explicit maxPayload,
// for callers using a non-default sip.MaxPayloadLength configuration.
func NewPacketReaderWithLimit(buf []byte, maxPayload int) *PacketReader {
	return &PacketReader{buf: buf, maxPayload: maxPayload}
}

// ReadPacket deserializes the header and verifies the CRC.
func (r *PacketReader) ReadPacket() Result {
	if res := r.deserialize(); res != Success {
		return res
	}
	if r.crcField != r.calculateCrc() {
		return CrcError
	}
	return Success
}

func (r *PacketReader) deserialize() Result {
	if len(r.buf) < minPacketSize {
		return LengthErrorTooSmall
	}
	r.length = int(binary.BigEndian.Uint16(r.buf[0:2]))
	r.workerId = r.buf[2]
	r.counter = r.buf[3]
	r.ptype = r.buf[4]
	r.payloadDataLength = r.length - structureInLength
	if r.payloadDataLength < 0 || r.payloadDataLength > r.maxPayload {
		return LengthErrorEndOfFrame
	}
	remaining := len(r.buf) - headerLength
	if r.payloadDataLength+2 > remaining {
		return LengthErrorTooSmall
	}
	r.crcField = binary.BigEndian.Uint16(r.buf[headerLength+r.payloadDataLength : headerLength+r.payloadDataLength+2])
	return Success
}

func (r *PacketReader) calculateCrc() uint16 {
	return crc.CCITT16(r.buf[:r.length+2])
}

func (r *PacketReader) GetLength() int     { return r.length }
func (r *PacketReader) GetWorkerId() uint8 { return r.workerId }
func (r *PacketReader) GetCounter() uint8  { return r.counter }
func (r *PacketReader) GetType() uint8     { return r.ptype }

// GetPayloadData returns the payload sub-slice.
func (r *PacketReader) GetPayloadData() []byte {
	return r.buf[headerLength : headerLength+r.payloadDataLength]
}

// GetSlice returns the full wire packet (header+payload+crc), for
// retransmission/transport purposes. Total wire size is length + 4: the
// 2-byte length field, length bytes, and the 2-byte CRC.
func (r *PacketReader) GetSlice() []byte {
	return r.buf[:r.length+4]
}
