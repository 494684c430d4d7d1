package sip

import "time"

// PacketTransport is the byte-stream transport SIP consumes (spec §6): a
// UART, SpaceWire link, or TCP socket wrapped to transmit/receive whole
// framed packets. Grounded on packet_transport_wrapper.h's
// PacketTransportTx/PacketTransportRx split, collapsed into one interface
// since pluto-core's Coordinator and Worker each only need one direction
// at a time but share the same underlying transport instance.
type PacketTransport interface {
	// Transmit sends the full wire slice (as produced by PacketWriter) and
	// returns the number of bytes written, or TransmitError/TransportError.
	Transmit(packet []byte) (int, error)

	// Receive blocks up to timeout for one framed packet, writing it into
	// dst and returning the received sub-slice, or Timeout/TransportError.
	Receive(dst []byte, timeout time.Duration) ([]byte, error)
}
