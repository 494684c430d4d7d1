// Package transport adapts host byte-stream links (TCP sockets, Unix
// sockets, PTY-backed serial ports) to the packet transport interface SIP
// consumes. Packets are delimited on the stream with COBS framing so the
// receiver can resynchronize after garbage or a partial read.
package transport

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/tuhh-sat/pluto-core/cobs"
)

var (
	ErrTimeout       = errors.New("transport: receive timed out")
	ErrFrameTooLarge = errors.New("transport: packet exceeds maximum packet length")
)

// NetConn frames whole packets over a stream-oriented net.Conn. Transmit
// and Receive are each serialized by their own lock, so one goroutine may
// transmit while another receives on the same connection.
type NetConn struct {
	conn            net.Conn
	frame           *cobs.Frame
	maxPacketLength int

	wmu       sync.Mutex
	encodeBuf []byte

	rmu     sync.Mutex
	readBuf []byte // undecoded stream bytes carried between Receive calls
	scratch []byte
}

// NewNetConn wraps conn with COBS framing sized for packets up to
// maxPacketLength bytes.
func NewNetConn(conn net.Conn, maxPacketLength int) (*NetConn, error) {
	codec, err := cobs.NewCodec(cobs.DefaultBlockLength)
	if err != nil {
		return nil, err
	}
	frame := cobs.NewFrame(codec)
	encodedMax := frame.MaxEncodedLength(maxPacketLength)
	return &NetConn{
		conn:            conn,
		frame:           frame,
		maxPacketLength: maxPacketLength,
		encodeBuf:       make([]byte, encodedMax),
		readBuf:         make([]byte, 0, 2*encodedMax),
		scratch:         make([]byte, 4096),
	}, nil
}

// Transmit sends one framed packet and reports the payload bytes written,
// implementing sip.PacketTransport.
func (n *NetConn) Transmit(packet []byte) (int, error) {
	if len(packet) > n.maxPacketLength {
		return 0, ErrFrameTooLarge
	}
	n.wmu.Lock()
	defer n.wmu.Unlock()
	encoded := n.frame.Encode(packet, n.encodeBuf)
	if encoded == 0 {
		return 0, ErrFrameTooLarge
	}
	if _, err := n.conn.Write(n.encodeBuf[:encoded]); err != nil {
		return 0, err
	}
	return len(packet), nil
}

// Receive blocks up to timeout for one complete frame, decoding it into dst
// and returning the decoded sub-slice. Malformed frames are discarded and
// the scan continues; a frame larger than dst is likewise discarded.
func (n *NetConn) Receive(dst []byte, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	n.rmu.Lock()
	defer n.rmu.Unlock()
	for {
		consumed, decoded := n.frame.Decode(n.readBuf, dst)
		if consumed > 0 {
			n.readBuf = append(n.readBuf[:0], n.readBuf[consumed:]...)
			if decoded > 0 {
				return dst[:decoded], nil
			}
			continue // garbage between delimiters, keep scanning
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		if err := n.conn.SetReadDeadline(time.Now().Add(remaining)); err != nil {
			return nil, err
		}
		m, err := n.conn.Read(n.scratch)
		if m > 0 {
			n.readBuf = append(n.readBuf, n.scratch[:m]...)
			continue
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, ErrTimeout
			}
			return nil, err
		}
	}
}

// Close closes the underlying connection; a blocked Receive returns with
// the connection's close error.
func (n *NetConn) Close() error {
	return n.conn.Close()
}
