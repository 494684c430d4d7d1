// Package cobs implements Consistent Overhead Byte Stuffing: a codec that
// removes every zero byte from a stream so 0x00 can serve as a frame
// delimiter, plus a 0x00-delimited Frame layer and a byte-at-a-time
// streaming encoder for FIFO-backed transports. Algorithm and edge-case
// behavior are ported from outpost-core's cobs.h/cobs_impl.h; coding style
// (explicit errors, no panics, byte-slice in/out) follows
// core/protocol/frame_codec.go in the teacher repository.
package cobs

import "errors"

// MaxBlockLength is the largest legal blockLength: the pointer byte is a
// single octet and must stay within the encodable range.
const MaxBlockLength = 254

// DefaultBlockLength is used when callers do not need a shorter run length.
const DefaultBlockLength = 254

var (
	// ErrBlockLengthOutOfRange is returned by codecs constructed with an
	// invalid blockLength.
	ErrBlockLengthOutOfRange = errors.New("cobs: blockLength must be in [1, 254]")
)

// Codec encodes and decodes byte streams with a fixed blockLength, the
// maximum run of non-zero bytes between pointer bytes.
type Codec struct {
	blockLength int
}

// NewCodec constructs a Codec with the given blockLength (<= MaxBlockLength).
func NewCodec(blockLength int) (*Codec, error) {
	if blockLength <= 0 || blockLength > MaxBlockLength {
		return nil, ErrBlockLengthOutOfRange
	}
	return &Codec{blockLength: blockLength}, nil
}

// MaxEncodedLength returns the worst-case encoded size for an input of n
// bytes: one pointer byte per blockLength-sized run, plus the input bytes
// themselves, plus one for the leading pointer.
func (c *Codec) MaxEncodedLength(n int) int {
	return n + (n+c.blockLength-1)/c.blockLength + 1
}

// Encode writes the COBS encoding of input into output and returns the
// number of bytes written. If output is too small to hold the worst case,
// output is truncated to empty and 0 is returned.
func (c *Codec) Encode(input, output []byte) int {
	need := c.MaxEncodedLength(len(input))
	if len(output) < need {
		return 0
	}
	blockLength := c.blockLength

	writePtr := 0
	codePtr := 0
	code := 1
	writePtr++ // reserve the first code byte slot

	for _, b := range input {
		if b != 0 {
			output[writePtr] = b
			writePtr++
			code++
			if code == blockLength+1 {
				output[codePtr] = byte(code)
				codePtr = writePtr
				writePtr++
				code = 1
			}
		} else {
			output[codePtr] = byte(code)
			codePtr = writePtr
			writePtr++
			code = 1
		}
	}
	output[codePtr] = byte(code)
	return writePtr
}

// Decode decodes a COBS-encoded buffer (no framing delimiter, no embedded
// zero bytes) into output. input and output may alias (in-place decode).
// Returns the number of bytes written, or 0 if the encoded stream is
// malformed (e.g. an embedded zero byte, or a pointer running past the end
// of input).
func (c *Codec) Decode(input, output []byte) int {
	if len(input) == 0 {
		return 0
	}
	readPtr := 0
	writePtr := 0
	for readPtr < len(input) {
		code := int(input[readPtr])
		if code == 0 {
			return 0
		}
		readPtr++
		blockEnd := readPtr + (code - 1)
		if blockEnd > len(input) {
			return 0
		}
		for readPtr < blockEnd {
			b := input[readPtr]
			if b == 0 {
				return 0
			}
			if writePtr >= len(output) {
				return 0
			}
			output[writePtr] = b
			writePtr++
			readPtr++
		}
		// A block shorter than blockLength+1 implies the byte the encoder
		// stripped was a real zero, unless this is the final block of the
		// stream (the encoder's terminating code carries no such zero).
		if code != c.blockLength+1 && readPtr < len(input) {
			if writePtr >= len(output) {
				return 0
			}
			output[writePtr] = 0
			writePtr++
		}
	}
	return writePtr
}
