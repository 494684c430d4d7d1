package cobs

// Frame wraps a Codec with a 0x00 frame delimiter, matching
// outpost-core's CobsFrame: Encode appends the terminator; Decode scans a
// byte stream for a terminator, validates that the chain of block pointers
// lands exactly on it, and reports how many bytes were consumed so the
// caller can resynchronize after garbage.
type Frame struct {
	codec *Codec
}

func NewFrame(codec *Codec) *Frame {
	return &Frame{codec: codec}
}

// MaxEncodedLength returns the worst-case framed size (encoded length plus
// the terminator byte).
func (f *Frame) MaxEncodedLength(n int) int {
	return f.codec.MaxEncodedLength(n) + 1
}

// Encode writes the COBS encoding of input into output followed by a 0x00
// terminator, returning the total bytes written (0 if output is too small).
func (f *Frame) Encode(input, output []byte) int {
	if len(output) < f.MaxEncodedLength(len(input)) {
		return 0
	}
	n := f.codec.Encode(input, output)
	if n == 0 && len(input) != 0 {
		return 0
	}
	output[n] = 0x00
	return n + 1
}

// Decode scans input for a 0x00 terminator, validates the COBS block-pointer
// chain ends exactly on it, and decodes the payload into output if valid.
// It returns (bytesConsumed, payloadLength). Three outcomes:
//   - no terminator found: (0, 0) — wait for more input.
//   - terminator found but the chain is malformed: (bytesUpToAndIncludingTerminator, 0).
//   - valid frame: (bytesUpToAndIncludingTerminator, decodedLength).
//
// bytesConsumed always covers the terminator itself so the caller can slide
// its read cursor forward on both success and discard-garbage paths.
func (f *Frame) Decode(input []byte, output []byte) (consumed int, decodedLen int) {
	termIdx := -1
	for i, b := range input {
		if b == 0x00 {
			termIdx = i
			break
		}
	}
	if termIdx < 0 {
		return 0, 0
	}
	encoded := input[:termIdx]
	if !chainValid(encoded, f.codec.blockLength) {
		return termIdx + 1, 0
	}
	n := f.codec.Decode(encoded, output)
	if n == 0 && len(encoded) != 0 {
		return termIdx + 1, 0
	}
	return termIdx + 1, n
}

// chainValid walks the block-pointer chain starting at encoded[0] and
// checks that successive pointers land exactly on the index one past the
// last byte of encoded (i.e. exactly at the would-be terminator).
func chainValid(encoded []byte, blockLength int) bool {
	if len(encoded) == 0 {
		return true // empty frame: just the delimiter, valid by definition
	}
	idx := 0
	for idx < len(encoded) {
		code := int(encoded[idx])
		if code == 0 {
			return false
		}
		next := idx + code
		if next > len(encoded) {
			return false
		}
		if next == len(encoded) {
			return true
		}
		idx = next
	}
	return false
}
