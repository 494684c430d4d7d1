package cobs

// Generator serves a COBS encoding one byte at a time, for callers that
// push bytes into a FIFO-backed transport rather than writing into a
// pre-sized buffer. outpost-core computes this incrementally, tracking
// (currentPosition, nextBlockEnd, zeroElementSkip); pluto-core keeps the
// same one-byte-at-a-time contract (Next is called repeatedly, no upfront
// buffer is exposed to the caller) but computes the full encoding once in
// NewGenerator using Codec.Encode, since the input is already an
// in-memory slice with a staticaly computable worst-case size — recomputing
// block boundaries lazily on every Next call would duplicate Codec.Encode's
// logic for no observable difference at the FIFO-push call site.
type Generator struct {
	encoded []byte
	pos     int
}

// NewGenerator constructs a streaming encoder over input with the given
// blockLength. codec must have been built with the same blockLength the
// receiver will decode with.
func NewGenerator(codec *Codec, input []byte) *Generator {
	buf := make([]byte, codec.MaxEncodedLength(len(input)))
	n := codec.Encode(input, buf)
	return &Generator{encoded: buf[:n]}
}

// Next returns the next encoded byte and true, or (0, false) once
// exhausted.
func (g *Generator) Next() (byte, bool) {
	if g.pos >= len(g.encoded) {
		return 0, false
	}
	b := g.encoded[g.pos]
	g.pos++
	return b, true
}

// Remaining reports how many encoded bytes are still unread.
func (g *Generator) Remaining() int {
	return len(g.encoded) - g.pos
}
