package ring

import "encoding/binary"

// ChunkResult mirrors the ring-buffer error taxonomy for whole-chunk
// operations.
type ChunkResult int

const (
	ChunkSuccess ChunkResult = iota
	ChunkTooLarge
	ChunkBufferTooSmall
	ChunkEmpty
)

func (r ChunkResult) Error() string {
	switch r {
	case ChunkSuccess:
		return "success"
	case ChunkTooLarge:
		return "chunk too large for capacity"
	case ChunkBufferTooSmall:
		return "destination buffer too small for chunk"
	case ChunkEmpty:
		return "no chunk available"
	default:
		return "unknown chunk result"
	}
}

// VariableChunkedRingBuffer layers length-prefixed, variable-size frames
// on top of a byte RingBuffer: each entry is
// [size: headerSize bytes big-endian][payload: size bytes]. Grounded on
// outpost-core's ring_buffer_variable_chunked_impl.h, including its
// evict-one-at-a-time retry loop in PushChunk.
type VariableChunkedRingBuffer struct {
	rb         *RingBuffer
	headerSize int // 1, 2, 4, or 8 bytes
	maxSize    uint64
	numChunks  int
}

// NewVariableChunkedRingBuffer wraps rb with a headerSize-byte size field
// (1, 2, 4, or 8). maxSize is the largest chunk length representable in
// headerSize bytes (SizeType::MAX in the original).
func NewVariableChunkedRingBuffer(rb *RingBuffer, headerSize int) *VariableChunkedRingBuffer {
	var maxSize uint64
	switch headerSize {
	case 1:
		maxSize = 0xFF
	case 2:
		maxSize = 0xFFFF
	case 4:
		maxSize = 0xFFFFFFFF
	default:
		maxSize = 1<<64 - 1
	}
	return &VariableChunkedRingBuffer{rb: rb, headerSize: headerSize, maxSize: maxSize}
}

func (v *VariableChunkedRingBuffer) putSize(buf []byte, n uint64) {
	switch v.headerSize {
	case 1:
		buf[0] = byte(n)
	case 2:
		binary.BigEndian.PutUint16(buf, uint16(n))
	case 4:
		binary.BigEndian.PutUint32(buf, uint32(n))
	default:
		binary.BigEndian.PutUint64(buf, n)
	}
}

func (v *VariableChunkedRingBuffer) getSize(buf []byte) uint64 {
	switch v.headerSize {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(buf))
	case 4:
		return uint64(binary.BigEndian.Uint32(buf))
	default:
		return binary.BigEndian.Uint64(buf)
	}
}

// NumberOfChunks returns the number of (header,payload) pairs currently
// stored.
func (v *VariableChunkedRingBuffer) NumberOfChunks() int { return v.numChunks }

func (v *VariableChunkedRingBuffer) readHeadSize() (uint64, bool) {
	if v.rb.UsedCount() < v.headerSize {
		return 0, false
	}
	hdr := make([]byte, v.headerSize)
	if v.rb.PeekInto(hdr, 0) != Success {
		return 0, false
	}
	return v.getSize(hdr), true
}

// discardOldest drops the oldest chunk (header + payload) and decrements
// the chunk counter; used both by PushChunk's eviction loop and by the
// public DiscardChunk.
func (v *VariableChunkedRingBuffer) discardOldest() ChunkResult {
	size, ok := v.readHeadSize()
	if !ok {
		return ChunkEmpty
	}
	if v.rb.DiscardElements(v.headerSize+int(size)) != Success {
		return ChunkEmpty
	}
	v.numChunks--
	return ChunkSuccess
}

// DiscardChunk drops the oldest chunk without returning its payload.
func (v *VariableChunkedRingBuffer) DiscardChunk() ChunkResult {
	return v.discardOldest()
}

// PushChunk stores data as a new chunk, evicting oldest chunks one at a
// time (re-checking free space after each eviction, matching the
// original's loop rather than a batch pre-computation) until there is
// room. Refuses chunks larger than maxSize or larger than
// capacity-headerSize outright.
func (v *VariableChunkedRingBuffer) PushChunk(data []byte) ChunkResult {
	need := v.headerSize + len(data)
	if uint64(len(data)) > v.maxSize {
		return ChunkTooLarge
	}
	if need > v.rb.Capacity() {
		return ChunkTooLarge
	}
	for v.rb.FreeElements() < need {
		if r := v.discardOldest(); r != ChunkSuccess {
			// Nothing left to evict but still not enough room: capacity
			// itself is too small for this chunk (already guarded above),
			// so this path only triggers on an empty buffer, which cannot
			// happen given the need<=capacity check.
			return ChunkTooLarge
		}
	}
	hdr := make([]byte, v.headerSize)
	v.putSize(hdr, uint64(len(data)))
	if v.rb.Append(hdr) != Success {
		return ChunkTooLarge
	}
	if v.rb.Append(data) != Success {
		return ChunkTooLarge
	}
	v.numChunks++
	return ChunkSuccess
}

// PeekChunkInto copies the oldest chunk's payload into dst without
// discarding it. Returns ChunkBufferTooSmall if dst cannot hold the
// payload, ChunkEmpty if there is no chunk.
func (v *VariableChunkedRingBuffer) PeekChunkInto(dst []byte) (ChunkResult, int) {
	size, ok := v.readHeadSize()
	if !ok {
		return ChunkEmpty, 0
	}
	if uint64(len(dst)) < size {
		return ChunkBufferTooSmall, 0
	}
	if v.rb.PeekInto(dst[:size], v.headerSize) != Success {
		return ChunkEmpty, 0
	}
	return ChunkSuccess, int(size)
}

// PopChunkInto is PeekChunkInto followed by discarding the consumed chunk.
func (v *VariableChunkedRingBuffer) PopChunkInto(dst []byte) (ChunkResult, int) {
	r, n := v.PeekChunkInto(dst)
	if r != ChunkSuccess {
		return r, 0
	}
	if v.rb.DiscardElements(v.headerSize+n) != Success {
		return ChunkEmpty, 0
	}
	v.numChunks--
	return ChunkSuccess, n
}

// FreeUserBytes reports how many raw payload bytes remain free, ignoring
// the header overhead a hypothetical next push would need.
func (v *VariableChunkedRingBuffer) FreeUserBytes() int {
	return v.rb.FreeElements()
}
