package pool

import "encoding/binary"

// ObjectPool wraps a MemoryPool with fixed-size encode/decode functions so
// callers allocate/free typed values instead of raw byte chunks, mirroring
// outpost-core's ObjectPool<T,N> (placement-construct on alloc, destroy on
// free) adapted to Go's value semantics: Encode serializes T into the
// chunk on Put, Decode materializes T from the chunk on Get.
type ObjectPool[T any] struct {
	backing *MemoryPool
	encode  func(T, []byte)
	decode  func([]byte) T
}

// NewObjectPool constructs a typed pool of n objects, each serialized into
// size bytes via encode/decode.
func NewObjectPool[T any](n, size, alignment int, encode func(T, []byte), decode func([]byte) T) *ObjectPool[T] {
	return &ObjectPool[T]{
		backing: NewMemoryPool(size, n, alignment),
		encode:  encode,
		decode:  decode,
	}
}

// Get allocates a chunk and returns the T decoded from the chunk's current
// bytes, together with the chunk. The chunk is not cleared first: its
// leading bytes still hold the MemoryPool's free-list index, and the rest
// holds whatever was last stored there (zero for a never-used chunk).
func (p *ObjectPool[T]) Get() (T, []byte, bool) {
	chunk := p.backing.Allocate()
	if chunk == nil {
		var zero T
		return zero, nil, false
	}
	return p.decode(chunk), chunk, true
}

// Put encodes v into chunk and returns it to the pool.
func (p *ObjectPool[T]) Put(v T, chunk []byte) bool {
	p.encode(v, chunk)
	return p.backing.Free(chunk)
}

// Available returns the number of free slots.
func (p *ObjectPool[T]) Available() int {
	return p.backing.Available()
}

// Uint32Encode/Uint32Decode are convenience codecs for pools of plain u32
// values, used by tests and small parameter-table pools.
func Uint32Encode(v uint32, buf []byte) { binary.BigEndian.PutUint32(buf, v) }
func Uint32Decode(buf []byte) uint32    { return binary.BigEndian.Uint32(buf) }
