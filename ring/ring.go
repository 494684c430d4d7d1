// Package ring implements the generic ring-buffer framework of spec §4.7:
// a FIFO over a pluggable Allocator, with optional capability interfaces for
// zero-copy direct access, allocator-owned metadata, and atomic combined
// metadata updates (for power-loss-resilient backends). Algorithm is
// ported from outpost-core's ring_buffer_impl.h; Go idiom (struct layout,
// constructor validation) follows pool/ring.go and core/concurrency/ring.go
// in the teacher repository — the algorithm itself necessarily diverges
// from the teacher's power-of-two Vyukov ring since this spec requires
// arbitrary capacity and pluggable persistent backends.
package ring

import "errors"

// Result mirrors spec §7's ring-buffer error taxonomy.
type Result int

const (
	Success Result = iota
	NotEnoughSpace
	ReadWriteTooBig
	ReadWriteOverBoundary
)

func (r Result) Error() string {
	switch r {
	case Success:
		return "success"
	case NotEnoughSpace:
		return "not enough space"
	case ReadWriteTooBig:
		return "read/write too big"
	case ReadWriteOverBoundary:
		return "read/write crosses allocator boundary"
	default:
		return "unknown ring result"
	}
}

var errUnknownResult = errors.New("ring: unexpected result")

// Allocator is the minimal contract a ring buffer needs: byte-addressable
// read/write over a fixed-capacity backing store. offset is always modulo
// Capacity(); callers never ask for a read/write crossing the end of the
// backing store (RingBuffer itself splits any request that wraps).
type Allocator interface {
	Read(offset int, dst []byte) error
	Write(offset int, src []byte) error
	Capacity() int
}

// DirectAccessor is an optional capability: allocators that keep their
// data contiguous in addressable memory can hand out zero-copy slices.
type DirectAccessor interface {
	BufferAt(offset, length int) []byte
}

// MetadataAccessor is an optional capability: allocators that persist
// across restarts keep (readIndex, usedCount) themselves rather than
// letting RingBuffer hold them in local fields.
type MetadataAccessor interface {
	ReadIndex() int
	SetReadIndex(int)
	ElementsUsed() int
	SetElementsUsed(int)
}

// AtomicMetadataUpdater is an optional capability: allocators that can
// update (readIndex, usedCount) in one atomic step so a power loss never
// observes a half-updated pair.
type AtomicMetadataUpdater interface {
	SetReadIndexAndElementsUsedAtomically(readIndex, used int)
}

// RingBuffer is a generic byte FIFO over an Allocator. The zero value is
// not usable; construct with New.
type RingBuffer struct {
	alloc      Allocator
	meta       MetadataAccessor // nil if alloc doesn't persist metadata itself
	atomicMeta AtomicMetadataUpdater

	// local metadata, used only when alloc does not implement MetadataAccessor.
	localReadIndex int
	localUsed      int
}

// New constructs a RingBuffer over alloc. If alloc implements
// MetadataAccessor, (readIndex, usedCount) are delegated to it; otherwise
// they are held locally, starting at (0, 0).
func New(alloc Allocator) *RingBuffer {
	rb := &RingBuffer{alloc: alloc}
	if m, ok := alloc.(MetadataAccessor); ok {
		rb.meta = m
	}
	if a, ok := alloc.(AtomicMetadataUpdater); ok {
		rb.atomicMeta = a
	}
	return rb
}

func (rb *RingBuffer) readIndex() int {
	if rb.meta != nil {
		return rb.meta.ReadIndex()
	}
	return rb.localReadIndex
}

func (rb *RingBuffer) usedCount() int {
	if rb.meta != nil {
		return rb.meta.ElementsUsed()
	}
	return rb.localUsed
}

func (rb *RingBuffer) setMetadata(readIndex, used int) {
	if rb.atomicMeta != nil {
		rb.atomicMeta.SetReadIndexAndElementsUsedAtomically(readIndex, used)
		return
	}
	if rb.meta != nil {
		rb.meta.SetReadIndex(readIndex)
		rb.meta.SetElementsUsed(used)
		return
	}
	rb.localReadIndex = readIndex
	rb.localUsed = used
}

// Capacity returns the allocator's fixed capacity.
func (rb *RingBuffer) Capacity() int { return rb.alloc.Capacity() }

// UsedCount returns the number of elements currently stored.
func (rb *RingBuffer) UsedCount() int { return rb.usedCount() }

// FreeElements returns the number of elements that can still be appended.
func (rb *RingBuffer) FreeElements() int { return rb.Capacity() - rb.usedCount() }

func (rb *RingBuffer) IsEmpty() bool { return rb.usedCount() == 0 }
func (rb *RingBuffer) IsFull() bool  { return rb.usedCount() == rb.Capacity() }

func increment(index, count, capacity int) int {
	return (index + count) % capacity
}

func (rb *RingBuffer) writeIndex() int {
	return increment(rb.readIndex(), rb.usedCount(), rb.Capacity())
}

// splitWrite writes src starting at physical offset, wrapping around the
// allocator's capacity exactly once if necessary (append/appendPaddingElements
// never write more than Capacity() bytes in one call, so one wrap suffices).
func (rb *RingBuffer) splitWrite(offset int, src []byte) error {
	capacity := rb.Capacity()
	if offset+len(src) <= capacity {
		return rb.alloc.Write(offset, src)
	}
	firstLen := capacity - offset
	if err := rb.alloc.Write(offset, src[:firstLen]); err != nil {
		return err
	}
	return rb.alloc.Write(0, src[firstLen:])
}

func (rb *RingBuffer) splitRead(offset int, dst []byte) error {
	capacity := rb.Capacity()
	if offset+len(dst) <= capacity {
		return rb.alloc.Read(offset, dst)
	}
	firstLen := capacity - offset
	if err := rb.alloc.Read(offset, dst[:firstLen]); err != nil {
		return err
	}
	return rb.alloc.Read(0, dst[firstLen:])
}

// Append writes src at the tail. Succeeds iff usedCount+len(src) <= capacity;
// a zero-length src always succeeds.
func (rb *RingBuffer) Append(src []byte) Result {
	if len(src) == 0 {
		return Success
	}
	if rb.usedCount()+len(src) > rb.Capacity() {
		return NotEnoughSpace
	}
	if err := rb.splitWrite(rb.writeIndex(), src); err != nil {
		return ReadWriteOverBoundary
	}
	rb.setMetadata(rb.readIndex(), rb.usedCount()+len(src))
	return Success
}

// AppendPaddingElements advances the write pointer by n without writing,
// reserving space for an out-of-band fill. Fails on overflow.
func (rb *RingBuffer) AppendPaddingElements(n int) Result {
	if n == 0 {
		return Success
	}
	if rb.usedCount()+n > rb.Capacity() {
		return NotEnoughSpace
	}
	rb.setMetadata(rb.readIndex(), rb.usedCount()+n)
	return Success
}

// PeekInto copies len(dst) bytes starting at logical offset into dst
// without advancing the read pointer.
func (rb *RingBuffer) PeekInto(dst []byte, offset int) Result {
	if len(dst) == 0 {
		return Success
	}
	if offset+len(dst) > rb.usedCount() {
		return ReadWriteTooBig
	}
	physical := increment(rb.readIndex(), offset, rb.Capacity())
	if err := rb.splitRead(physical, dst); err != nil {
		return ReadWriteOverBoundary
	}
	return Success
}

// PopInto is PeekInto(dst, 0) followed by DiscardElements(len(dst)).
func (rb *RingBuffer) PopInto(dst []byte) Result {
	if r := rb.PeekInto(dst, 0); r != Success {
		return r
	}
	return rb.DiscardElements(len(dst))
}

// DiscardElements advances the read pointer by n, as if n bytes had been
// popped without copying them out.
func (rb *RingBuffer) DiscardElements(n int) Result {
	if n == 0 {
		return Success
	}
	if n > rb.usedCount() {
		return ReadWriteTooBig
	}
	newReadIndex := increment(rb.readIndex(), n, rb.Capacity())
	rb.setMetadata(newReadIndex, rb.usedCount()-n)
	return Success
}

// Reset clears both counters: the buffer becomes empty and the read index
// returns to zero.
func (rb *RingBuffer) Reset() {
	rb.setMetadata(0, 0)
}

// ResetAfter truncates usedCount to k, dropping tail (most recently
// written) elements. Returns false if k >= usedCount (nothing to drop).
func (rb *RingBuffer) ResetAfter(k int) bool {
	if k >= rb.usedCount() {
		return false
	}
	rb.setMetadata(rb.readIndex(), k)
	return true
}

// GetAvailableContinuousElements returns the number of bytes available to
// read starting at logical offset before either end-of-data or
// end-of-backing-buffer is hit, whichever comes first.
func (rb *RingBuffer) GetAvailableContinuousElements(offset int) int {
	avail := rb.usedCount() - offset
	if avail <= 0 {
		return 0
	}
	physical := increment(rb.readIndex(), offset, rb.Capacity())
	toEnd := rb.Capacity() - physical
	if avail < toEnd {
		return avail
	}
	return toEnd
}

// GetFreeContinuousElements is the write-side symmetric counterpart: bytes
// that can be appended before wrapping.
func (rb *RingBuffer) GetFreeContinuousElements() int {
	free := rb.FreeElements()
	toEnd := rb.Capacity() - rb.writeIndex()
	if free < toEnd {
		return free
	}
	return toEnd
}

// Peek returns up to n bytes from offset with no copy, if the allocator
// supports direct access and the requested range is contiguous. Returns
// nil if offset is out of range, the allocator lacks direct access, or the
// range would wrap (callers needing a wrapped zero-copy view should use
// two Peek calls bounded by GetAvailableContinuousElements).
func (rb *RingBuffer) Peek(n, offset int) []byte {
	da, ok := rb.alloc.(DirectAccessor)
	if !ok {
		return nil
	}
	avail := rb.GetAvailableContinuousElements(offset)
	if avail <= 0 {
		return nil
	}
	if n > avail {
		n = avail
	}
	physical := increment(rb.readIndex(), offset, rb.Capacity())
	return da.BufferAt(physical, n)
}

// Pop is Peek followed by discarding exactly the bytes returned.
func (rb *RingBuffer) Pop(n int) []byte {
	got := rb.Peek(n, 0)
	if len(got) == 0 {
		return got
	}
	rb.DiscardElements(len(got))
	return got
}
