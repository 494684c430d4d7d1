package ring

import (
	"encoding/binary"
	"io"
	"sync"
)

// RandomAccessStore is the minimal contract a persistent backing store
// must satisfy: io.ReaderAt/io.WriterAt, which *os.File implements, so an
// *os.File-backed, power-loss-resilient ring buffer needs no adapter beyond
// this package. fsabi's File has no ReadAt/WriteAt methods and does not
// satisfy this interface.
type RandomAccessStore interface {
	io.ReaderAt
	io.WriterAt
}

// metadataHeaderSize is the fixed on-disk layout reserved for
// (readIndex, usedCount), each a big-endian uint32.
const metadataHeaderSize = 8

// PersistentAllocator is a file-backed Allocator whose (readIndex,
// usedCount) pair lives in the store itself (the first metadataHeaderSize
// bytes), updated by a single WriteAt call so a power loss mid-update
// cannot leave the pair half-written — mirroring outpost-core's
// setReadIndexAndElementsUsedAtomically. Payload occupies the remaining
// capacity bytes after the header.
type PersistentAllocator struct {
	mu       sync.Mutex
	store    RandomAccessStore
	capacity int // payload capacity, excluding the metadata header
}

// NewPersistentAllocator wraps store, reserving capacity payload bytes
// after the metadata header. If the store already holds a valid header
// (e.g. recovered after a restart), callers should read it back via
// ReadIndex/ElementsUsed before resuming operations; this constructor does
// not itself read existing state since a fresh store's header is
// conventionally zeroed by the caller.
func NewPersistentAllocator(store RandomAccessStore, capacity int) *PersistentAllocator {
	return &PersistentAllocator{store: store, capacity: capacity}
}

func (a *PersistentAllocator) Capacity() int { return a.capacity }

func (a *PersistentAllocator) Read(offset int, dst []byte) error {
	_, err := a.store.ReadAt(dst, int64(metadataHeaderSize+offset))
	return err
}

func (a *PersistentAllocator) Write(offset int, src []byte) error {
	_, err := a.store.WriteAt(src, int64(metadataHeaderSize+offset))
	return err
}

func (a *PersistentAllocator) ReadIndex() int {
	var hdr [metadataHeaderSize]byte
	if _, err := a.store.ReadAt(hdr[:], 0); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint32(hdr[0:4]))
}

func (a *PersistentAllocator) ElementsUsed() int {
	var hdr [metadataHeaderSize]byte
	if _, err := a.store.ReadAt(hdr[:], 0); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint32(hdr[4:8]))
}

func (a *PersistentAllocator) SetReadIndex(v int) {
	a.SetReadIndexAndElementsUsedAtomically(v, a.ElementsUsed())
}

func (a *PersistentAllocator) SetElementsUsed(v int) {
	a.SetReadIndexAndElementsUsedAtomically(a.ReadIndex(), v)
}

// SetReadIndexAndElementsUsedAtomically writes both fields with a single
// WriteAt call under a's mutex.
func (a *PersistentAllocator) SetReadIndexAndElementsUsedAtomically(readIndex, used int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var hdr [metadataHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(readIndex))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(used))
	a.store.WriteAt(hdr[:], 0)
}

var _ Allocator = (*PersistentAllocator)(nil)
var _ MetadataAccessor = (*PersistentAllocator)(nil)
var _ AtomicMetadataUpdater = (*PersistentAllocator)(nil)
