package ring_test

import (
	"bytes"
	"testing"

	"github.com/tuhh-sat/pluto-core/ring"
)

func TestRingBufferWrapAroundScenario(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(10))
	if rb.Append([]byte{0, 1, 2, 3, 4, 5}) != ring.Success {
		t.Fatal("append 1 failed")
	}
	popped := make([]byte, 4)
	if rb.PopInto(popped) != ring.Success {
		t.Fatal("pop 1 failed")
	}
	if !bytes.Equal(popped, []byte{0, 1, 2, 3}) {
		t.Fatalf("popped = % x", popped)
	}
	if rb.Append([]byte{6, 7, 8, 9, 10, 11}) != ring.Success {
		t.Fatal("append 2 failed")
	}
	rest := make([]byte, rb.UsedCount())
	if rb.PopInto(rest) != ring.Success {
		t.Fatal("pop 2 failed")
	}
	want := []byte{4, 5, 6, 7, 8, 9, 10, 11}
	if !bytes.Equal(rest, want) {
		t.Fatalf("rest = % x, want % x", rest, want)
	}
}

func TestRingBufferRoundTripArbitrarySequence(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(32))
	seqs := [][]byte{{1, 2, 3}, {}, {4}, {5, 6, 7, 8, 9}}
	for _, s := range seqs {
		if rb.Append(s) != ring.Success {
			t.Fatalf("append %v failed", s)
		}
	}
	for _, s := range seqs {
		got := make([]byte, len(s))
		if rb.PopInto(got) != ring.Success {
			t.Fatalf("pop len %d failed", len(s))
		}
		if !bytes.Equal(got, s) {
			t.Fatalf("got %v, want %v", got, s)
		}
	}
}

func TestRingBufferNotEnoughSpace(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(4))
	if rb.Append([]byte{1, 2, 3, 4, 5}) != ring.NotEnoughSpace {
		t.Fatal("expected NotEnoughSpace")
	}
}

func TestRingBufferResetThenPopFails(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(8))
	rb.Append([]byte{1, 2, 3})
	rb.Reset()
	if rb.UsedCount() != 0 {
		t.Fatalf("used after reset = %d, want 0", rb.UsedCount())
	}
	if rb.PopInto(make([]byte, 1)) != ring.ReadWriteTooBig {
		t.Fatal("expected ReadWriteTooBig after reset")
	}
}

func TestRingBufferResetAfter(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(8))
	rb.Append([]byte{1, 2, 3, 4})
	if !rb.ResetAfter(2) {
		t.Fatal("ResetAfter(2) should succeed when usedCount=4")
	}
	if rb.UsedCount() != 2 {
		t.Fatalf("used = %d, want 2", rb.UsedCount())
	}
	if rb.ResetAfter(2) {
		t.Fatal("ResetAfter(k>=usedCount) should fail")
	}
}

func TestRingBufferPeekZeroCopy(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(8))
	rb.Append([]byte{1, 2, 3, 4})
	got := rb.Peek(2, 1)
	if !bytes.Equal(got, []byte{2, 3}) {
		t.Fatalf("peek = % x", got)
	}
	if rb.UsedCount() != 4 {
		t.Fatal("peek must not advance read pointer")
	}
}

func TestVariableChunkedRoundTrip(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(64))
	v := ring.NewVariableChunkedRingBuffer(rb, 2)
	data := []byte{1, 2, 3, 4, 5}
	if v.PushChunk(data) != ring.ChunkSuccess {
		t.Fatal("pushChunk failed")
	}
	dst := make([]byte, 16)
	r, n := v.PopChunkInto(dst)
	if r != ring.ChunkSuccess {
		t.Fatalf("popChunkInto failed: %v", r)
	}
	if !bytes.Equal(dst[:n], data) {
		t.Fatalf("popped chunk = % x, want % x", dst[:n], data)
	}
}

func TestVariableChunkedEvictionScenario(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(12))
	v := ring.NewVariableChunkedRingBuffer(rb, 2)
	for i := 0; i < 3; i++ {
		if v.PushChunk([]byte{byte(i), byte(i), byte(i)}) != ring.ChunkSuccess {
			t.Fatalf("push %d failed", i)
		}
	}
	if v.NumberOfChunks() != 2 {
		t.Fatalf("chunkCount = %d, want 2 after eviction", v.NumberOfChunks())
	}
}

func TestVariableChunkedRefusesOversizedChunk(t *testing.T) {
	rb := ring.New(ring.NewRAMAllocator(8))
	v := ring.NewVariableChunkedRingBuffer(rb, 2)
	if v.PushChunk(make([]byte, 100)) != ring.ChunkTooLarge {
		t.Fatal("expected ChunkTooLarge")
	}
}

func TestPersistentAllocatorAtomicMetadata(t *testing.T) {
	store := newMemStore(64)
	alloc := ring.NewPersistentAllocator(store, 16)
	rb := ring.New(alloc)
	if rb.Append([]byte{1, 2, 3}) != ring.Success {
		t.Fatal("append failed")
	}
	if alloc.ElementsUsed() != 3 {
		t.Fatalf("persisted usedCount = %d, want 3", alloc.ElementsUsed())
	}
	got := make([]byte, 3)
	if rb.PopInto(got) != ring.Success {
		t.Fatal("pop failed")
	}
	if alloc.ReadIndex() != 3 {
		t.Fatalf("persisted readIndex = %d, want 3", alloc.ReadIndex())
	}
}

// memStore is a trivial in-memory io.ReaderAt/io.WriterAt for exercising
// PersistentAllocator without a real filesystem.
type memStore struct {
	buf []byte
}

func newMemStore(size int) *memStore { return &memStore{buf: make([]byte, size)} }

func (m *memStore) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m.buf[off:])
	return n, nil
}

func (m *memStore) WriteAt(p []byte, off int64) (int, error) {
	n := copy(m.buf[off:], p)
	return n, nil
}
