package pool_test

import (
	"testing"

	"github.com/tuhh-sat/pluto-core/pool"
)

func TestMemoryPoolAllocateFreeConservesCount(t *testing.T) {
	p := pool.NewMemoryPool(32, 4, 8)
	var chunks [][]byte
	for i := 0; i < 4; i++ {
		c := p.Allocate()
		if c == nil {
			t.Fatalf("allocate %d: pool exhausted early", i)
		}
		chunks = append(chunks, c)
	}
	if p.Allocate() != nil {
		t.Fatal("expected nil from exhausted pool")
	}
	if p.Available() != 0 {
		t.Fatalf("available = %d, want 0", p.Available())
	}
	for _, c := range chunks[:2] {
		if !p.Free(c) {
			t.Fatal("free failed unexpectedly")
		}
	}
	if p.Available() != 2 {
		t.Fatalf("available = %d, want 2", p.Available())
	}
}

func TestMemoryPoolSingleChunkReuse(t *testing.T) {
	p := pool.NewMemoryPool(16, 1, 8)
	a := p.Allocate()
	if a == nil {
		t.Fatal("allocate returned nil")
	}
	if !p.Free(a) {
		t.Fatal("free failed")
	}
	b := p.Allocate()
	if b == nil {
		t.Fatal("second allocate returned nil")
	}
	if &a[0] != &b[0] {
		t.Fatal("allocate;free;allocate on a size-1 pool should return the same chunk")
	}
}

func TestMemoryPoolDoubleFreeDetected(t *testing.T) {
	p := pool.NewMemoryPool(16, 2, 8)
	a := p.Allocate()
	if !p.Free(a) {
		t.Fatal("first free should succeed")
	}
	if p.Free(a) {
		t.Fatal("second free of the same chunk should be detected and rejected")
	}
}

func TestMemoryPoolAvailableInvariant(t *testing.T) {
	const n = 8
	p := pool.NewMemoryPool(16, n, 8)
	var held [][]byte
	for i := 0; i < 5; i++ {
		held = append(held, p.Allocate())
	}
	for i := 0; i < 2; i++ {
		p.Free(held[i])
	}
	held = held[2:]
	k, j := 5, 2
	if got := p.Available(); got != n-(k-j) {
		t.Fatalf("available = %d, want %d", got, n-(k-j))
	}
	_ = held
}
