package pool

import "sync/atomic"

// SharedBuffer owns a byte region plus an atomic reference count, grounded
// on api.Buffer/api.Releaser's Release-on-drop shape and spec §4.6's
// refcount convention: a plain pointer contributes 1, a child view
// contributes 2 (one for the child's own reference, one for the implicit
// parent-keeps-alive link), which lets "drop original parent, keep a child
// view" work without weak references.
type SharedBuffer struct {
	data     []byte
	refcount atomic.Int32
	release  func(*SharedBuffer) // pool callback invoked when refcount hits 0
}

// NewSharedBuffer wraps data with refcount 0; callers obtain the first live
// reference via SharedBufferPointer, which brings it to 1.
func NewSharedBuffer(data []byte, release func(*SharedBuffer)) *SharedBuffer {
	return &SharedBuffer{data: data, release: release}
}

func (b *SharedBuffer) Refcount() int32 { return b.refcount.Load() }

func (b *SharedBuffer) retain(n int32) {
	b.refcount.Add(n)
}

// releaseN decrements refcount by n and, if it reaches zero, invokes the
// pool release callback exactly once.
func (b *SharedBuffer) releaseN(n int32) {
	if b.refcount.Add(-n) == 0 && b.release != nil {
		b.release(b)
	}
}

// SharedBufferPointer is an owning handle to a SharedBuffer: construction
// increments refcount by 1, Release decrements by 1. Copying a pointer
// value (Go has no copy constructors) does not itself retain — callers must
// call Clone explicitly, matching the explicit-copy discipline spec §4.6
// requires ("passing a handle by value vs reference preserves the final
// refcount" is a property of this API surface, not of Go assignment).
type SharedBufferPointer struct {
	buf  *SharedBuffer
	live bool
}

// NewSharedBufferPointer creates the first live pointer to buf, bringing
// its refcount to 1.
func NewSharedBufferPointer(buf *SharedBuffer) *SharedBufferPointer {
	buf.retain(1)
	return &SharedBufferPointer{buf: buf, live: true}
}

// Clone returns a second live pointer to the same buffer, incrementing
// refcount by 1.
func (p *SharedBufferPointer) Clone() *SharedBufferPointer {
	if !p.live {
		return &SharedBufferPointer{}
	}
	p.buf.retain(1)
	return &SharedBufferPointer{buf: p.buf, live: true}
}

// Move transfers ownership to a new pointer value without touching
// refcount, invalidating p (mirrors C++ move semantics: p.Refcount() after
// Move reports 0, i.e. "not live").
func (p *SharedBufferPointer) Move() *SharedBufferPointer {
	moved := &SharedBufferPointer{buf: p.buf, live: p.live}
	p.buf = nil
	p.live = false
	return moved
}

// Underlying exposes the backing SharedBuffer so callers can derive
// SharedChildPointer views from a live parent pointer.
func (p *SharedBufferPointer) Underlying() *SharedBuffer {
	if !p.live {
		return nil
	}
	return p.buf
}

// Bytes returns the underlying data, or nil if the pointer is not live.
func (p *SharedBufferPointer) Bytes() []byte {
	if !p.live {
		return nil
	}
	return p.buf.data
}

// Refcount reports the buffer's current refcount, or 0 if this handle is
// not live (e.g. after Move).
func (p *SharedBufferPointer) Refcount() int32 {
	if !p.live {
		return 0
	}
	return p.buf.Refcount()
}

// Release drops this pointer's reference. Safe to call multiple times.
func (p *SharedBufferPointer) Release() {
	if !p.live {
		return
	}
	p.buf.releaseN(1)
	p.live = false
}

// SharedChildPointer is a view into a parent SharedBuffer carrying
// (offset, length, typeTag); it contributes 2 to the parent's refcount for
// as long as it is live (spec §4.6).
type SharedChildPointer struct {
	buf     *SharedBuffer
	offset  int
	length  int
	typeTag int
	live    bool
}

// ErrChildOutOfRange is returned by NewSharedChildPointer when offset+length
// exceeds the parent's length, or a non-zero-length child is requested from
// a zero-length parent.
var ErrChildOutOfRange = errChildOutOfRange{}

type errChildOutOfRange struct{}

func (errChildOutOfRange) Error() string { return "pool: child view out of parent range" }

// NewSharedChildPointer constructs a child view, retaining 2 references on
// the parent. Returns ErrChildOutOfRange if offset+length > len(parent) or
// (length > 0 && len(parent) == 0); a zero-length child of a zero-length
// parent is legal and allocation-free (spec §4.6 invariant c/d).
func NewSharedChildPointer(parent *SharedBuffer, offset, length, typeTag int) (*SharedChildPointer, error) {
	if length > 0 && len(parent.data) == 0 {
		return nil, ErrChildOutOfRange
	}
	if offset+length > len(parent.data) {
		return nil, ErrChildOutOfRange
	}
	parent.retain(2)
	return &SharedChildPointer{buf: parent, offset: offset, length: length, typeTag: typeTag, live: true}, nil
}

// Bytes returns the child's sub-slice view into the parent, or nil if not
// live.
func (c *SharedChildPointer) Bytes() []byte {
	if !c.live {
		return nil
	}
	return c.buf.data[c.offset : c.offset+c.length]
}

func (c *SharedChildPointer) TypeTag() int { return c.typeTag }
func (c *SharedChildPointer) Offset() int  { return c.offset }
func (c *SharedChildPointer) Length() int  { return c.length }

// Release drops the child's 2 references on the parent. Safe to call
// multiple times.
func (c *SharedChildPointer) Release() {
	if !c.live {
		return
	}
	c.buf.releaseN(2)
	c.live = false
}
