// Package buffer provides a growable byte buffer with ref-counted,
// zero-copy slices over an internal/arena.Arena. Growth reallocates
// within the arena and copies; slicing shares storage and bumps a
// refcount instead of copying, so many consumers can read the same
// backing bytes without either an arena allocation or a heap copy per
// consumer.
package buffer

import (
	"errors"

	"github.com/pixiejuice/engine/internal/arena"
)

// ErrInvalidHandle is returned by operations on a Buffer whose refcount
// has already dropped to zero.
var ErrInvalidHandle = errors.New("buffer: use of released handle")

// minGrow is the smallest capacity Create/Resize will round up to.
const minGrow = 64

// growthFactor is the geometric multiplier grow applies to the current
// capacity whenever a Buffer needs more room than its allocation has.
const growthFactor = 1.5

// Buffer is a handle onto a region of an Arena: (arena, head offset,
// length, capacity, refcount). Buffer values are small and are meant to
// be passed by pointer; Retain/Release manage the shared refcount.
type Buffer struct {
	a        *arena.Arena
	shared   *shared
	head     int // offset of this handle's view, relative to shared.offset
	length   int
}

// shared is the refcounted allocation a family of slices all point into.
type shared struct {
	offset   int // arena offset of the allocation's start
	capacity int
	refcount int32
}

// Create allocates a new Buffer with the given capacity (rounded up to
// minGrow and to the arena's cache-line size).
func Create(a *arena.Arena, capacity int) (*Buffer, error) {
	cap2 := roundCapacity(capacity)
	off, err := a.Alloc(cap2, 8)
	if err != nil {
		return nil, err
	}
	s := &shared{offset: off, capacity: cap2, refcount: 1}
	return &Buffer{a: a, shared: s, head: 0, length: 0}, nil
}

// Wrap creates a Buffer view over an existing arena allocation without
// copying. The caller asserts that [offset, offset+length) is a valid,
// exclusively-owned region.
func Wrap(a *arena.Arena, offset, length int) *Buffer {
	s := &shared{offset: offset, capacity: length, refcount: 1}
	return &Buffer{a: a, shared: s, head: 0, length: length}
}

func roundCapacity(requested int) int {
	if requested < minGrow {
		requested = minGrow
	}
	line := arena.CacheLineSize
	if line <= 0 {
		line = 64
	}
	return (requested + line - 1) &^ (line - 1)
}

// Len returns the number of valid bytes in this view.
func (b *Buffer) Len() int { return b.length }

// Cap returns the total capacity of the underlying shared allocation.
func (b *Buffer) Cap() int { return b.shared.capacity }

// Bytes returns the live bytes of this view. The slice aliases arena
// storage and is invalidated by Resize (which may relocate) or by the
// arena being Reset.
func (b *Buffer) Bytes() []byte {
	start := b.shared.offset + b.head
	return b.a.Bytes(start, b.length)
}

// Append appends data to the buffer, growing (reallocating within the
// arena and copying) if necessary. Append is only valid on a Buffer that
// is the sole owner of its shared allocation's tail (refcount == 1);
// appending to a shared slice would silently corrupt sibling views, so it
// returns ErrInvalidHandle instead.
func (b *Buffer) Append(data []byte) error {
	if b.shared.refcount != 1 {
		return ErrInvalidHandle
	}
	need := b.head + b.length + len(data)
	if need > b.shared.capacity {
		if err := b.grow(need); err != nil {
			return err
		}
	}
	copy(b.a.Bytes(b.shared.offset+b.head+b.length, len(data)), data)
	b.length += len(data)
	return nil
}

// Resize grows (or shrinks) the buffer's logical length to newLen,
// reallocating within the arena if newLen exceeds the current capacity.
func (b *Buffer) Resize(newLen int) error {
	if newLen <= b.shared.capacity-b.head {
		b.length = newLen
		return nil
	}
	if err := b.grow(b.head + newLen); err != nil {
		return err
	}
	b.length = newLen
	return nil
}

// grow reallocates the shared allocation to at least need bytes,
// applying the geometric ×1.5 growth policy, and copies live bytes over.
func (b *Buffer) grow(need int) error {
	newCap := roundCapacity(int(float64(b.shared.capacity) * growthFactor))
	if newCap < need {
		newCap = roundCapacity(need)
	}
	off, err := b.a.Alloc(newCap, 8)
	if err != nil {
		return err
	}
	old := b.a.Bytes(b.shared.offset, b.shared.capacity)
	copy(b.a.Bytes(off, newCap), old)
	b.shared.offset = off
	b.shared.capacity = newCap
	return nil
}

// Slice returns a new Buffer view over [offset, offset+length) of this
// buffer's logical bytes, sharing storage (zero-copy) and bumping the
// shared refcount. The slice's lifetime must not exceed the parent's.
func (b *Buffer) Slice(offset, length int) (*Buffer, error) {
	if offset < 0 || length < 0 || offset+length > b.length {
		return nil, errors.New("buffer: slice out of range")
	}
	b.Retain()
	return &Buffer{a: b.a, shared: b.shared, head: b.head + offset, length: length}, nil
}

// Retain increments the shared refcount.
func (b *Buffer) Retain() {
	b.shared.refcount++
}

// Release decrements the shared refcount, clamping it at zero. It never
// moves the arena watermark, not even when the last reference to the
// tail allocation is released: the bytes stay allocated until the whole
// arena resets.
func (b *Buffer) Release() {
	b.shared.refcount--
	if b.shared.refcount < 0 {
		b.shared.refcount = 0
	}
}

// Refcount returns the current shared refcount (for tests/diagnostics).
func (b *Buffer) Refcount() int32 { return b.shared.refcount }
