package linhash

import (
	"iter"
	"unsafe"
)

const (
	// Target size of one growth step, in bytes, minus the allocator overhead.
	arrayBlockSize = 8096
	mallocOverhead = 8

	arrayMinIncrement = 16
	arrayInitNumber   = 8
)

type ownership uint8

const (
	owned ownership = iota
	// The buffer was handed in by the caller and must never be released.
	borrowed
)

// Array is a growable, densely packed array of fixed-size elements.
//
// The first Len elements are live. Pointers returned by Alloc, Pop and At
// stay valid only until the next call that grows or shrinks the buffer.
// Array is not safe for concurrent use.
type Array[E any] struct {
	buf       []E
	count     int
	increment int
	elemSize  int64
	owner     ownership
	alloc     Allocator
}

// ArrayOption configures an Array.
type ArrayOption[E any] func(a *Array[E])

// WithBuffer makes the array use buf as its initial storage. The array
// never releases a borrowed buffer; the first growth copies it into an
// owned one.
func WithBuffer[E any](buf []E) ArrayOption[E] {
	return func(a *Array[E]) {
		a.buf = buf[:len(buf):len(buf)]
		a.owner = borrowed
	}
}

// WithArrayAllocator sets the allocator the array reserves its buffer from.
func WithArrayAllocator[E any](alloc Allocator) ArrayOption[E] {
	return func(a *Array[E]) {
		if alloc != nil {
			a.alloc = alloc
		}
	}
}

// NewArray creates an array with room for initial elements, growing by
// increment elements at a time. A zero increment is derived from the
// element size.
//
// The returned array is always usable. When the initial reservation fails,
// NewArray returns an empty, zero-capacity array together with an error
// wrapping ErrAllocationFailure.
func NewArray[E any](initial, increment int, opts ...ArrayOption[E]) (*Array[E], error) {
	var zero E

	a := &Array[E]{
		elemSize: int64(unsafe.Sizeof(zero)),
		alloc:    HeapAllocator{},
	}

	for _, opt := range opts {
		opt(a)
	}

	if increment <= 0 {
		increment = max(int((arrayBlockSize-mallocOverhead)/max(a.elemSize, 1)), arrayMinIncrement)
		if initial > arrayInitNumber && increment > initial*2 {
			increment = initial * 2
		}
	}
	a.increment = increment

	if a.owner == borrowed {
		return a, nil
	}

	if initial <= 0 {
		initial = increment
	}

	if err := a.alloc.Allocate(a.bytes(initial)); err != nil {
		return a, allocError(err)
	}
	a.buf = make([]E, initial)

	return a, nil
}

func (a *Array[E]) bytes(n int) int64 {
	return int64(n) * a.elemSize
}

// resize moves the live elements into an owned buffer of n elements.
func (a *Array[E]) resize(n int) error {
	var err error
	if a.owner == borrowed {
		err = a.alloc.Allocate(a.bytes(n))
	} else {
		err = a.alloc.Reallocate(a.bytes(len(a.buf)), a.bytes(n))
	}
	if err != nil {
		return allocError(err)
	}

	buf := make([]E, n)
	copy(buf, a.buf[:a.count])

	a.buf = buf
	a.owner = owned

	return nil
}

// Alloc hands out the next free slot, growing the buffer by one increment
// when it is full. On failure the array is unchanged.
func (a *Array[E]) Alloc() (*E, error) {
	if a.count == len(a.buf) {
		if err := a.resize(len(a.buf) + a.increment); err != nil {
			return nil, err
		}
	}

	slot := &a.buf[a.count]
	a.count++

	return slot, nil
}

// Append copies e into a new slot at the end of the array.
func (a *Array[E]) Append(e E) error {
	slot, err := a.Alloc()
	if err != nil {
		return err
	}
	*slot = e

	return nil
}

// Pop removes the last element and returns a pointer to its slot, which
// stays valid until the next growth. It returns nil if the array is empty.
func (a *Array[E]) Pop() *E {
	if a.count == 0 {
		return nil
	}
	a.count--

	return &a.buf[a.count]
}

// Get returns the element at idx. Out-of-range indexes yield the zero value
// and false.
func (a *Array[E]) Get(idx int) (E, bool) {
	if idx < 0 || idx >= a.count {
		var zero E
		return zero, false
	}

	return a.buf[idx], true
}

// Set writes e at idx. Writing past the end grows the array to cover idx,
// zero-filling the elements between the old end and idx.
func (a *Array[E]) Set(idx int, e E) error {
	if idx < 0 {
		return ErrOutOfRange
	}

	if idx >= a.count {
		if idx >= len(a.buf) {
			n := (idx + a.increment) / a.increment * a.increment
			if err := a.resize(n); err != nil {
				return err
			}
		}
		clear(a.buf[a.count:idx])
		a.count = idx + 1
	}
	a.buf[idx] = e

	return nil
}

// Delete removes the element at idx, shifting the following elements down.
// It reports false if idx is out of range.
func (a *Array[E]) Delete(idx int) bool {
	if idx < 0 || idx >= a.count {
		return false
	}

	copy(a.buf[idx:], a.buf[idx+1:a.count])
	a.count--

	var zero E
	a.buf[a.count] = zero

	return true
}

// ShrinkToFit trims an owned buffer to max(Len, 1) elements.
func (a *Array[E]) ShrinkToFit() error {
	if a.owner == borrowed || a.buf == nil {
		return nil
	}

	n := max(a.count, 1)
	if n == len(a.buf) {
		return nil
	}

	return a.resize(n)
}

// Reset drops all elements but keeps the buffer.
func (a *Array[E]) Reset() {
	clear(a.buf[:a.count])
	a.count = 0
}

// Release frees an owned buffer and empties the array. A borrowed buffer
// is kept and only emptied.
func (a *Array[E]) Release() {
	if a.owner == borrowed {
		a.Reset()
		return
	}

	if a.buf != nil {
		a.alloc.Release(a.bytes(len(a.buf)))
	}
	a.buf = nil
	a.count = 0
}

// At returns a pointer to the slot at idx without a range check against
// Len. It panics if idx is outside the buffer.
func (a *Array[E]) At(idx int) *E {
	return &a.buf[idx]
}

// Len returns the number of live elements.
func (a *Array[E]) Len() int { return a.count }

// Cap returns the number of elements the buffer holds without growing.
func (a *Array[E]) Cap() int { return len(a.buf) }

// Increment returns the growth step in elements.
func (a *Array[E]) Increment() int { return a.increment }

// Borrowed reports whether the array still runs on a caller-supplied buffer.
func (a *Array[E]) Borrowed() bool { return a.owner == borrowed }

// All iterates over the live elements in index order.
func (a *Array[E]) All() iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for i := 0; i < a.count; i++ {
			if !yield(i, a.buf[i]) {
				return
			}
		}
	}
}
