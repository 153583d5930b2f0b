package linhash

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Allocator accounts for the memory an Array takes for its buffer.
//
// Sizes are in bytes. The Go runtime owns the memory itself; an Allocator
// decides whether a buffer of the requested size may exist. Any returned
// error makes the calling Array operation fail with ErrAllocationFailure
// while leaving the Array untouched.
type Allocator interface {
	Allocate(size int64) error
	Reallocate(oldSize, newSize int64) error
	Release(size int64)
}

// HeapAllocator never refuses a request.
type HeapAllocator struct{}

// Allocate always succeeds.
func (HeapAllocator) Allocate(int64) error { return nil }

// Reallocate always succeeds.
func (HeapAllocator) Reallocate(int64, int64) error { return nil }

// Release does nothing; the garbage collector reclaims the buffer.
func (HeapAllocator) Release(int64) {}

// OOMHandler is called by a BudgetAllocator when a request of need bytes does
// not fit. Returning true asks the allocator to retry once, presumably after
// the handler released memory elsewhere.
type OOMHandler func(need int64) bool

// BudgetAllocator enforces a byte budget that may be shared by several
// arrays or tables.
//
// It is safe for concurrent use, so a single budget can back tables that
// are each serialized by their own caller.
type BudgetAllocator struct {
	limit int64
	sem   *semaphore.Weighted
	used  atomic.Int64
	oom   OOMHandler
}

// BudgetOption configures a BudgetAllocator.
type BudgetOption func(b *BudgetAllocator)

// WithOOMHandler installs a handler consulted before a request is refused.
func WithOOMHandler(h OOMHandler) BudgetOption {
	return func(b *BudgetAllocator) {
		b.oom = h
	}
}

// NewBudgetAllocator returns an allocator that refuses requests once limit
// bytes are reserved. A limit <= 0 disables the hard limit and only tracks
// usage.
func NewBudgetAllocator(limit int64, opts ...BudgetOption) *BudgetAllocator {
	b := &BudgetAllocator{limit: limit}
	if limit > 0 {
		b.sem = semaphore.NewWeighted(limit)
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *BudgetAllocator) acquire(size int64) error {
	if size <= 0 {
		return nil
	}

	if b.sem != nil && !b.sem.TryAcquire(size) {
		if b.oom == nil || !b.oom(size) || !b.sem.TryAcquire(size) {
			return ErrMemoryLimitExceeded
		}
	}

	b.used.Add(size)

	return nil
}

// Allocate reserves size bytes.
func (b *BudgetAllocator) Allocate(size int64) error {
	return b.acquire(size)
}

// Reallocate moves a reservation from oldSize to newSize bytes. On failure
// the old reservation is kept.
func (b *BudgetAllocator) Reallocate(oldSize, newSize int64) error {
	switch {
	case newSize > oldSize:
		return b.acquire(newSize - oldSize)
	case newSize < oldSize:
		b.Release(oldSize - newSize)
	}

	return nil
}

// Release returns size bytes to the budget.
func (b *BudgetAllocator) Release(size int64) {
	if size <= 0 {
		return
	}

	if b.sem != nil {
		b.sem.Release(size)
	}
	b.used.Add(-size)
}

// Used returns the number of reserved bytes.
func (b *BudgetAllocator) Used() int64 {
	return b.used.Load()
}

// Limit returns the configured limit in bytes (0 if unlimited).
func (b *BudgetAllocator) Limit() int64 {
	if b.sem == nil {
		return 0
	}

	return b.limit
}
