package linhash

type options[T any] struct {
	hashFunc    HashFunc
	equalFunc   EqualFunc
	freeFunc    func(*T)
	unique      bool
	initialSize int
	growth      int
	allocator   Allocator
	logger      *Logger

	filterSize uint
	filterFP   float64
}

// Option configures a Table.
type Option[T any] func(o *options[T])

// WithHashFunc overrides the default xxHash-based hash function.
func WithHashFunc[T any](f HashFunc) Option[T] {
	return func(o *options[T]) {
		o.hashFunc = f
	}
}

// WithEqualFunc overrides byte equality for key comparison. The hash
// function must agree with it.
func WithEqualFunc[T any](f EqualFunc) Option[T] {
	return func(o *options[T]) {
		o.equalFunc = f
	}
}

// WithFreeFunc sets a callback invoked on every record removed by Delete,
// Reset or Close.
func WithFreeFunc[T any](f func(*T)) Option[T] {
	return func(o *options[T]) {
		o.freeFunc = f
	}
}

// WithUnique makes Insert and Update reject keys already held by another
// record.
func WithUnique[T any]() Option[T] {
	return func(o *options[T]) {
		o.unique = true
	}
}

// WithInitialSize sets how many records the link array holds before its
// first growth.
func WithInitialSize[T any](n int) Option[T] {
	return func(o *options[T]) {
		o.initialSize = n
	}
}

// WithGrowth sets how many links the array grows by at a time. Zero derives
// it from the link size.
func WithGrowth[T any](n int) Option[T] {
	return func(o *options[T]) {
		o.growth = n
	}
}

// WithAllocator sets the allocator the link array reserves memory from.
func WithAllocator[T any](a Allocator) Option[T] {
	return func(o *options[T]) {
		o.allocator = a
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger[T any](l *Logger) Option[T] {
	return func(o *options[T]) {
		o.logger = l
	}
}

// WithMissFilter puts a bloom filter sized for n keys at false-positive rate
// fp in front of searches, so lookups of absent keys usually skip the chain
// walk.
func WithMissFilter[T any](n uint, fp float64) Option[T] {
	return func(o *options[T]) {
		o.filterSize = n
		o.filterFP = fp
	}
}
