package linhash

import (
	"fmt"
	"unsafe"
)

// KeyExtractor derives the key of a record.
//
// first is true on the probe that compares a record against a searched key
// and false when the key is only needed to recompute a hash, so an extractor
// that builds keys lazily can cache between the two.
type KeyExtractor[T any] interface {
	Key(rec *T, first bool) []byte
}

// FixedKey views Length bytes at Offset inside the record as its key.
//
// The viewed region must not contain pointers; it is typically a fixed-size
// byte array field of T.
type FixedKey[T any] struct {
	Offset uintptr
	Length uintptr
}

// FixedKeyOf returns a FixedKey over the field at offset with the given
// length, usually obtained with unsafe.Offsetof and unsafe.Sizeof.
func FixedKeyOf[T any](offset, length uintptr) FixedKey[T] {
	return FixedKey[T]{Offset: offset, Length: length}
}

// Key returns the Length bytes at Offset inside rec, without copying.
func (k FixedKey[T]) Key(rec *T, _ bool) []byte {
	return unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(rec), k.Offset)), k.Length)
}

func (k FixedKey[T]) validate() error {
	var zero T
	if size := unsafe.Sizeof(zero); k.Length == 0 || k.Offset+k.Length > size {
		return fmt.Errorf("%w: [%d, %d) outside record of %d bytes", ErrInvalidKey, k.Offset, k.Offset+k.Length, size)
	}

	return nil
}

// KeyFunc adapts a function to a KeyExtractor.
type KeyFunc[T any] func(rec *T, first bool) []byte

// Key calls f.
func (f KeyFunc[T]) Key(rec *T, first bool) []byte {
	return f(rec, first)
}

func validateKey[T any](key KeyExtractor[T]) error {
	switch k := key.(type) {
	case nil:
		return fmt.Errorf("%w: nil extractor", ErrInvalidKey)
	case FixedKey[T]:
		return k.validate()
	case KeyFunc[T]:
		if k == nil {
			return fmt.Errorf("%w: nil key function", ErrInvalidKey)
		}
	}

	return nil
}
