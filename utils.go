package linhash

import (
	"unsafe"
)

// CapacityFromSize estimates how many records of type T a table can index
// within size bytes of link array.
func CapacityFromSize[T any](size uintptr) int {
	sizeOfLink := unsafe.Sizeof(hashLink[T]{})

	return int(size / sizeOfLink)
}

// LinkSize returns the number of bytes a table spends per record.
func LinkSize[T any]() int64 {
	return int64(unsafe.Sizeof(hashLink[T]{}))
}
