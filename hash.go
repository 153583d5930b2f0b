package linhash

import (
	"bytes"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// HashFunc maps a key to a 32-bit hash. Keys that compare equal under the
// table's EqualFunc must hash to the same value.
type HashFunc func(key []byte) uint32

// EqualFunc reports whether two keys are equal.
type EqualFunc func(a, b []byte) bool

// MakeDefaultHashFunc returns the hash used when a table is built without
// WithHashFunc.
func MakeDefaultHashFunc() HashFunc {
	return XXHash
}

// XXHash folds the 64-bit xxHash of key to 32 bits.
func XXHash(key []byte) uint32 {
	h := xxhash.Sum64(key)
	return uint32(h) ^ uint32(h>>32)
}

// MakeSeededHashFunc returns a maphash-based hash with the given seed.
// Tables that must not share bucket layouts can use distinct seeds.
func MakeSeededHashFunc(seed maphash.Seed) HashFunc {
	return func(key []byte) uint32 {
		return uint32(maphash.Bytes(seed, key))
	}
}

const (
	offset32 = 2166136261
	prime32  = 16777619
)

// FNV1a computes the 32-bit FNV-1a hash of key.
func FNV1a(key []byte) uint32 {
	hash := uint32(offset32)
	for _, b := range key {
		hash ^= uint32(b)
		hash *= prime32
	}

	return hash
}

// BytesEqual is the default EqualFunc. Keys of different length are never
// equal.
func BytesEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
