package linhash

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"
)

// missFilter answers "definitely absent" for keys whose hash was never
// inserted. It is keyed by hash value rather than key bytes so that it
// stays correct under a custom EqualFunc.
//
// Deletes do not remove entries; a stale positive only costs a chain walk.
type missFilter struct {
	bf *bloom.BloomFilter
}

func newMissFilter(n uint, fp float64) *missFilter {
	return &missFilter{bf: bloom.NewWithEstimates(n, fp)}
}

func (f *missFilter) add(hash uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], hash)
	f.bf.Add(buf[:])
}

func (f *missFilter) mayContain(hash uint32) bool {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], hash)

	return f.bf.Test(buf[:])
}

func (f *missFilter) reset() {
	f.bf.ClearAll()
}
