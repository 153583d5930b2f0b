package linhash

import (
	"math/bits"
)

// noRecord terminates every chain.
const noRecord = ^uint32(0)

// Flags tracking the low/high partial chains while a bucket is split.
const (
	lowFind = 1 << iota
	lowUsed
	highFind
	highUsed
)

// hashMask maps a hash to its bucket for a table of blength buckets holding
// records records.
//
// Buckets below records have already been split and are addressed with the
// full mask; the rest still fold onto their index in the lower half. A
// table of at most one bucket maps everything to bucket 0.
func hashMask(hash, blength, records uint32) uint32 {
	if blength <= 1 {
		return 0
	}

	if idx := hash & (blength - 1); idx < records {
		return idx
	}

	return hash & (blength>>1 - 1)
}

// isPowerOf2 reports whether v has exactly one bit set.
func isPowerOf2(v uint32) bool {
	return bits.OnesCount32(v) == 1
}
