package linhash

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Check walks every bucket chain and verifies the table invariants: the
// bucket count is a power of two sized for the record count, every record
// is reachable from exactly one bucket exactly once, and every chain ends
// without a cycle. It returns an error wrapping ErrCorrupted on the first
// violation.
func (t *Table[T]) Check() error {
	if t.blength == 0 {
		if t.records != 0 {
			return fmt.Errorf("%w: closed table holds %d records", ErrCorrupted, t.records)
		}
		return nil
	}

	if !isPowerOf2(t.blength) {
		return fmt.Errorf("%w: bucket count %d is not a power of two", ErrCorrupted, t.blength)
	}
	if t.records >= t.blength || (t.blength > 1 && t.records < t.blength>>1) {
		return fmt.Errorf("%w: %d records outside [%d, %d)", ErrCorrupted, t.records, t.blength>>1, t.blength)
	}
	if n := t.links.Len(); n != int(t.records) {
		return fmt.Errorf("%w: %d links for %d records", ErrCorrupted, n, t.records)
	}

	var (
		data    = t.slots()
		visited = bitset.New(uint(t.records))
	)

	for bucket := uint32(0); bucket < t.records; bucket++ {
		if t.recMask(&data[bucket], t.blength, t.records) != bucket {
			// The slot hosts a record of another chain; the bucket is empty.
			continue
		}

		for idx := bucket; idx != noRecord; idx = data[idx].next {
			if idx >= t.records {
				return fmt.Errorf("%w: bucket %d links to slot %d past the end", ErrCorrupted, bucket, idx)
			}
			if visited.Test(uint(idx)) {
				return fmt.Errorf("%w: slot %d reached twice (from bucket %d)", ErrCorrupted, idx, bucket)
			}
			visited.Set(uint(idx))

			if home := t.recMask(&data[idx], t.blength, t.records); home != bucket {
				return fmt.Errorf("%w: slot %d in chain of bucket %d belongs to bucket %d", ErrCorrupted, idx, bucket, home)
			}
		}
	}

	if n := visited.Count(); n != uint(t.records) {
		return fmt.Errorf("%w: %d of %d records reachable", ErrCorrupted, n, t.records)
	}

	return nil
}
