package linhash

type Stats struct {
	Size            int
	Buckets         int
	Capacity        int
	NonEmptyBuckets int
	LongestChain    int
	AvgChainLength  float32
	MemoryBytes     int64
}

// Stats walks all chains and reports their shape.
func (t *Table[T]) Stats() Stats {
	s := Stats{
		Size:        int(t.records),
		Buckets:     int(t.blength),
		Capacity:    t.links.Cap(),
		MemoryBytes: t.links.bytes(t.links.Cap()),
	}

	data := t.slots()
	for bucket := uint32(0); bucket < t.records; bucket++ {
		if t.recMask(&data[bucket], t.blength, t.records) != bucket {
			continue
		}

		n := 0
		for idx := bucket; idx != noRecord; idx = data[idx].next {
			n++
		}

		s.NonEmptyBuckets++
		s.LongestChain = max(s.LongestChain, n)
	}

	if s.NonEmptyBuckets > 0 {
		s.AvgChainLength = float32(s.Size) / float32(s.NonEmptyBuckets)
	}

	return s
}
