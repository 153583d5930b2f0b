package linhash

import (
	"iter"
)

// hashLink is one record's entry in the link array. Its position in the
// array only matters for packing; next realizes the bucket chains.
type hashLink[T any] struct {
	next uint32
	data *T
}

// Cursor is the state of a First/Next walk over records sharing a key.
// The zero Cursor is exhausted. A Cursor is invalidated by any mutation.
type Cursor struct {
	pos uint32 // slot index + 1
}

// Valid reports whether the cursor points at a record.
func (c Cursor) Valid() bool { return c.pos != 0 }

// Table is a linear-hashing hash table of records addressed by a key
// derived from each record.
//
// The bucket count grows and shrinks by splitting or merging a single bucket
// per Insert or Delete; the table never rehashes all records at once.
// Records are stored by pointer and are never copied. Table is not safe for
// concurrent use.
type Table[T any] struct {
	links   *Array[hashLink[T]]
	records uint32
	blength uint32

	key    KeyExtractor[T]
	hash   HashFunc
	equal  EqualFunc
	free   func(*T)
	unique bool

	filter *missFilter
	logger *Logger
}

// New returns a table whose records are keyed by key.
//
// Failing to reserve the initial link array is not fatal: New then returns
// a usable table together with an error wrapping ErrAllocationFailure, and
// the array is allocated on the first Insert.
func New[T any](key KeyExtractor[T], opts ...Option[T]) (*Table[T], error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}

	if o.hashFunc == nil {
		o.hashFunc = MakeDefaultHashFunc()
	}
	if o.equalFunc == nil {
		o.equalFunc = BytesEqual
	}
	if o.allocator == nil {
		o.allocator = HeapAllocator{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}

	t := &Table[T]{
		blength: 1,
		key:     key,
		hash:    o.hashFunc,
		equal:   o.equalFunc,
		free:    o.freeFunc,
		unique:  o.unique,
		logger:  o.logger,
	}

	if o.filterSize > 0 {
		fp := o.filterFP
		if fp <= 0 || fp >= 1 {
			fp = 0.01
		}
		t.filter = newMissFilter(o.filterSize, fp)
	}

	links, err := NewArray[hashLink[T]](o.initialSize, o.growth,
		WithArrayAllocator[hashLink[T]](o.allocator))
	t.links = links
	if err != nil {
		t.logger.LogAllocFailure("init", 0, err)
		return t, err
	}

	return t, nil
}

// Len returns the number of records.
func (t *Table[T]) Len() int { return int(t.records) }

// Buckets returns the current power-of-two bucket count. Buckets at or
// above Len have not been split yet.
func (t *Table[T]) Buckets() int { return int(t.blength) }

// Unique reports whether the table rejects duplicate keys.
func (t *Table[T]) Unique() bool { return t.unique }

// Hash returns the hash of key as used for bucket selection.
func (t *Table[T]) Hash(key []byte) uint32 {
	return t.hash(key)
}

func (t *Table[T]) slots() []hashLink[T] {
	return t.links.buf[:t.links.count]
}

func (t *Table[T]) recHash(rec *T) uint32 {
	return t.hash(t.key.Key(rec, false))
}

func (t *Table[T]) recMask(l *hashLink[T], blength, records uint32) uint32 {
	return hashMask(t.recHash(l.data), blength, records)
}

func (t *Table[T]) matches(l *hashLink[T], key []byte) bool {
	return t.equal(t.key.Key(l.data, true), key)
}

// Search returns the first record whose key equals key.
func (t *Table[T]) Search(key []byte) (*T, bool) {
	rec, _, ok := t.First(key)
	return rec, ok
}

// SearchByHash is Search with a precomputed Hash(key).
func (t *Table[T]) SearchByHash(hash uint32, key []byte) (*T, bool) {
	rec, _, ok := t.FirstByHash(hash, key)
	return rec, ok
}

// First returns the first record whose key equals key and a cursor for
// Next.
func (t *Table[T]) First(key []byte) (*T, Cursor, bool) {
	if t.blength == 0 {
		return nil, Cursor{}, false
	}

	return t.FirstByHash(t.hash(key), key)
}

// FirstByHash is First with a precomputed Hash(key).
func (t *Table[T]) FirstByHash(hash uint32, key []byte) (*T, Cursor, bool) {
	if t.records == 0 {
		return nil, Cursor{}, false
	}
	if t.filter != nil && !t.filter.mayContain(hash) {
		return nil, Cursor{}, false
	}

	data := t.slots()
	idx := hashMask(hash, t.blength, t.records)

	for first := true; ; first = false {
		pos := &data[idx]
		if t.matches(pos, key) {
			return pos.data, Cursor{pos: idx + 1}, true
		}

		// A root that belongs to another bucket means this bucket is empty.
		if first && t.recMask(pos, t.blength, t.records) != idx {
			break
		}

		if idx = pos.next; idx == noRecord {
			break
		}
	}

	return nil, Cursor{}, false
}

// Next continues a First walk and returns the next record with key equal
// to key. The cursor is exhausted once Next returns false.
func (t *Table[T]) Next(key []byte, cur *Cursor) (*T, bool) {
	if !cur.Valid() {
		return nil, false
	}

	data := t.slots()
	if int(cur.pos-1) >= len(data) {
		*cur = Cursor{}
		return nil, false
	}

	for idx := data[cur.pos-1].next; idx != noRecord; idx = data[idx].next {
		if t.matches(&data[idx], key) {
			cur.pos = idx + 1
			return data[idx].data, true
		}
	}
	*cur = Cursor{}

	return nil, false
}

// movelink re-points the link in the chain starting at next that leads to
// find so that it leads to newLink instead.
func movelink[T any](data []hashLink[T], find, next, newLink uint32) {
	var old uint32
	for {
		old = next
		if next = data[old].next; next == find {
			break
		}
	}
	data[old].next = newLink
}

// Insert adds rec to the table.
//
// It fails with ErrDuplicateKey on a unique table when the key is taken and
// with ErrAllocationFailure when the link array cannot grow. In both cases
// the table is left unchanged.
func (t *Table[T]) Insert(rec *T) error {
	if t.blength == 0 {
		return ErrClosed
	}

	if t.unique {
		key := t.key.Key(rec, true)
		if _, ok := t.Search(key); ok {
			return keyError("insert", key, ErrDuplicateKey)
		}
	}

	if _, err := t.links.Alloc(); err != nil {
		t.logger.LogAllocFailure("insert", t.records, err)
		return err
	}

	var (
		data     = t.slots()
		blength  = t.blength
		records  = t.records
		halfbuff = blength >> 1

		// The freshly allocated slot, index records.
		empty = uint32(len(data) - 1)

		flag       uint32
		gpos       uint32
		gpos2      uint32
		ptrToRec   *T
		ptrToRec2  *T
		firstIndex = records - halfbuff
	)

	// Split bucket firstIndex: records whose halfbuff bit is clear stay in
	// the low chain, the others move to the high chain rooted at the new
	// bucket firstIndex+halfbuff. Both chains keep their encounter order.
	if idx := firstIndex; idx != records {
		for {
			pos := idx
			hashNr := t.recHash(data[pos].data)

			// The root belongs to another bucket: nothing to split.
			if flag == 0 && hashMask(hashNr, blength, records) != firstIndex {
				break
			}

			if hashNr&halfbuff == 0 {
				switch {
				case flag&lowFind == 0 && flag&highFind != 0:
					// First low record comes after a high one: it takes the
					// slot the high record left.
					flag = lowFind | highFind
					gpos = empty
					ptrToRec = data[pos].data
					empty = pos
				case flag&lowFind == 0:
					flag = lowFind | lowUsed
					gpos = pos
					ptrToRec = data[pos].data
				default:
					if flag&lowUsed == 0 {
						data[gpos].data = ptrToRec
						data[gpos].next = pos
						flag = (flag & highFind) | lowFind | lowUsed
					}
					gpos = pos
					ptrToRec = data[pos].data
				}
			} else {
				if flag&highFind == 0 {
					flag = (flag & lowFind) | highFind
					gpos2 = empty
					empty = pos
					ptrToRec2 = data[pos].data
				} else {
					if flag&highUsed == 0 {
						data[gpos2].data = ptrToRec2
						data[gpos2].next = pos
						flag = (flag & lowFind) | highFind | highUsed
					}
					gpos2 = pos
					ptrToRec2 = data[pos].data
				}
			}

			if idx = data[pos].next; idx == noRecord {
				break
			}
		}

		if flag&(lowFind|lowUsed) == lowFind {
			data[gpos].data = ptrToRec
			data[gpos].next = noRecord
		}
		if flag&(highFind|highUsed) == highFind {
			data[gpos2].data = ptrToRec2
			data[gpos2].next = noRecord
		}
	}

	hash := t.recHash(rec)
	idx := hashMask(hash, blength, records+1)
	if idx == empty {
		data[idx] = hashLink[T]{next: noRecord, data: rec}
	} else {
		// Move the current resident of idx to the free slot.
		data[empty] = data[idx]

		if home := t.recMask(&data[idx], blength, records+1); home == idx {
			data[idx] = hashLink[T]{next: empty, data: rec}
		} else {
			// The resident belongs to another chain: keep that chain
			// walkable through its new slot and start a fresh one here.
			data[idx] = hashLink[T]{next: noRecord, data: rec}
			movelink(data, idx, home, empty)
		}
	}

	if t.filter != nil {
		t.filter.add(hash)
	}

	t.records++
	if t.records == t.blength {
		t.blength += t.blength
		t.logger.LogResize(blength, t.blength, t.records)
	}

	return nil
}

// locate walks the chain of bucket looking for rec by identity. prev is
// noRecord when rec is the chain root.
func (t *Table[T]) locate(bucket uint32, rec *T) (pos, prev uint32, ok bool) {
	data := t.slots()

	prev = noRecord
	for pos = bucket; data[pos].data != rec; pos = data[pos].next {
		if data[pos].next == noRecord {
			return 0, 0, false
		}
		prev = pos
	}

	return pos, prev, true
}

// Delete removes rec, identified by pointer, from the table and passes it
// to the free callback. The record's key must be the one it was inserted
// or last updated with.
func (t *Table[T]) Delete(rec *T) error {
	if t.blength == 0 {
		return ErrClosed
	}
	if t.records == 0 {
		return keyError("delete", t.key.Key(rec, false), ErrNotFound)
	}

	blength := t.blength
	data := t.slots()

	pos, gpos, ok := t.locate(hashMask(t.recHash(rec), blength, t.records), rec)
	if !ok {
		return keyError("delete", t.key.Key(rec, false), ErrNotFound)
	}

	t.records--
	if t.records < t.blength>>1 {
		t.blength >>= 1
		t.logger.LogResize(blength, t.blength, t.records)
	}

	var (
		records = t.records
		lastpos = records
		empty   = pos
	)

	// Unlink rec. A chain root is replaced by its successor, whose slot
	// becomes the hole instead.
	if gpos != noRecord {
		data[gpos].next = data[pos].next
	} else if next := data[pos].next; next != noRecord {
		empty = next
		data[pos] = data[next]
	}

	if empty != lastpos {
		t.fillHole(data, empty, lastpos, blength)
	}

	*t.links.Pop() = hashLink[T]{}

	if t.free != nil {
		t.free(rec)
	}

	return nil
}

// fillHole moves the link in the last slot into the hole at empty and
// relinks whatever chain pointed at it. blength is the bucket count before
// the delete; t.blength and t.records are already updated.
func (t *Table[T]) fillHole(data []hashLink[T], empty, lastpos, blength uint32) {
	records := t.records

	lastHash := t.recHash(data[lastpos].data)
	// Where the moved link should live now.
	pos := hashMask(lastHash, t.blength, records)
	if pos == empty {
		data[empty] = data[lastpos]
		return
	}

	posHash := t.recHash(data[pos].data)
	// Where the resident of pos should live.
	pos3 := hashMask(posHash, t.blength, records)
	if pos != pos3 {
		// The resident of pos belongs elsewhere: evict it into the hole
		// and make the moved link the root of its own bucket.
		data[empty] = data[pos]
		data[pos] = data[lastpos]
		movelink(data, pos, pos3, empty)
		return
	}

	var idx uint32
	pos2 := hashMask(lastHash, blength, records+1)
	if pos2 == hashMask(posHash, blength, records+1) {
		// Both were in the same chain before the delete.
		if pos2 != records {
			data[empty] = data[lastpos]
			movelink(data, lastpos, pos, empty)
			return
		}
		idx = pos
	} else {
		// The moved link heads a chain that merges into pos.
		idx = noRecord
	}

	data[empty] = data[lastpos]
	movelink(data, idx, empty, data[pos].next)
	data[pos].next = empty
}

// Update relinks rec after its key changed from oldKey to its current key.
// No link slot is allocated or freed.
//
// It fails with ErrNotFound when rec is not in the chain of oldKey and, on
// a unique table, with ErrDuplicateKey when another record holds the new
// key. Failures leave the table unchanged.
func (t *Table[T]) Update(rec *T, oldKey []byte) error {
	if t.blength == 0 {
		return ErrClosed
	}

	if t.unique {
		newKey := t.key.Key(rec, true)
		found, cur, ok := t.First(newKey)
		for ok {
			if found != rec {
				return keyError("update", newKey, ErrDuplicateKey)
			}
			found, ok = t.Next(newKey, &cur)
		}
	}

	if t.records == 0 {
		return keyError("update", oldKey, ErrNotFound)
	}

	var (
		data     = t.slots()
		blength  = t.blength
		records  = t.records
		oldIndex = hashMask(t.hash(oldKey), blength, records)
		newIndex = hashMask(t.recHash(rec), blength, records)
	)

	idx, previous, ok := t.locate(oldIndex, rec)
	if !ok {
		return keyError("update", oldKey, ErrNotFound)
	}

	if t.filter != nil {
		t.filter.add(t.recHash(rec))
	}

	if oldIndex == newIndex {
		return nil
	}

	orgLink := data[idx]
	empty := idx

	// Unlink rec from its old chain.
	if previous == noRecord {
		if next := data[idx].next; next != noRecord {
			empty = next
			data[idx] = data[next]
		}
	} else {
		data[previous].next = data[idx].next
	}

	if newIndex == empty {
		// The freed slot is the root of the new bucket, so rec is its
		// only record.
		orgLink.next = noRecord
		data[empty] = orgLink
		return nil
	}

	if newPosIndex := t.recMask(&data[newIndex], blength, records); newIndex != newPosIndex {
		// The resident of newIndex belongs to another chain.
		data[empty] = data[newIndex]
		movelink(data, newIndex, newPosIndex, empty)
		orgLink.next = noRecord
		data[newIndex] = orgLink
	} else {
		orgLink.next = data[newIndex].next
		data[empty] = orgLink
		data[newIndex].next = empty
	}

	return nil
}

// Replace swaps the record under cur for rec. rec must have the same key
// as the record it replaces; nothing is relinked.
func (t *Table[T]) Replace(cur Cursor, rec *T) bool {
	if !cur.Valid() || cur.pos-1 >= t.records {
		return false
	}
	t.links.At(int(cur.pos - 1)).data = rec

	return true
}

// Element returns the record stored in link slot idx. Slot order is
// arbitrary but stable until the next mutation.
func (t *Table[T]) Element(idx int) (*T, bool) {
	if idx < 0 || idx >= int(t.records) {
		return nil, false
	}

	return t.links.At(idx).data, true
}

// All iterates over every record in slot order. The table must not be
// mutated during the iteration.
func (t *Table[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := range t.slots() {
			if !yield(t.links.At(i).data) {
				return
			}
		}
	}
}

func (t *Table[T]) freeRecords() {
	if t.free != nil {
		for _, l := range t.slots() {
			t.free(l.data)
		}
	}
	t.records = 0
}

// Reset removes all records, passing each to the free callback, and keeps
// the link array for reuse.
func (t *Table[T]) Reset() {
	t.freeRecords()
	t.links.Reset()
	t.blength = 1

	if t.filter != nil {
		t.filter.reset()
	}
}

// Close removes all records like Reset and releases the link array. A
// closed table finds nothing and rejects mutations with ErrClosed.
func (t *Table[T]) Close() {
	t.freeRecords()
	t.links.Release()
	t.blength = 0

	if t.filter != nil {
		t.filter.reset()
	}
}

// ShrinkToFit trims the link array to the current record count.
func (t *Table[T]) ShrinkToFit() error {
	return t.links.ShrinkToFit()
}
