package linhash

import (
	"iter"
	"unsafe"
)

// Entry is the record a Map stores in its table.
type Entry[V any] struct {
	key   string
	value V
}

// Key returns the entry key.
func (e *Entry[V]) Key() string { return e.key }

// Value returns the entry value.
func (e *Entry[V]) Value() V { return e.value }

func keyBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// Map is a string-keyed map on top of a unique Table.
// Every entry is a separate allocation, so pointers handed to the table
// stay valid while the link array grows and shrinks.
type Map[V any] struct {
	t *Table[Entry[V]]
}

// NewMap returns an empty map. Options apply to the underlying table;
// uniqueness is always on.
func NewMap[V any](opts ...Option[Entry[V]]) (*Map[V], error) {
	key := KeyFunc[Entry[V]](func(e *Entry[V], _ bool) []byte {
		return keyBytes(e.key)
	})

	t, err := New[Entry[V]](key, append(opts[:len(opts):len(opts)], WithUnique[Entry[V]]())...)
	if t == nil {
		return nil, err
	}

	return &Map[V]{t: t}, err
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	e, ok := m.t.Search(keyBytes(key))
	if !ok {
		var zero V
		return zero, false
	}

	return e.value, true
}

// Set stores value under key, replacing the previous value if any.
func (m *Map[V]) Set(key string, value V) error {
	if e, ok := m.t.Search(keyBytes(key)); ok {
		e.value = value
		return nil
	}

	return m.t.Insert(&Entry[V]{key: key, value: value})
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	e, ok := m.t.Search(keyBytes(key))
	if !ok {
		return false
	}

	return m.t.Delete(e) == nil
}

// Rename moves the value stored under from to the key to without
// reallocating the entry. It fails with ErrNotFound if from is absent and
// with ErrDuplicateKey if to is taken.
func (m *Map[V]) Rename(from, to string) error {
	e, ok := m.t.Search(keyBytes(from))
	if !ok {
		return keyError("rename", keyBytes(from), ErrNotFound)
	}

	old := e.key
	e.key = to
	if err := m.t.Update(e, keyBytes(old)); err != nil {
		e.key = old
		return err
	}

	return nil
}

// Len returns the number of entries.
func (m *Map[V]) Len() int { return m.t.Len() }

// Stats reports the shape of the underlying table.
func (m *Map[V]) Stats() Stats { return m.t.Stats() }

// Reset removes all entries.
func (m *Map[V]) Reset() { m.t.Reset() }

// Check verifies the underlying table invariants.
func (m *Map[V]) Check() error { return m.t.Check() }

// All iterates over all entries in no particular order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for e := range m.t.All() {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}
