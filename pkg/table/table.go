// Package table implements the open-addressed hash table specialized for
// interned-string keys that backs both the VM's global-variable map and
// the string-interning pool.
//
// The table uses linear probing with tombstones: a deleted entry is
// marked rather than cleared, so a probe sequence that passed through it
// while the key was live still terminates correctly for keys beyond it.
// Tombstones count toward the load factor (they occupy a slot) but not
// toward the live key count exposed to callers.
package table

import "github.com/loxvm/loxvm/pkg/value"

// entry is one slot in the table: either empty (Key == nil, Value is the
// zero Value), a tombstone (Key == nil, Value is BoolValue(true)), or
// live (Key is the interned string, Value is whatever was stored).
type entry struct {
	Key   *value.ObjString
	Value value.Value
}

func (e *entry) isEmpty() bool     { return e.Key == nil && e.Value.Type == value.Nil }
func (e *entry) isTombstone() bool { return e.Key == nil && e.Value.Type != value.Nil }

// maxLoad is the load-factor ceiling (count+tombstones included): the
// table grows once count+1 would exceed capacity*maxLoad.
const maxLoad = 0.75

// Table is the map from *value.ObjString (by identity) to value.Value.
type Table struct {
	count    int // live entries + tombstones
	entries  []entry
}

// New returns an empty table. Its backing array is allocated lazily on
// the first Set, growing 0 -> 8 -> 16 -> ... by doubling.
func New() *Table {
	return &Table{}
}

// Count reports the number of live (non-tombstone) keys. Exposed for
// tests; not used by the hot paths.
func (t *Table) Count() int {
	live := 0
	for i := range t.entries {
		if !t.entries[i].isEmpty() && !t.entries[i].isTombstone() {
			live++
		}
	}
	return live
}

// Get returns the value stored for key and true, or the zero Value and
// false if key has no entry (including on an empty table, before any
// backing array has been allocated).
func (t *Table) Get(key *value.ObjString) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.Value{}, false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return value.Value{}, false
	}
	return e.Value, true
}

// Set stores value.Value under key, growing the table first if doing so
// would push the load factor past maxLoad. It reports whether the slot
// was previously empty or a tombstone (i.e. this key is new to the
// table); the VM's SET_GLOBAL handling relies on this to detect
// assignment to an undefined global.
func (t *Table) Set(key *value.ObjString, val value.Value) bool {
	if t.count+1 > int(float64(len(t.entries))*maxLoad) {
		t.grow(growCapacity(len(t.entries)))
	}

	e := t.findEntry(t.entries, key)
	isNew := e.Key == nil
	if isNew && e.Value.Type == value.Nil {
		// A truly empty slot, not a tombstone being overwritten.
		t.count++
	}

	e.Key = key
	e.Value = val
	return isNew
}

// Delete marks key's slot as a tombstone. count (live entries plus
// tombstones) is not decremented for it: tombstones must keep counting
// as occupied so that
// probes for keys further down the same chain don't stop early, but the
// caller-visible notion of "is this key still in the table" (via Get)
// correctly reports false afterward.
func (t *Table) Delete(key *value.ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = value.BoolValue(true)
	return true
}

// AddAll copies every live entry of src into t, via Set (so growth and
// tombstone-dropping in src are irrelevant; only live keys move).
func (t *Table) AddAll(src *Table) {
	for i := range src.entries {
		e := &src.entries[i]
		if e.Key != nil {
			t.Set(e.Key, e.Value)
		}
	}
}

// FindString looks up a string by its raw bytes, length, and precomputed
// hash rather than by *ObjString identity. This is the only probe used
// by the interner: it is how an incoming byte sequence is checked
// against already-interned strings before a new ObjString is allocated.
func (t *Table) FindString(chars string, hash uint32) *value.ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	index := hash % capacity
	for {
		e := &t.entries[index]
		switch {
		case e.Key == nil:
			if e.Value.Type == value.Nil {
				// Truly empty: the string was never interned.
				return nil
			}
			// Tombstone: keep probing.
		case e.Key.Hash == hash && e.Key.Chars == chars:
			return e.Key
		}
		index = (index + 1) % capacity
	}
}

// findEntry performs the tombstone-aware linear probe: walk from hash
// mod capacity, remember the first tombstone seen, and stop at either a
// true empty slot (returning the tombstone if one was seen, else the
// empty slot) or a key-identity match.
func (t *Table) findEntry(entries []entry, key *value.ObjString) *entry {
	capacity := uint32(len(entries))
	index := key.Hash % capacity
	var tombstone *entry

	for {
		e := &entries[index]
		switch {
		case e.Key == nil:
			if e.Value.Type == value.Nil {
				// Truly empty slot.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// Tombstone.
			if tombstone == nil {
				tombstone = e
			}
		case e.Key == key:
			return e
		}
		index = (index + 1) % capacity
	}
}

// growCapacity returns the next capacity given the current one: 0 -> 8,
// then doubling.
func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

// grow reallocates the backing array at the new capacity, copying only
// live entries (tombstones are dropped) and resetting count to the
// number of live entries reinserted.
func (t *Table) grow(capacity int) {
	newEntries := make([]entry, capacity)
	t.count = 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		t.count++
	}
	t.entries = newEntries
}
