// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ordered provides hash maps and sets that remember insertion order.
//
// An ordered.Map is a hash map from keys to values, similar to Go's builtin
// map type, except that iterating over it yields entries in the order they
// were inserted. Lookup, insertion, and deletion remain average O(1).
//
// # Layout
//
// The implementation splits the container into two structures. The value
// store is a dense, gap-free slice holding the actual entries in pure
// insertion order; all iteration reads only this slice. The index table is a
// power-of-two-sized array of slots, each either empty or holding the
// truncated 32-bit hash of a key together with the position of that key's
// entry in the value store. Slots are weak back-references only: the value
// store is the sole owner of entries.
//
// # Probing
//
// The index table uses open addressing with linear probing and the
// robin-hood insertion rule: while probing for a free slot, if the entry
// being inserted has probed farther from its ideal slot than the resident of
// the slot being examined, the resident is evicted and carried forward while
// the newcomer takes its place. Stealing from the rich this way keeps the
// probe-distance distribution tight and bounds the worst-case probe length.
// The invariant maintained is that along any probe sequence the distances of
// occupied slots from their ideal slots form chains that never jump by more
// than one step until an empty slot is reached, which lets lookups terminate
// as soon as the current probe distance exceeds the distance recorded for
// the slot under examination.
//
// Deletion clears the slot and then backward-shifts: subsequent slots that
// are displaced from their ideal position are pulled one step back into the
// gap, re-creating a contiguous probe chain without tombstones. Removing an
// entry from the value store shifts all later entries left by one, so the
// corresponding slot indices are renumbered in the same operation. An
// UnorderedDelete fast path instead swaps the target with the last entry and
// truncates, trading iteration order of that one entry for O(1) cost.
//
// # Growth
//
// The table doubles when the entry count reaches bucketCount *
// maxLoadFactor (0.9 by default), or early when a single insertion chain
// probes more than 128 slots while the load factor is already past 0.15,
// which catches pathological clustering long before the primary trigger
// would. Rebuilding replays the old table's (hash, index) pairs through the
// same displacement walk; keys are never rehashed on growth.
//
// By default a Map[K,V] uses the same hash function as Go's builtin map[K]V,
// though a different hash function can be specified using the WithHash
// option.
//
// A Map is NOT goroutine-safe.
package ordered

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
	"strings"
	"unsafe"
)

const (
	debug = false

	// defaultBucketCount is the table size used by the first insertion into
	// a map that was initialized with zero capacity.
	defaultBucketCount = 16

	// defaultMaxLoadFactor is the fill ratio that triggers a doubling of the
	// index table.
	defaultMaxLoadFactor = 0.9

	// maxProbesBeforeRehash and rehashMinLoadFactor form the secondary
	// growth trigger: an insertion chain probing past the ceiling while the
	// table is at least rehashMinLoadFactor full arms a doubling on the next
	// insert. Tuning constants, not correctness requirements.
	maxProbesBeforeRehash = 128
	rehashMinLoadFactor   = 0.15

	// emptySlotIndex marks an unoccupied slot. The marker reserves one value
	// of the 32-bit index space, bounding the entry count at 2^32-2.
	emptySlotIndex = math.MaxUint32

	maxEntries     = math.MaxUint32 - 1
	maxBucketCount = 1 << 30
)

// Entry is a key/value pair as stored in the value store. The key is only
// reachable through an accessor: mutating a key in place would desynchronize
// the index table, so no public surface hands out addressable keys.
type Entry[K comparable, V any] struct {
	key   K
	value V
}

// MakeEntry returns an Entry holding the given key and value. Entries are
// built by callers of InsertBatch and PutBatch.
func MakeEntry[K comparable, V any](key K, value V) Entry[K, V] {
	return Entry[K, V]{key: key, value: value}
}

// Key returns the entry's key.
func (e Entry[K, V]) Key() K { return e.key }

// Value returns the entry's value.
func (e Entry[K, V]) Value() V { return e.value }

// slot is one cell of the index table: the truncated hash of a key plus the
// position of the key's entry in the value store. The empty marker never
// escapes this type.
type slot struct {
	hash  uint32
	index uint32
}

func (s *slot) empty() bool { return s.index == emptySlotIndex }
func (s *slot) clear()      { s.index = emptySlotIndex }

// Map is an insertion-ordered map from keys to values. Iteration yields
// entries in the exact relative order they were first inserted, minus erased
// entries; positions are plain indices into the dense value store, so
// position arithmetic is constant time.
//
// The zero value for a Map is not usable; construct with New or Init.
type Map[K comparable, V any] struct {
	// The hash function applied to keys of type K, extracted from the Go
	// runtime's implementation of map[K]struct{} unless overridden.
	hash hashFn
	seed uintptr
	// eq is the key equality in use; nil means ==.
	eq func(a, b K) bool
	// entries is the value store: dense, gap-free, insertion ordered.
	entries []Entry[K, V]
	// slots is the index table; len(slots) is zero or a power of two and
	// mask is len(slots)-1.
	slots []slot
	mask  uint32
	// growOnNextInsert is armed when an insertion chain probes past
	// maxProbesBeforeRehash at sufficient load. The displacement walk itself
	// never reallocates; the doubling happens at the top of the next insert.
	growOnNextInsert       bool
	maxLoadFactor          float64
	loadThreshold          int
	minLoadRehashThreshold int
}

// New constructs a Map with capacity for initialCapacity entries before the
// first growth. If initialCapacity is 0 the map starts out empty and
// allocates on the first insert.
func New[K comparable, V any](initialCapacity int, options ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(initialCapacity, options...)
	return m
}

// Init (re)initializes the map in place, releasing any previous contents.
// Useful for reusing a Map value across runs without reallocating the
// struct.
func (m *Map[K, V]) Init(initialCapacity int, options ...Option[K, V]) {
	*m = Map[K, V]{
		hash:          getRuntimeHasher[K](),
		seed:          uintptr(runtime_rand()),
		maxLoadFactor: defaultMaxLoadFactor,
	}
	for _, op := range options {
		op.apply(m)
	}
	if initialCapacity > 0 {
		if err := m.Reserve(initialCapacity); err != nil {
			panic(err)
		}
	}
	m.checkInvariants()
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return len(m.entries)
}

// IsEmpty reports whether the map holds no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return len(m.entries) == 0
}

// MaxLen returns the largest number of entries the map can hold. One index
// value is reserved as the empty-slot marker.
func (m *Map[K, V]) MaxLen() int {
	return maxEntries
}

// BucketCount returns the current size of the index table. It is always
// zero or a power of two.
func (m *Map[K, V]) BucketCount() int {
	return len(m.slots)
}

// LoadFactor returns the ratio of entries to index-table size.
func (m *Map[K, V]) LoadFactor() float64 {
	if len(m.slots) == 0 {
		return 0
	}
	return float64(len(m.entries)) / float64(len(m.slots))
}

// MaxLoadFactor returns the fill ratio at which the index table doubles.
func (m *Map[K, V]) MaxLoadFactor() float64 {
	return m.maxLoadFactor
}

// SetMaxLoadFactor changes the growth threshold. Values are clamped to
// [0.1, 0.95]. The table is not resized immediately; the new threshold
// applies from the next insertion.
func (m *Map[K, V]) SetMaxLoadFactor(f float64) {
	m.maxLoadFactor = min(max(f, 0.1), 0.95)
	m.updateThresholds()
}

// Hash returns the hash of key under this map's hash function and seed. The
// result feeds the *Hashed operation variants, which skip rehashing the key;
// callers must pass a value obtained from this method for the same key.
func (m *Map[K, V]) Hash(key K) uint64 {
	return uint64(m.hashKey(key))
}

// KeyEqual reports whether the map's configured equality considers a and b
// the same key. Unless WithKeyEqual was supplied this is ==.
func (m *Map[K, V]) KeyEqual(a, b K) bool {
	return m.keyEqual(a, b)
}

// Data returns the value store backing the map: every live entry in
// insertion order, with no gaps. The slice aliases the map's own storage and
// is invalidated by any mutation; treat it as read-only.
func (m *Map[K, V]) Data() []Entry[K, V] {
	return m.entries
}

// Cap returns the entry capacity of the value store.
func (m *Map[K, V]) Cap() int {
	return cap(m.entries)
}

// ShrinkToFit reallocates the value store to exactly fit the current
// entries.
func (m *Map[K, V]) ShrinkToFit() {
	m.entries = slices.Clip(m.entries)
}

// Get retrieves the value for key, returning ok=false if the key is not
// present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	return m.GetHashed(key, m.Hash(key))
}

// GetHashed is Get with a caller-precomputed hash.
func (m *Map[K, V]) GetHashed(key K, h uint64) (value V, ok bool) {
	si, ok := m.findSlot(key, uint32(h))
	if !ok {
		return value, false
	}
	return m.entries[m.slots[si].index].value, true
}

// Find returns the position of key's entry in the value store, or ok=false
// if absent. Positions are stable across insertions and shift down by one
// for every ordered erase of an earlier position.
func (m *Map[K, V]) Find(key K) (i int, ok bool) {
	return m.FindHashed(key, m.Hash(key))
}

// FindHashed is Find with a caller-precomputed hash.
func (m *Map[K, V]) FindHashed(key K, h uint64) (i int, ok bool) {
	si, ok := m.findSlot(key, uint32(h))
	if !ok {
		return 0, false
	}
	return int(m.slots[si].index), true
}

// At returns the value for key, or ErrNotFound if the key is absent.
func (m *Map[K, V]) At(key K) (V, error) {
	return m.AtHashed(key, m.Hash(key))
}

// AtHashed is At with a caller-precomputed hash.
func (m *Map[K, V]) AtHashed(key K, h uint64) (V, error) {
	v, ok := m.GetHashed(key, h)
	if !ok {
		return v, ErrNotFound
	}
	return v, nil
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.findSlot(key, uint32(m.hashKey(key)))
	return ok
}

// ContainsHashed is Contains with a caller-precomputed hash.
func (m *Map[K, V]) ContainsHashed(key K, h uint64) bool {
	_, ok := m.findSlot(key, uint32(h))
	return ok
}

// Count returns the number of entries with the given key: 0 or 1, since
// keys are unique.
func (m *Map[K, V]) Count(key K) int {
	if m.Contains(key) {
		return 1
	}
	return 0
}

// CountHashed is Count with a caller-precomputed hash.
func (m *Map[K, V]) CountHashed(key K, h uint64) int {
	if m.ContainsHashed(key, h) {
		return 1
	}
	return 0
}

// EqualRange returns the half-open position window [lo, hi) of entries equal
// to key. The window holds zero or one entry.
func (m *Map[K, V]) EqualRange(key K) (lo, hi int) {
	return m.EqualRangeHashed(key, m.Hash(key))
}

// EqualRangeHashed is EqualRange with a caller-precomputed hash.
func (m *Map[K, V]) EqualRangeHashed(key K, h uint64) (lo, hi int) {
	i, ok := m.FindHashed(key, h)
	if !ok {
		n := len(m.entries)
		return n, n
	}
	return i, i + 1
}

// FindFunc probes the index table with a caller-supplied hash and key
// predicate, without ever constructing a key of type K. This is the
// heterogeneous-lookup surface: h must equal the map's hash of whichever key
// match accepts.
func (m *Map[K, V]) FindFunc(h uint64, match func(K) bool) (i int, ok bool) {
	si, ok := m.findSlotFunc(uint32(h), match)
	if !ok {
		return 0, false
	}
	return int(m.slots[si].index), true
}

// GetFunc is FindFunc returning the matched entry's value.
func (m *Map[K, V]) GetFunc(h uint64, match func(K) bool) (value V, ok bool) {
	si, ok := m.findSlotFunc(uint32(h), match)
	if !ok {
		return value, false
	}
	return m.entries[m.slots[si].index].value, true
}

// DeleteFunc is Delete keyed by a hash and predicate rather than a key
// value.
func (m *Map[K, V]) DeleteFunc(h uint64, match func(K) bool) bool {
	si, ok := m.findSlotFunc(uint32(h), match)
	if !ok {
		return false
	}
	m.eraseSlot(si)
	m.checkInvariants()
	return true
}

// KeyAt returns the key of the entry at position i. It panics if i is out
// of range.
func (m *Map[K, V]) KeyAt(i int) K {
	return m.entries[i].key
}

// ValueAt returns the value of the entry at position i. It panics if i is
// out of range.
func (m *Map[K, V]) ValueAt(i int) V {
	return m.entries[i].value
}

// SetValueAt replaces the value of the entry at position i, leaving the key
// and the entry's position untouched. It panics if i is out of range.
func (m *Map[K, V]) SetValueAt(i int, value V) {
	m.entries[i].value = value
}

// GetAt returns the key and value of the entry at position i. It panics if
// i is out of range.
func (m *Map[K, V]) GetAt(i int) (K, V) {
	e := m.entries[i]
	return e.key, e.value
}

// Insert adds key with the given value if no entry with an equal key
// exists. It returns the position of the entry (existing or new) and
// whether an insertion happened; an existing entry's value is never
// overwritten. The only possible error is ErrCapacity.
func (m *Map[K, V]) Insert(key K, value V) (i int, inserted bool, err error) {
	return m.insertHashed(key, m.hashKey(key), value, false)
}

// Put inserts key with the given value, overwriting the value of an
// existing entry with an equal key. The existing entry keeps its position.
func (m *Map[K, V]) Put(key K, value V) (i int, inserted bool, err error) {
	return m.insertHashed(key, m.hashKey(key), value, true)
}

// Ensure returns the position of key's entry, inserting a zero value first
// if the key is absent.
func (m *Map[K, V]) Ensure(key K) (i int, err error) {
	var zero V
	i, _, err = m.insertHashed(key, m.hashKey(key), zero, false)
	return i, err
}

// Delete erases the entry for key, preserving the relative order of all
// other entries, and reports whether an entry was removed. Positions of
// entries after the erased one shift down by one.
func (m *Map[K, V]) Delete(key K) bool {
	return m.DeleteHashed(key, m.Hash(key))
}

// DeleteHashed is Delete with a caller-precomputed hash.
func (m *Map[K, V]) DeleteHashed(key K, h uint64) bool {
	si, ok := m.findSlot(key, uint32(h))
	if !ok {
		return false
	}
	m.eraseSlot(si)
	m.checkInvariants()
	return true
}

// EraseAt erases the entry at position i, preserving the relative order of
// all other entries, and returns the position of the entry that followed it
// (which is i again, or Len() if the last entry was erased). It panics if i
// is out of range.
func (m *Map[K, V]) EraseAt(i int) int {
	key := m.entries[i].key
	si, ok := m.findSlot(key, uint32(m.hashKey(key)))
	if !ok {
		panic(fmt.Sprintf("ordered: no slot for entry %d\n%s", i, m.debugString()))
	}
	m.eraseSlot(si)
	m.checkInvariants()
	return i
}

// EraseRange erases the entries in the position window [i, j), preserving
// the relative order of the remaining entries, and returns the position of
// the first entry after the window (i again). The value store is compacted
// once and the index table reconciled in a single rebuild pass. It panics
// if the window is invalid.
func (m *Map[K, V]) EraseRange(i, j int) int {
	if i < 0 || j < i || j > len(m.entries) {
		panic(fmt.Sprintf("ordered: erase range [%d, %d) out of range [0, %d)", i, j, len(m.entries)))
	}
	if i == j {
		return i
	}
	n := j - i
	copy(m.entries[i:], m.entries[j:])
	for k := len(m.entries) - n; k < len(m.entries); k++ {
		m.entries[k] = Entry[K, V]{}
	}
	m.entries = m.entries[:len(m.entries)-n]

	// Rebuild the index table from the surviving slots. Interleaving
	// backward shifts with a renumbering pass can move a not-yet-visited
	// slot behind the cursor, so the reconciliation replays into a fresh
	// table instead.
	old := m.slots
	m.slots = newSlots(len(old))
	for _, s := range old {
		if s.empty() || (s.index >= uint32(i) && s.index < uint32(j)) {
			continue
		}
		idx := s.index
		if idx >= uint32(j) {
			idx -= uint32(n)
		}
		m.placeIndex(s.hash, idx)
	}
	m.checkInvariants()
	return i
}

// UnorderedDelete erases the entry for key in O(1) by swapping it with the
// last entry and truncating the value store. The previously last entry
// takes over the erased entry's position; the order of all other entries is
// unchanged. Reports whether an entry was removed.
func (m *Map[K, V]) UnorderedDelete(key K) bool {
	return m.UnorderedDeleteHashed(key, m.Hash(key))
}

// UnorderedDeleteHashed is UnorderedDelete with a caller-precomputed hash.
func (m *Map[K, V]) UnorderedDeleteHashed(key K, h uint64) bool {
	si, ok := m.findSlot(key, uint32(h))
	if !ok {
		return false
	}
	m.unorderedEraseSlot(si)
	m.checkInvariants()
	return true
}

// UnorderedEraseAt erases the entry at position i via the tail-swap fast
// path and returns i, which now holds the previously last entry (or equals
// Len() if the last entry was erased). It panics if i is out of range.
func (m *Map[K, V]) UnorderedEraseAt(i int) int {
	key := m.entries[i].key
	si, ok := m.findSlot(key, uint32(m.hashKey(key)))
	if !ok {
		panic(fmt.Sprintf("ordered: no slot for entry %d\n%s", i, m.debugString()))
	}
	m.unorderedEraseSlot(si)
	m.checkInvariants()
	return i
}

// PopBack erases and returns the most recently inserted entry.
func (m *Map[K, V]) PopBack() (key K, value V, ok bool) {
	if len(m.entries) == 0 {
		return key, value, false
	}
	e := m.entries[len(m.entries)-1]
	m.EraseAt(len(m.entries) - 1)
	return e.key, e.value, true
}

// Clear removes all entries, keeping the allocated index table and value
// store for reuse.
func (m *Map[K, V]) Clear() {
	for i := range m.slots {
		m.slots[i].clear()
	}
	for i := range m.entries {
		m.entries[i] = Entry[K, V]{}
	}
	m.entries = m.entries[:0]
	m.growOnNextInsert = false
	m.checkInvariants()
}

// Swap exchanges the contents of m and other in constant time: the two
// owned buffers and the scalar fields trade places, entries are never
// copied.
func (m *Map[K, V]) Swap(other *Map[K, V]) {
	*m, *other = *other, *m
}

// Reserve prepares the map for n total entries: the value store capacity is
// grown and the index table resized so that no growth happens until the
// size exceeds n. Returns ErrCapacity or ErrLength if n is not
// representable.
func (m *Map[K, V]) Reserve(n int) error {
	if n > maxEntries {
		return ErrCapacity
	}
	if n > cap(m.entries) {
		m.entries = slices.Grow(m.entries, n-len(m.entries))
	}
	return m.Rehash(int(math.Ceil(float64(n) / m.maxLoadFactor)))
}

// Rehash resizes the index table to at least n buckets, rounded up to the
// next power of two and never below the count needed for the current
// entries, then rebuilds it by replaying every live slot. Returns ErrLength
// if the bucket count would exceed the representable maximum.
func (m *Map[K, V]) Rehash(n int) error {
	n = max(n, int(math.Ceil(float64(len(m.entries))/m.maxLoadFactor)))
	err := m.rehashTo(n)
	m.checkInvariants()
	return err
}

// hashKey returns the full hash of key under the map's hash function and
// seed.
func (m *Map[K, V]) hashKey(key K) uintptr {
	return m.hash(noescape(unsafe.Pointer(&key)), m.seed)
}

func (m *Map[K, V]) keyEqual(a, b K) bool {
	if m.eq != nil {
		return m.eq(a, b)
	}
	return a == b
}

// bucketForHash returns the ideal slot for a truncated hash. Probing always
// works off the truncated hash so that recorded distances and probe
// distances agree by construction.
func (m *Map[K, V]) bucketForHash(th uint32) uint32 {
	return th & m.mask
}

// probeDistance returns the number of linear steps, with wraparound, from
// the ideal slot of the occupant of slot i to slot i.
func (m *Map[K, V]) probeDistance(i uint32) uint32 {
	initial := m.slots[i].hash & m.mask
	if i >= initial {
		return i - initial
	}
	return uint32(len(m.slots)) + i - initial
}

// findSlot returns the index-table position of key's slot. It walks the
// probe sequence for the truncated hash and gives up as soon as it meets an
// empty slot or its own probe distance exceeds that of the slot under
// examination: the robin-hood invariant guarantees the key cannot live
// farther along.
func (m *Map[K, V]) findSlot(key K, th uint32) (si uint32, ok bool) {
	if len(m.entries) == 0 {
		return 0, false
	}
	i := m.bucketForHash(th)
	if debug {
		fmt.Printf("find(%v): bucket=%d\n", key, i)
	}
	for dist := uint32(0); ; dist++ {
		s := &m.slots[i]
		if s.empty() {
			return 0, false
		}
		if s.hash == th && m.keyEqual(m.entries[s.index].key, key) {
			return i, true
		}
		if dist > m.probeDistance(i) {
			return 0, false
		}
		i = (i + 1) & m.mask
	}
}

// findSlotFunc is findSlot with key equality replaced by a predicate.
func (m *Map[K, V]) findSlotFunc(th uint32, match func(K) bool) (si uint32, ok bool) {
	if len(m.entries) == 0 {
		return 0, false
	}
	i := m.bucketForHash(th)
	for dist := uint32(0); ; dist++ {
		s := &m.slots[i]
		if s.empty() {
			return 0, false
		}
		if s.hash == th && match(m.entries[s.index].key) {
			return i, true
		}
		if dist > m.probeDistance(i) {
			return 0, false
		}
		i = (i + 1) & m.mask
	}
}

// insertHashed is the common insertion path: probe for an existing entry,
// consult the growth policy, append to the value store, and thread the new
// index into the table.
func (m *Map[K, V]) insertHashed(key K, h uintptr, value V, assign bool) (int, bool, error) {
	if len(m.slots) == 0 {
		if err := m.rehashTo(defaultBucketCount); err != nil {
			return 0, false, err
		}
	}
	th := uint32(h)
	i := m.bucketForHash(th)
	dist := uint32(0)
	for !m.slots[i].empty() && dist <= m.probeDistance(i) {
		s := &m.slots[i]
		if s.hash == th && m.keyEqual(m.entries[s.index].key, key) {
			p := int(s.index)
			if assign {
				m.entries[p].value = value
			}
			return p, false, nil
		}
		i = (i + 1) & m.mask
		dist++
	}

	if len(m.entries) >= maxEntries {
		return 0, false, ErrCapacity
	}
	if m.growOnNextInsert || len(m.entries) >= m.loadThreshold {
		if err := m.rehashTo(2 * len(m.slots)); err != nil {
			return 0, false, err
		}
		// Restart the probe against the clean, larger table.
		i = m.bucketForHash(th)
		dist = 0
	}
	if debug {
		fmt.Printf("insert(%v): bucket=%d dist=%d index=%d\n", key, i, dist, len(m.entries))
	}

	m.entries = append(m.entries, Entry[K, V]{key: key, value: value})
	m.insertSlot(i, dist, uint32(len(m.entries)-1), th)
	m.checkInvariants()
	return len(m.entries) - 1, true, nil
}

// insertSlot threads a (hash, index) pair into the table starting at slot i
// with the given probe distance, displacing residents by the robin-hood
// rule: whenever the carried pair has probed farther than the slot's
// occupant, the occupant is evicted and carried forward instead.
func (m *Map[K, V]) insertSlot(i, dist uint32, index, th uint32) {
	for !m.slots[i].empty() {
		d := m.probeDistance(i)
		if dist > d {
			s := &m.slots[i]
			index, s.index = s.index, index
			th, s.hash = s.hash, th
			dist = d
		}
		i = (i + 1) & m.mask
		dist++
		if dist > maxProbesBeforeRehash && len(m.entries) >= m.minLoadRehashThreshold {
			// An overly long chain at meaningful load means clustering. The
			// walk must run to completion without reallocating, so arm a
			// doubling for the next insert instead of growing here.
			m.growOnNextInsert = true
		}
	}
	m.slots[i] = slot{hash: th, index: index}
}

// placeIndex replays a (hash, index) pair into the table during a rebuild.
// Identical to insertSlot except that it never arms the next-insert growth
// trigger: a rebuild replays into a table already sized for its contents.
func (m *Map[K, V]) placeIndex(th, index uint32) {
	i := m.bucketForHash(th)
	dist := uint32(0)
	for !m.slots[i].empty() {
		d := m.probeDistance(i)
		if dist > d {
			s := &m.slots[i]
			index, s.index = s.index, index
			th, s.hash = s.hash, th
			dist = d
		}
		i = (i + 1) & m.mask
		dist++
	}
	m.slots[i] = slot{hash: th, index: index}
}

// eraseSlot removes the entry referenced by slot si: the entry is cut out
// of the value store (shifting later entries left by one), slots
// referencing shifted entries are renumbered, and the freed slot's probe
// chain is healed by a backward shift.
func (m *Map[K, V]) eraseSlot(si uint32) {
	idx := int(m.slots[si].index)
	copy(m.entries[idx:], m.entries[idx+1:])
	last := len(m.entries) - 1
	m.entries[last] = Entry[K, V]{}
	m.entries = m.entries[:last]

	if idx != len(m.entries) {
		m.shiftIndexesAfterRemoval(idx)
	}
	m.slots[si].clear()
	m.backwardShift(si)
}

// shiftIndexesAfterRemoval renumbers the slot of every entry now at
// position from..Len()-1: each such slot still records the entry's old
// position, one greater than its new one.
func (m *Map[K, V]) shiftIndexesAfterRemoval(from int) {
	for p := from; p < len(m.entries); p++ {
		th := uint32(m.hashKey(m.entries[p].key))
		i := m.bucketForHash(th)
		for m.slots[i].index != uint32(p)+1 {
			i = (i + 1) & m.mask
		}
		m.slots[i].index = uint32(p)
	}
}

// backwardShift heals the probe chain after slot si was cleared: as long as
// the next slot is occupied and displaced from its ideal position, it is
// pulled one step back into the gap. No tombstones are ever left behind.
func (m *Map[K, V]) backwardShift(si uint32) {
	prev := si
	for {
		cur := (prev + 1) & m.mask
		if m.slots[cur].empty() || m.probeDistance(cur) == 0 {
			return
		}
		m.slots[prev] = m.slots[cur]
		m.slots[cur].clear()
		prev = cur
	}
}

// unorderedEraseSlot removes the entry referenced by slot si via the
// tail-swap fast path: the target entry trades places with the last entry
// (both slots' indices are patched), after which erasing the target is a
// pure truncation with no renumbering pass.
func (m *Map[K, V]) unorderedEraseSlot(si uint32) {
	lastIdx := uint32(len(m.entries) - 1)
	if m.slots[si].index != lastIdx {
		lastKey := m.entries[lastIdx].key
		li, ok := m.findSlot(lastKey, uint32(m.hashKey(lastKey)))
		if !ok {
			panic(fmt.Sprintf("ordered: no slot for last entry %d\n%s", lastIdx, m.debugString()))
		}
		ti := m.slots[si].index
		m.entries[ti], m.entries[lastIdx] = m.entries[lastIdx], m.entries[ti]
		m.slots[si].index, m.slots[li].index = m.slots[li].index, m.slots[si].index
	}
	m.eraseSlot(si)
}

// rehashTo resizes the index table to n buckets rounded up to a power of
// two and rebuilds it by replaying every live slot's (hash, index) pair.
// Keys are not rehashed. A no-op if the rounded count equals the current
// one.
func (m *Map[K, V]) rehashTo(n int) error {
	n = roundUpPowerOfTwo(max(n, 1))
	if n == len(m.slots) {
		return nil
	}
	if n > maxBucketCount {
		return ErrLength
	}
	if debug {
		fmt.Printf("rehash: buckets=%d->%d entries=%d\n", len(m.slots), n, len(m.entries))
	}

	old := m.slots
	m.slots = newSlots(n)
	m.mask = uint32(n - 1)
	m.updateThresholds()
	m.growOnNextInsert = false

	for _, s := range old {
		if s.empty() {
			continue
		}
		m.placeIndex(s.hash, s.index)
	}
	return nil
}

func (m *Map[K, V]) updateThresholds() {
	m.loadThreshold = int(float64(len(m.slots)) * m.maxLoadFactor)
	m.minLoadRehashThreshold = int(float64(len(m.slots)) * rehashMinLoadFactor)
}

func newSlots(n int) []slot {
	s := make([]slot, n)
	for i := range s {
		s[i].index = emptySlotIndex
	}
	return s
}

func roundUpPowerOfTwo(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}

func (m *Map[K, V]) checkInvariants() {
	if invariants {
		n := len(m.slots)
		if n&(n-1) != 0 {
			panic(fmt.Sprintf("invariant failed: bucket count %d is not a power of two", n))
		}
		if n > 0 && m.mask != uint32(n-1) {
			panic(fmt.Sprintf("invariant failed: mask %d != bucket count %d - 1", m.mask, n))
		}

		// Every live entry is referenced by exactly one slot, every slot
		// caches the truncated hash of its entry's key, and every key is
		// reachable through a probe.
		seen := make([]bool, len(m.entries))
		occupied := 0
		for i := range m.slots {
			s := &m.slots[i]
			if s.empty() {
				continue
			}
			occupied++
			if int(s.index) >= len(m.entries) {
				panic(fmt.Sprintf("invariant failed: slot %d references entry %d of %d\n%s",
					i, s.index, len(m.entries), m.debugString()))
			}
			if seen[s.index] {
				panic(fmt.Sprintf("invariant failed: entry %d referenced twice\n%s", s.index, m.debugString()))
			}
			seen[s.index] = true
			key := m.entries[s.index].key
			if th := uint32(m.hashKey(key)); th != s.hash {
				panic(fmt.Sprintf("invariant failed: slot %d hash %08x != %08x for key %v\n%s",
					i, s.hash, th, key, m.debugString()))
			}
			if _, ok := m.findSlot(key, s.hash); !ok {
				panic(fmt.Sprintf("invariant failed: key %v at entry %d not found\n%s",
					key, s.index, m.debugString()))
			}
		}
		if occupied != len(m.entries) {
			panic(fmt.Sprintf("invariant failed: %d occupied slots for %d entries\n%s",
				occupied, len(m.entries), m.debugString()))
		}

		// The robin-hood distance invariant: an occupied slot following an
		// empty one sits in its ideal position, and distances along a chain
		// never jump by more than the step itself.
		for i := range m.slots {
			s := &m.slots[i]
			if s.empty() {
				continue
			}
			prev := (uint32(i) - 1) & m.mask
			d := m.probeDistance(uint32(i))
			if m.slots[prev].empty() {
				if d != 0 {
					panic(fmt.Sprintf("invariant failed: slot %d has distance %d after an empty slot\n%s",
						i, d, m.debugString()))
				}
			} else if pd := m.probeDistance(prev); d > pd+1 {
				panic(fmt.Sprintf("invariant failed: probe distance inversion at slot %d (%d > %d+1)\n%s",
					i, d, pd, m.debugString()))
			}
		}
	}
}

func (m *Map[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "buckets=%d entries=%d threshold=%d\n", len(m.slots), len(m.entries), m.loadThreshold)
	for i := range m.slots {
		s := &m.slots[i]
		if s.empty() {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		fmt.Fprintf(&buf, "  %4d: hash=%08x index=%d dist=%d key=%v\n",
			i, s.hash, s.index, m.probeDistance(uint32(i)), m.entries[s.index].key)
	}
	return buf.String()
}
