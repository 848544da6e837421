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

package ordered

import "iter"

// All returns an iterator over the map's entries in insertion order. The
// iteration is performed over a snapshot of the value store taken when All
// is called: entries inserted during the iteration are not visited, and
// erasing during the iteration may visit stale entries. If the map is not
// mutated, every entry is visited exactly once, oldest first.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	for _, e := range m.entries {
		if !yield(e.key, e.value) {
			return
		}
	}
}

// Keys returns an iterator over the map's keys in insertion order. The
// snapshot caveats of All apply.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, e := range m.entries {
			if !yield(e.key) {
				return
			}
		}
	}
}

// Values returns an iterator over the map's values in insertion order. The
// snapshot caveats of All apply.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, e := range m.entries {
			if !yield(e.value) {
				return
			}
		}
	}
}

// Backward returns an iterator over the map's entries in reverse insertion
// order, newest first. The snapshot caveats of All apply.
func (m *Map[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := len(m.entries) - 1; i >= 0; i-- {
			e := m.entries[i]
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Iterator is a random-access cursor over a Map's entries in insertion
// order. Positions are dense: the iterator is a position into the value
// store, so Add, Sub and Seek are constant time. An Iterator is invalidated
// by any mutation of the map; using one afterwards may visit the wrong
// entry or panic.
type Iterator[K comparable, V any] struct {
	m   *Map[K, V]
	pos int
}

// Iterator returns a cursor positioned at the oldest entry. If the map is
// empty the cursor starts exhausted.
func (m *Map[K, V]) Iterator() Iterator[K, V] {
	return Iterator[K, V]{m: m}
}

// Valid reports whether the cursor references an entry.
func (it *Iterator[K, V]) Valid() bool {
	return it.pos >= 0 && it.pos < len(it.m.entries)
}

// Next advances the cursor one position toward the newest entry.
func (it *Iterator[K, V]) Next() {
	it.pos++
}

// Prev moves the cursor one position toward the oldest entry.
func (it *Iterator[K, V]) Prev() {
	it.pos--
}

// Add moves the cursor n positions forward (negative n moves backward).
func (it *Iterator[K, V]) Add(n int) {
	it.pos += n
}

// Seek positions the cursor at key's entry and reports whether the key was
// found. On a miss the cursor is exhausted.
func (it *Iterator[K, V]) Seek(key K) bool {
	i, ok := it.m.Find(key)
	if !ok {
		it.pos = len(it.m.entries)
		return false
	}
	it.pos = i
	return true
}

// SeekToFirst positions the cursor at the oldest entry.
func (it *Iterator[K, V]) SeekToFirst() {
	it.pos = 0
}

// SeekToLast positions the cursor at the newest entry.
func (it *Iterator[K, V]) SeekToLast() {
	it.pos = len(it.m.entries) - 1
}

// Pos returns the cursor's position in the value store.
func (it *Iterator[K, V]) Pos() int {
	return it.pos
}

// Key returns the key of the current entry. The cursor must be Valid.
func (it *Iterator[K, V]) Key() K {
	return it.m.entries[it.pos].key
}

// Value returns the value of the current entry. The cursor must be Valid.
func (it *Iterator[K, V]) Value() V {
	return it.m.entries[it.pos].value
}

// SetValue replaces the value of the current entry in place. The cursor must
// be Valid.
func (it *Iterator[K, V]) SetValue(value V) {
	it.m.entries[it.pos].value = value
}
