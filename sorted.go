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

import (
	"cmp"
	"slices"
)

// SortedView is a read-only view of a Map's entries in key-sorted order. It
// holds a permutation of value-store positions computed when the view is
// built; any mutation of the underlying map invalidates the view.
type SortedView[K comparable, V any] struct {
	m   *Map[K, V]
	pos []int
}

// SortedFunc builds a key-sorted view of m under the given comparison. The
// build is O(n log n); reads through the view are O(1).
func SortedFunc[K comparable, V any](m *Map[K, V], compare func(a, b K) int) *SortedView[K, V] {
	pos := make([]int, m.Len())
	for i := range pos {
		pos[i] = i
	}
	slices.SortFunc(pos, func(a, b int) int {
		return compare(m.entries[a].key, m.entries[b].key)
	})
	return &SortedView[K, V]{m: m, pos: pos}
}

// Sorted builds a key-sorted view of m using the natural ordering of K.
func Sorted[K cmp.Ordered, V any](m *Map[K, V]) *SortedView[K, V] {
	return SortedFunc(m, cmp.Compare[K])
}

// SortedKeys returns the keys of m sorted by their natural ordering. Unlike
// a SortedView the returned slice does not alias the map.
func SortedKeys[K cmp.Ordered, V any](m *Map[K, V]) []K {
	keys := make([]K, 0, m.Len())
	for _, e := range m.entries {
		keys = append(keys, e.key)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of entries in the view.
func (v *SortedView[K, V]) Len() int {
	return len(v.pos)
}

// At returns the i'th entry in sorted order. It panics if i is out of
// range.
func (v *SortedView[K, V]) At(i int) (K, V) {
	return v.m.GetAt(v.pos[i])
}

// Key returns the key of the i'th entry in sorted order.
func (v *SortedView[K, V]) Key(i int) K {
	return v.m.KeyAt(v.pos[i])
}

// Value returns the value of the i'th entry in sorted order.
func (v *SortedView[K, V]) Value(i int) V {
	return v.m.ValueAt(v.pos[i])
}

// Pos returns the value-store position of the i'th entry in sorted order.
func (v *SortedView[K, V]) Pos(i int) int {
	return v.pos[i]
}

// All returns an iterator over the view's entries in sorted order.
func (v *SortedView[K, V]) All(yield func(key K, value V) bool) {
	for _, p := range v.pos {
		k, val := v.m.GetAt(p)
		if !yield(k, val) {
			return
		}
	}
}
