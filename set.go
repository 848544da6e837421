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

// Set is an insertion-ordered set of unique keys. It is a thin wrapper
// around a Map with empty values, sharing the Map's index table, value
// store and growth policy; positional semantics (dense positions, ordered
// and tail-swap erases) carry over unchanged.
//
// A Set is NOT goroutine-safe.
type Set[K comparable] struct {
	m Map[K, struct{}]
}

// NewSet constructs a Set with capacity for initialCapacity keys before the
// first growth.
func NewSet[K comparable](initialCapacity int, options ...Option[K, struct{}]) *Set[K] {
	s := &Set[K]{}
	s.Init(initialCapacity, options...)
	return s
}

// Init (re)initializes the set in place, releasing any previous contents.
func (s *Set[K]) Init(initialCapacity int, options ...Option[K, struct{}]) {
	s.m.Init(initialCapacity, options...)
}

// Len returns the number of keys in the set.
func (s *Set[K]) Len() int {
	return s.m.Len()
}

// IsEmpty reports whether the set holds no keys.
func (s *Set[K]) IsEmpty() bool {
	return s.m.IsEmpty()
}

// Insert adds key if not already present. It returns the position of the
// key (existing or new) and whether an insertion happened. The only
// possible error is ErrCapacity.
func (s *Set[K]) Insert(key K) (i int, inserted bool, err error) {
	return s.m.Insert(key, struct{}{})
}

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) bool {
	return s.m.Contains(key)
}

// ContainsHashed is Contains with a caller-precomputed hash.
func (s *Set[K]) ContainsHashed(key K, h uint64) bool {
	return s.m.ContainsHashed(key, h)
}

// Find returns the position of key, or ok=false if absent.
func (s *Set[K]) Find(key K) (i int, ok bool) {
	return s.m.Find(key)
}

// FindHashed is Find with a caller-precomputed hash.
func (s *Set[K]) FindHashed(key K, h uint64) (i int, ok bool) {
	return s.m.FindHashed(key, h)
}

// Delete erases key, preserving the relative order of the remaining keys,
// and reports whether a key was removed.
func (s *Set[K]) Delete(key K) bool {
	return s.m.Delete(key)
}

// DeleteHashed is Delete with a caller-precomputed hash.
func (s *Set[K]) DeleteHashed(key K, h uint64) bool {
	return s.m.DeleteHashed(key, h)
}

// UnorderedDelete erases key in O(1) by swapping it with the last key. The
// previously last key takes over the erased key's position.
func (s *Set[K]) UnorderedDelete(key K) bool {
	return s.m.UnorderedDelete(key)
}

// EraseAt erases the key at position i, preserving order, and returns the
// position of the key that followed it. It panics if i is out of range.
func (s *Set[K]) EraseAt(i int) int {
	return s.m.EraseAt(i)
}

// UnorderedEraseAt erases the key at position i via the tail-swap fast
// path. It panics if i is out of range.
func (s *Set[K]) UnorderedEraseAt(i int) int {
	return s.m.UnorderedEraseAt(i)
}

// EraseRange erases the keys in the position window [i, j), preserving the
// order of the remaining keys. It panics if the window is invalid.
func (s *Set[K]) EraseRange(i, j int) int {
	return s.m.EraseRange(i, j)
}

// PopBack erases and returns the most recently inserted key.
func (s *Set[K]) PopBack() (key K, ok bool) {
	key, _, ok = s.m.PopBack()
	return key, ok
}

// KeyAt returns the key at position i. It panics if i is out of range.
func (s *Set[K]) KeyAt(i int) K {
	return s.m.KeyAt(i)
}

// Clear removes all keys, keeping the allocated storage for reuse.
func (s *Set[K]) Clear() {
	s.m.Clear()
}

// Swap exchanges the contents of s and other in constant time.
func (s *Set[K]) Swap(other *Set[K]) {
	s.m.Swap(&other.m)
}

// Reserve prepares the set for n total keys.
func (s *Set[K]) Reserve(n int) error {
	return s.m.Reserve(n)
}

// Rehash resizes the index table to at least n buckets.
func (s *Set[K]) Rehash(n int) error {
	return s.m.Rehash(n)
}

// BucketCount returns the current size of the index table.
func (s *Set[K]) BucketCount() int {
	return s.m.BucketCount()
}

// LoadFactor returns the ratio of keys to index-table size.
func (s *Set[K]) LoadFactor() float64 {
	return s.m.LoadFactor()
}

// Hash returns the hash of key under the set's hash function and seed.
func (s *Set[K]) Hash(key K) uint64 {
	return s.m.Hash(key)
}

// All returns an iterator over the set's keys in insertion order. The
// snapshot caveats of Map.All apply.
func (s *Set[K]) All(yield func(key K) bool) {
	for k := range s.m.Keys() {
		if !yield(k) {
			return
		}
	}
}

// Backward returns an iterator over the set's keys in reverse insertion
// order.
func (s *Set[K]) Backward() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range s.m.Backward() {
			if !yield(k) {
				return
			}
		}
	}
}
