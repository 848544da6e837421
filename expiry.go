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

import "time"

// ttlEntry carries a value and its expiry deadline.
type ttlEntry[V any] struct {
	value    V
	deadline time.Time
}

// TTLMap is a map whose entries expire a fixed duration after they were
// last written. It exploits the insertion ordering of Map: a write always
// moves the entry to the back, so the front of the map is always the entry
// closest to expiry and Expire only ever inspects a prefix.
//
// A TTLMap is NOT goroutine-safe.
type TTLMap[K comparable, V any] struct {
	m   Map[K, ttlEntry[V]]
	ttl time.Duration
	// now is replaced in tests.
	now func() time.Time
}

// NewTTLMap constructs a TTLMap whose entries live for ttl after each
// write.
func NewTTLMap[K comparable, V any](initialCapacity int, ttl time.Duration) *TTLMap[K, V] {
	t := &TTLMap[K, V]{ttl: ttl, now: time.Now}
	t.m.Init(initialCapacity)
	return t
}

// Len returns the number of entries, counting any that have expired but not
// yet been collected.
func (t *TTLMap[K, V]) Len() int {
	return t.m.Len()
}

// Put writes key with the given value and a fresh deadline. An existing
// entry is moved to the back so that front-to-back order remains
// oldest-deadline-first.
func (t *TTLMap[K, V]) Put(key K, value V) error {
	h := t.m.Hash(key)
	t.m.DeleteHashed(key, h)
	_, _, err := t.m.Insert(key, ttlEntry[V]{value: value, deadline: t.now().Add(t.ttl)})
	return err
}

// Get retrieves the value for key. An entry past its deadline is erased and
// reported absent.
func (t *TTLMap[K, V]) Get(key K) (value V, ok bool) {
	h := t.m.Hash(key)
	e, ok := t.m.GetHashed(key, h)
	if !ok {
		return value, false
	}
	if !t.now().Before(e.deadline) {
		t.m.DeleteHashed(key, h)
		return value, false
	}
	return e.value, true
}

// Contains reports whether key is present and not expired. Unlike Get it
// does not collect an expired entry.
func (t *TTLMap[K, V]) Contains(key K) bool {
	e, ok := t.m.Get(key)
	return ok && t.now().Before(e.deadline)
}

// Delete erases the entry for key regardless of its deadline.
func (t *TTLMap[K, V]) Delete(key K) bool {
	return t.m.Delete(key)
}

// Expire erases every expired entry and returns the number erased. Expired
// entries form a prefix of the map, so the scan stops at the first live
// deadline.
func (t *TTLMap[K, V]) Expire() int {
	now := t.now()
	n := 0
	for n < t.m.Len() && !now.Before(t.m.ValueAt(n).deadline) {
		n++
	}
	if n > 0 {
		t.m.EraseRange(0, n)
	}
	return n
}

// NextExpiry returns the deadline of the oldest entry, or ok=false if the
// map is empty. Useful for scheduling the next Expire call.
func (t *TTLMap[K, V]) NextExpiry() (deadline time.Time, ok bool) {
	if t.m.IsEmpty() {
		return deadline, false
	}
	return t.m.ValueAt(0).deadline, true
}

// lruEntry carries a value and the sequence number of its last access.
type lruEntry[V any] struct {
	value V
	used  uint64
}

// LRUCache is a fixed-capacity cache that evicts the least recently used
// entry when full. Entries carry access sequence numbers; eviction scans
// the dense value store for the minimum, trading an O(n) eviction for O(1)
// reads and zero per-access bookkeeping. Evictions use the tail-swap erase,
// so no eviction ever pays the ordered-shift cost.
//
// An LRUCache is NOT goroutine-safe.
type LRUCache[K comparable, V any] struct {
	m        Map[K, lruEntry[V]]
	capacity int
	seq      uint64
}

// NewLRUCache constructs a cache holding at most capacity entries.
// capacity must be positive.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("ordered: LRU capacity must be positive")
	}
	c := &LRUCache[K, V]{capacity: capacity}
	c.m.Init(capacity)
	return c
}

// Len returns the number of cached entries.
func (c *LRUCache[K, V]) Len() int {
	return c.m.Len()
}

// Get retrieves the value for key and marks it most recently used.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	i, ok := c.m.Find(key)
	if !ok {
		return value, false
	}
	e := c.m.ValueAt(i)
	c.seq++
	e.used = c.seq
	c.m.SetValueAt(i, e)
	return e.value, true
}

// Put writes key with the given value, evicting the least recently used
// entry if the cache is full and key is not already present.
func (c *LRUCache[K, V]) Put(key K, value V) error {
	c.seq++
	e := lruEntry[V]{value: value, used: c.seq}
	if i, ok := c.m.Find(key); ok {
		c.m.SetValueAt(i, e)
		return nil
	}
	if c.m.Len() >= c.capacity {
		c.evict()
	}
	_, _, err := c.m.Insert(key, e)
	return err
}

// Delete erases the entry for key.
func (c *LRUCache[K, V]) Delete(key K) bool {
	return c.m.UnorderedDelete(key)
}

// evict removes the entry with the smallest access sequence number.
func (c *LRUCache[K, V]) evict() {
	minPos := 0
	minUsed := c.m.ValueAt(0).used
	for i := 1; i < c.m.Len(); i++ {
		if u := c.m.ValueAt(i).used; u < minUsed {
			minUsed = u
			minPos = i
		}
	}
	c.m.UnorderedEraseAt(minPos)
}
