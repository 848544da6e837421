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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock drives a TTLMap deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestTTLMap(ttl time.Duration) (*TTLMap[string, int], *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000000, 0)}
	m := NewTTLMap[string, int](0, ttl)
	m.now = clock.now
	return m, clock
}

func TestTTLMapGet(t *testing.T) {
	m, clock := newTestTTLMap(time.Minute)
	require.NoError(t, m.Put("a", 1))

	v, ok := m.Get("a")
	require.True(t, ok)
	require.EqualValues(t, 1, v)

	clock.advance(59 * time.Second)
	require.True(t, m.Contains("a"))

	clock.advance(time.Second)
	require.False(t, m.Contains("a"))
	require.EqualValues(t, 1, m.Len())

	// Get collects the expired entry.
	_, ok = m.Get("a")
	require.False(t, ok)
	require.EqualValues(t, 0, m.Len())
}

func TestTTLMapPutRefreshes(t *testing.T) {
	m, clock := newTestTTLMap(time.Minute)
	require.NoError(t, m.Put("a", 1))
	require.NoError(t, m.Put("b", 2))

	clock.advance(30 * time.Second)
	require.NoError(t, m.Put("a", 10))

	// "a" was rewritten and must now outlive "b".
	clock.advance(45 * time.Second)
	require.False(t, m.Contains("b"))
	v, ok := m.Get("a")
	require.True(t, ok)
	require.EqualValues(t, 10, v)
}

func TestTTLMapExpire(t *testing.T) {
	m, clock := newTestTTLMap(time.Minute)
	for i, k := range []string{"a", "b", "c", "d"} {
		clock.advance(10 * time.Second)
		require.NoError(t, m.Put(k, i))
	}

	deadline, ok := m.NextExpiry()
	require.True(t, ok)
	require.Equal(t, clock.t.Add(time.Minute-30*time.Second), deadline)

	// 5s past "b"'s deadline, 5s short of "c"'s.
	clock.advance(45 * time.Second)
	require.EqualValues(t, 2, m.Expire())
	require.EqualValues(t, 2, m.Len())
	require.True(t, m.Contains("c"))
	require.True(t, m.Contains("d"))

	require.EqualValues(t, 0, m.Expire())
	clock.advance(time.Hour)
	require.EqualValues(t, 2, m.Expire())
	require.EqualValues(t, 0, m.Len())
	_, ok = m.NextExpiry()
	require.False(t, ok)
}

func TestTTLMapDelete(t *testing.T) {
	m, _ := newTestTTLMap(time.Minute)
	require.NoError(t, m.Put("a", 1))
	require.True(t, m.Delete("a"))
	require.False(t, m.Delete("a"))
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string, int](3)
	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))
	require.NoError(t, c.Put("c", 3))
	require.EqualValues(t, 3, c.Len())

	// Touch "a" so "b" is now the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	require.NoError(t, c.Put("d", 4))
	require.EqualValues(t, 3, c.Len())
	_, ok = c.Get("b")
	require.False(t, ok)
	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(k)
		require.True(t, ok)
	}
}

func TestLRUCacheUpdate(t *testing.T) {
	c := NewLRUCache[string, int](2)
	require.NoError(t, c.Put("a", 1))
	require.NoError(t, c.Put("b", 2))

	// Updating an existing key must not evict.
	require.NoError(t, c.Put("a", 10))
	require.EqualValues(t, 2, c.Len())
	v, ok := c.Get("a")
	require.True(t, ok)
	require.EqualValues(t, 10, v)

	// "b" is now least recently used.
	require.NoError(t, c.Put("c", 3))
	_, ok = c.Get("b")
	require.False(t, ok)
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[int, int](4)
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Put(i, i))
	}
	require.True(t, c.Delete(2))
	require.False(t, c.Delete(2))
	require.EqualValues(t, 3, c.Len())

	require.NoError(t, c.Put(10, 10))
	require.NoError(t, c.Put(11, 11))
	require.EqualValues(t, 4, c.Len())
}

func TestLRUCacheCapacityPanics(t *testing.T) {
	require.Panics(t, func() { NewLRUCache[int, int](0) })
}
