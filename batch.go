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

// InsertBatch inserts the given entries in order, skipping keys already
// present, and returns the number inserted. The index table is sized for
// the whole batch up front, so no rehash happens mid-batch and duplicate
// keys within the batch cost a single probe each. New entries take
// consecutive positions in batch order. Returns ErrCapacity or ErrLength if
// the batch cannot fit, with the map unchanged.
func (m *Map[K, V]) InsertBatch(entries ...Entry[K, V]) (int, error) {
	return m.insertBatch(entries, false)
}

// PutBatch is InsertBatch with assignment semantics: values of existing
// entries are overwritten in place. Returns the number of new entries
// inserted.
func (m *Map[K, V]) PutBatch(entries ...Entry[K, V]) (int, error) {
	return m.insertBatch(entries, true)
}

func (m *Map[K, V]) insertBatch(entries []Entry[K, V], assign bool) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if len(m.entries)+len(entries) > maxEntries {
		return 0, ErrCapacity
	}
	if err := m.Reserve(len(m.entries) + len(entries)); err != nil {
		return 0, err
	}
	inserted := 0
	for _, e := range entries {
		_, ok, err := m.insertHashed(e.key, m.hashKey(e.key), e.value, assign)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// DeleteBatch erases the entries for the given keys, preserving the
// relative order of the survivors, and returns the number removed. Absent
// keys are ignored.
func (m *Map[K, V]) DeleteBatch(keys ...K) int {
	deleted := 0
	for _, key := range keys {
		if m.Delete(key) {
			deleted++
		}
	}
	return deleted
}
