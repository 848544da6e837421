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
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeIntPair(w io.Writer, key int64, value int64) error {
	if err := binary.Write(w, binary.LittleEndian, key); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, value)
}

func decodeIntPair(r io.Reader) (int64, int64, error) {
	var key, value int64
	if err := binary.Read(r, binary.LittleEndian, &key); err != nil {
		return 0, 0, err
	}
	if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
		return 0, 0, err
	}
	return key, value, nil
}

func TestSerializeRoundTrip(t *testing.T) {
	// Spans multiple element chunks.
	const count = 10000

	m := New[int64, int64](0)
	for i := int64(0); i < count; i++ {
		m.Put(i*3, i)
	}
	m.Delete(9) // order with a hole healed by a shift
	var buf bytes.Buffer
	require.NoError(t, m.Serialize(&buf, encodeIntPair))

	got := New[int64, int64](0)
	require.NoError(t, got.Deserialize(&buf, decodeIntPair))

	require.EqualValues(t, m.Len(), got.Len())
	require.EqualValues(t, m.BucketCount(), got.BucketCount())
	require.EqualValues(t, m.MaxLoadFactor(), got.MaxLoadFactor())
	require.Equal(t, m.orderedKeys(), got.orderedKeys())
	for _, k := range m.orderedKeys() {
		want, _ := m.Get(k)
		v, ok := got.Get(k)
		require.True(t, ok)
		require.EqualValues(t, want, v)
	}
}

func TestSerializeEmpty(t *testing.T) {
	m := New[int64, int64](0)
	var buf bytes.Buffer
	require.NoError(t, m.Serialize(&buf, encodeIntPair))

	got := New[int64, int64](0)
	got.Put(1, 1) // existing contents are replaced
	require.NoError(t, got.Deserialize(&buf, decodeIntPair))
	require.EqualValues(t, 0, got.Len())
}

func TestSerializeGeometry(t *testing.T) {
	m := New[int64, int64](0, WithMaxLoadFactor[int64, int64](0.5))
	for i := int64(0); i < 100; i++ {
		m.Put(i, i)
	}
	require.NoError(t, m.Rehash(4096))

	var buf bytes.Buffer
	require.NoError(t, m.Serialize(&buf, encodeIntPair))
	got := New[int64, int64](0)
	require.NoError(t, got.Deserialize(&buf, decodeIntPair))
	require.EqualValues(t, 4096, got.BucketCount())
	require.EqualValues(t, 0.5, got.MaxLoadFactor())
}

func TestDeserializeCorrupt(t *testing.T) {
	m := New[int64, int64](0)
	for i := int64(0); i < 10; i++ {
		m.Put(i, i)
	}
	var buf bytes.Buffer
	require.NoError(t, m.Serialize(&buf, encodeIntPair))
	stream := buf.Bytes()

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 1, 4, len(stream) / 2, len(stream) - 1} {
			got := New[int64, int64](0)
			require.Error(t, got.Deserialize(bytes.NewReader(stream[:n]), decodeIntPair))
		}
	})
	t.Run("bad-tag", func(t *testing.T) {
		bad := append([]byte(nil), stream...)
		bad[0] = 99
		got := New[int64, int64](0)
		require.Error(t, got.Deserialize(bytes.NewReader(bad), decodeIntPair))
	})
	t.Run("bad-version", func(t *testing.T) {
		bad := append([]byte(nil), stream...)
		bad[1] = 99
		got := New[int64, int64](0)
		require.Error(t, got.Deserialize(bytes.NewReader(bad), decodeIntPair))
	})
	t.Run("bad-bucket-count", func(t *testing.T) {
		bad := append([]byte(nil), stream...)
		// The bucket count field follows the tag, version and entry count.
		binary.LittleEndian.PutUint64(bad[1+4+8:], 3)
		got := New[int64, int64](0)
		require.Error(t, got.Deserialize(bytes.NewReader(bad), decodeIntPair))
	})
}

func TestDeserializeDuplicateKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, chunkHeader))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, serializeVersion))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(2)))  // count
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(16))) // buckets
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(0x3FECCCCCCCCCCCCD)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, chunkElements))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2)))
	require.NoError(t, encodeIntPair(&buf, 7, 1))
	require.NoError(t, encodeIntPair(&buf, 7, 2))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, chunkEnd))

	got := New[int64, int64](0)
	err := got.Deserialize(&buf, decodeIntPair)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate key")
}
