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
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
)

// The serialized form is a sequence of chunks, each a one-byte type tag
// followed by a little-endian payload. The header records the entry count
// and table geometry so deserialization can size everything up front;
// entries follow in insertion order, split into chunks of at most
// serializeChunkLen; a bare end tag terminates the stream.
const (
	chunkHeader   uint8 = 1
	chunkElements uint8 = 2
	chunkEnd      uint8 = 4

	serializeVersion  uint32 = 1
	serializeChunkLen        = 4096
)

// Serialize writes the map to w in chunked form. Keys and values are
// written by the supplied encode function, called once per entry in
// insertion order. The table geometry (bucket count, max load factor) is
// recorded so a Deserialize restores an identically laid out map.
func (m *Map[K, V]) Serialize(w io.Writer, encode func(w io.Writer, key K, value V) error) error {
	if err := writeLE(w, chunkHeader); err != nil {
		return err
	}
	if err := writeLE(w, serializeVersion); err != nil {
		return err
	}
	if err := writeLE(w, uint64(len(m.entries))); err != nil {
		return err
	}
	if err := writeLE(w, uint64(len(m.slots))); err != nil {
		return err
	}
	if err := writeLE(w, math.Float64bits(m.maxLoadFactor)); err != nil {
		return err
	}

	for off := 0; off < len(m.entries); off += serializeChunkLen {
		n := min(serializeChunkLen, len(m.entries)-off)
		if err := writeLE(w, chunkElements); err != nil {
			return err
		}
		if err := writeLE(w, uint32(n)); err != nil {
			return err
		}
		for _, e := range m.entries[off : off+n] {
			if err := encode(w, e.key, e.value); err != nil {
				return errors.Wrap(err, "ordered: encode entry")
			}
		}
	}
	return writeLE(w, chunkEnd)
}

// Deserialize replaces the contents of m with a stream produced by
// Serialize, reading keys and values with the supplied decode function. The
// map's hash function, seed and options are kept; the recorded geometry and
// insertion order are restored. Returns an error on truncated or corrupt
// framing, or if the stream contains duplicate keys.
func (m *Map[K, V]) Deserialize(r io.Reader, decode func(r io.Reader) (K, V, error)) error {
	var tag uint8
	if err := readLE(r, &tag); err != nil {
		return err
	}
	if tag != chunkHeader {
		return errors.Newf("ordered: expected header chunk, got tag %d", tag)
	}
	var version uint32
	if err := readLE(r, &version); err != nil {
		return err
	}
	if version != serializeVersion {
		return errors.Newf("ordered: unsupported serialization version %d", version)
	}
	var count, bucketCount, lfBits uint64
	if err := readLE(r, &count); err != nil {
		return err
	}
	if err := readLE(r, &bucketCount); err != nil {
		return err
	}
	if err := readLE(r, &lfBits); err != nil {
		return err
	}
	if count > maxEntries {
		return errors.Mark(errors.Newf("ordered: serialized entry count %d", count), ErrCapacity)
	}
	if bucketCount > maxBucketCount || (bucketCount != 0 && bucketCount&(bucketCount-1) != 0) {
		return errors.Newf("ordered: corrupt serialized bucket count %d", bucketCount)
	}

	m.Clear()
	m.SetMaxLoadFactor(math.Float64frombits(lfBits))
	if err := m.Reserve(int(count)); err != nil {
		return err
	}
	if err := m.Rehash(int(bucketCount)); err != nil {
		return err
	}

	remaining := int(count)
	for {
		if err := readLE(r, &tag); err != nil {
			return err
		}
		switch tag {
		case chunkElements:
			var n uint32
			if err := readLE(r, &n); err != nil {
				return err
			}
			if int(n) > remaining {
				return errors.Newf("ordered: element chunk of %d exceeds remaining %d", n, remaining)
			}
			for ; n > 0; n-- {
				key, value, err := decode(r)
				if err != nil {
					return errors.Wrap(err, "ordered: decode entry")
				}
				_, inserted, err := m.Insert(key, value)
				if err != nil {
					return err
				}
				if !inserted {
					return errors.Newf("ordered: duplicate key %v in stream", key)
				}
				remaining--
			}
		case chunkEnd:
			if remaining != 0 {
				return errors.Newf("ordered: stream ended with %d entries missing", remaining)
			}
			return nil
		default:
			return errors.Newf("ordered: unexpected chunk tag %d", tag)
		}
	}
}

func writeLE[T any](w io.Writer, v T) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readLE[T any](r io.Reader, v *T) error {
	err := binary.Read(r, binary.LittleEndian, v)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrap(err, "ordered: truncated stream")
	}
	return err
}
