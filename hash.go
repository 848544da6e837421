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
	"unsafe"
)

// hashFn is the signature of the runtime's per-type hash functions: a
// pointer to the key and a seed.
type hashFn func(unsafe.Pointer, uintptr) uintptr

// getRuntimeHasher returns the hash function Go's builtin map[K]struct{}
// uses for keys of type K, extracted by reaching into the runtime's
// representation of the map type. This might break in a future version of
// Go, but is likely fixable unless the runtime does something drastic.
func getRuntimeHasher[K comparable]() hashFn {
	a := any((map[K]struct{})(nil))
	return (*mapiface)(unsafe.Pointer(&a)).typ.Hasher
}

type mapiface struct {
	typ *maptype
	val unsafe.Pointer
}

// maptype mirrors the layout of internal/abi.MapType.
type maptype struct {
	rtype
	Key    *rtype
	Elem   *rtype
	Bucket *rtype
	// Hasher is the function to hash keys of this map type.
	Hasher     func(unsafe.Pointer, uintptr) uintptr
	KeySize    uint8
	ValueSize  uint8
	BucketSize uint16
	Flags      uint32
}

// rtype mirrors the layout of internal/abi.Type.
type rtype struct {
	Size_       uintptr
	PtrBytes    uintptr
	Hash        uint32
	TFlag       uint8
	Align_      uint8
	FieldAlign_ uint8
	Kind_       uint8
	Equal       func(unsafe.Pointer, unsafe.Pointer) bool
	GCData      *byte
	Str         int32
	PtrToThis   int32
}

//go:linkname runtime_rand runtime.rand
func runtime_rand() uint64

// noescape hides a pointer from escape analysis. noescape is the identity
// function but escape analysis doesn't think the output depends on the
// input. noescape is inlined and currently compiles down to zero
// instructions.
// USE CAREFULLY!
//
//go:nosplit
//go:nocheckptr
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}

// unsafeConvertSlice reinterprets the memory of a []Src as a []Dest.
func unsafeConvertSlice[Dest any, Src any](s []Src) []Dest {
	return unsafe.Slice((*Dest)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}
