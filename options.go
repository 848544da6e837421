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

import "unsafe"

// Option provides an interface to do work on a Map while it is being
// created.
type Option[K comparable, V any] interface {
	apply(m *Map[K, V])
}

type hashOption[K comparable, V any] struct {
	hash func(key *K, seed uintptr) uintptr
}

func (op hashOption[K, V]) apply(m *Map[K, V]) {
	m.hash = *(*hashFn)(noescape(unsafe.Pointer(&op.hash)))
}

// WithHash is an option to specify the hash function to use for a Map[K,V].
// The supplied function must be consistent with the equality function (equal
// keys must hash to the same value).
func WithHash[K comparable, V any](hash func(key *K, seed uintptr) uintptr) Option[K, V] {
	return hashOption[K, V]{hash}
}

type keyEqualOption[K comparable, V any] struct {
	eq func(a, b K) bool
}

func (op keyEqualOption[K, V]) apply(m *Map[K, V]) {
	m.eq = op.eq
}

// WithKeyEqual is an option to specify the key equality function to use for
// a Map[K,V]. Typically used together with WithHash when keys should compare
// equal under a relation coarser than ==.
func WithKeyEqual[K comparable, V any](eq func(a, b K) bool) Option[K, V] {
	return keyEqualOption[K, V]{eq}
}

type maxLoadFactorOption[K comparable, V any] struct {
	maxLoadFactor float64
}

func (op maxLoadFactorOption[K, V]) apply(m *Map[K, V]) {
	m.SetMaxLoadFactor(op.maxLoadFactor)
}

// WithMaxLoadFactor is an option to specify the fraction of the index table
// that may be occupied before the table grows. Values are clamped to
// [0.1, 0.95]. The default is 0.9.
func WithMaxLoadFactor[K comparable, V any](f float64) Option[K, V] {
	return maxLoadFactorOption[K, V]{f}
}
