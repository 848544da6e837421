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

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned by At and friends when the key is absent.
	ErrNotFound = errors.New("ordered: key not found")

	// ErrCapacity is returned by inserts once the map holds the maximum
	// number of entries the index encoding can address.
	ErrCapacity = errors.New("ordered: map is at maximum size")

	// ErrLength is returned when a requested or required index-table size
	// exceeds the maximum bucket count.
	ErrLength = errors.New("ordered: bucket count exceeds maximum")
)
