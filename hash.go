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

package chainmap

import (
	"hash/maphash"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// hashFn maps a key to a 64-bit hash. It must return the same value for the
// same key on every call.
type hashFn[K comparable] func(key K) uint64

// comparableSeed seeds maphash.Comparable for keys that have no fast path. It
// is fixed for the life of the process so that two maps with the same
// capacity and contents lay out their buckets identically.
var comparableSeed = maphash.MakeSeed()

// defaultHasher returns the hash function used when WithHash is not
// specified. Integer keys hash to their own value, strings are hashed with
// xxhash and every other key type uses maphash.Comparable.
func defaultHasher[K comparable]() hashFn[K] {
	switch any(*new(K)).(type) {
	case int:
		return func(key K) uint64 { return uint64(any(key).(int)) }
	case int8:
		return func(key K) uint64 { return uint64(any(key).(int8)) }
	case int16:
		return func(key K) uint64 { return uint64(any(key).(int16)) }
	case int32:
		return func(key K) uint64 { return uint64(any(key).(int32)) }
	case int64:
		return func(key K) uint64 { return uint64(any(key).(int64)) }
	case uint:
		return func(key K) uint64 { return uint64(any(key).(uint)) }
	case uint8:
		return func(key K) uint64 { return uint64(any(key).(uint8)) }
	case uint16:
		return func(key K) uint64 { return uint64(any(key).(uint16)) }
	case uint32:
		return func(key K) uint64 { return uint64(any(key).(uint32)) }
	case uint64:
		return func(key K) uint64 { return any(key).(uint64) }
	case uintptr:
		return func(key K) uint64 { return uint64(any(key).(uintptr)) }
	case string:
		return func(key K) uint64 { return xxhash.Sum64String(any(key).(string)) }
	default:
		return func(key K) uint64 { return maphash.Comparable(comparableSeed, key) }
	}
}

// bucketIndex reduces hash h to an index in a bucket array of the given
// capacity. The capacity must be a power of two.
func bucketIndex(h uint64, capacity uintptr) uintptr {
	return uintptr(h) & (capacity - 1)
}

// normalizeCapacity returns the smallest power of two that is >= n, with a
// minimum of 1.
func normalizeCapacity(n int) uintptr {
	if n <= 1 {
		return 1
	}
	return uintptr(1) << bits.Len(uint(n-1))
}
