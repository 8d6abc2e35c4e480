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

// Package chainmap is a Go implementation of a hash map which resolves
// collisions with separate chaining.
//
// # Chaining
//
// A Map is an array of buckets. Each bucket holds a chain: a slice of
// key/value pairs whose keys reduce to that bucket's index. The index of a
// key is hash(key) & (capacity-1), which requires the number of buckets
// (the capacity) to always be a power of two. Lookups and deletions scan the
// key's chain comparing keys with ==. Hash collisions are expected and are
// resolved by that scan; only the equality of keys decides whether two keys
// are the same.
//
// # Resizing
//
// The map keeps its load factor (len/capacity) between two thresholds:
//
//	upperLimit = floor(capacity * 0.75)
//	lowerLimit = round(capacity * 0.25)
//
// Before a new pair is placed, if len+1 would exceed upperLimit the capacity
// is doubled. After a pair is removed, if len has fallen below lowerLimit
// the capacity is halved (but never below the configured minimum, 1 by
// default). Either way every pair is rehashed into a newly allocated bucket
// array, which costs O(len). Because the capacity doubles each time, growth
// is amortized O(1) per insertion. Shrinking cannot thrash: after a shrink
// the map is less than half full, so roughly capacity/4 insertions are
// needed before it grows again, and after a grow roughly capacity/4
// deletions are needed before it shrinks.
//
// # Iteration
//
// Map.Iter returns an Iterator over a private copy of the map taken when the
// iterator was created. Buckets are visited in index order and each chain in
// insertion order. Later mutations of the map are never observed by the
// iterator. Map.All provides range-over-func iteration over the live map.
//
// # Equality
//
// Equal and EqualFunc compare maps bucket by bucket. Two maps holding the
// same pairs but with different capacities (for instance because one of
// them grew and never shrank back) are not equal.
package chainmap

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultCapacity = 16
	resizeFactor    = 2
)

// Map is an unordered map from keys to values using separate chaining. By
// default integer keys hash to their own value, string keys are hashed with
// xxhash and all other keys with hash/maphash. A different hash function can
// be specified using the WithHash option.
//
// A Map is NOT goroutine-safe.
type Map[K comparable, V any] struct {
	hash hashFn[K]
	// The allocator to use for bucket arrays.
	allocator Allocator[K, V]
	logger    *zap.Logger
	buckets   buckets[K, V]
	// The number of buckets (always 2^N). The capacity is used as a mask to
	// quickly compute h%N using a bitwise & operation.
	capacity uintptr
	// The capacity below which the map does not shrink.
	minCapacity uintptr
	// The number of pairs in the map.
	used int
	// The map grows when an insertion would make used exceed upperLimit and
	// shrinks when a deletion makes used fall below lowerLimit. Both are
	// derived from capacity by setLimits.
	upperLimit int
	lowerLimit int
}

// New constructs a new Map with 16 buckets, or the capacity specified by
// WithInitialCapacity. The zero value for a Map is not usable; use New or
// Init.
func New[K comparable, V any](options ...option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(options...)
	return m
}

// FromSlices constructs a new Map containing keys[i] mapped to values[i] for
// every i. If a key appears more than once the last value wins. An error
// wrapping ErrInvalidArgument is returned if the slices have different
// lengths.
func FromSlices[K comparable, V any](
	keys []K, values []V, options ...option[K, V],
) (*Map[K, V], error) {
	if len(keys) != len(values) {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"%d keys and %d values", len(keys), len(values))
	}
	m := New(options...)
	for i := range keys {
		m.Put(keys[i], values[i])
	}
	return m, nil
}

// Init initializes a Map, discarding any pairs it contains. It can be used to
// reuse a Map value, or to initialize a Map which was not created by New.
func (m *Map[K, V]) Init(options ...option[K, V]) {
	if m.buckets != nil && m.allocator != nil {
		m.buckets.release(m.allocator)
	}

	*m = Map[K, V]{
		hash:        defaultHasher[K](),
		allocator:   defaultAllocator[K, V]{},
		logger:      zap.NewNop(),
		capacity:    defaultCapacity,
		minCapacity: 1,
	}

	for _, op := range options {
		op.apply(m)
	}

	if m.capacity < m.minCapacity {
		m.capacity = m.minCapacity
	}
	m.buckets = makeBuckets(m.allocator, m.capacity)
	m.setLimits()
	m.checkInvariants()
}

// Close closes the map, releasing the bucket array back to its configured
// allocator. It is unnecessary to close a map using the default allocator. It
// is invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[K, V]) Close() {
	if m.allocator != nil {
		m.buckets.release(m.allocator)
	}
	m.buckets = nil
	m.capacity = 0
	m.used = 0
	m.allocator = nil
}

// Insert adds an entry for key if the key is not already present and returns
// true. If the key is present the map is left unchanged and false is
// returned.
func (m *Map[K, V]) Insert(key K, value V) bool {
	if m.bucket(key).find(key) != nil {
		return false
	}
	m.insertNew(key, value)
	m.checkInvariants()
	return true
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists.
func (m *Map[K, V]) Put(key K, value V) {
	if !m.bucket(key).override(key, value) {
		m.insertNew(key, value)
	}
	m.checkInvariants()
}

// Get retrieves the value from the map for the specified key, returning
// ok=false if the key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if p := m.bucket(key).find(key); p != nil {
		return p.value, true
	}
	return value, false
}

// GetOrZero returns the value for key, or the zero value of V if the key is
// not present. The map is never modified. Use Get to distinguish a missing
// key from a stored zero value.
func (m *Map[K, V]) GetOrZero(key K) V {
	v, _ := m.Get(key)
	return v
}

// GetOrInsert returns a pointer to the value for key, first inserting the
// zero value of V if the key is not present. The pointer is valid until the
// next mutation of the map.
func (m *Map[K, V]) GetOrInsert(key K) *V {
	if p := m.bucket(key).find(key); p != nil {
		return &p.value
	}
	var zero V
	p := m.insertNew(key, zero)
	m.checkInvariants()
	return &p.value
}

// At returns the value for key. An error wrapping ErrKeyNotFound is returned
// if the key is not present.
func (m *Map[K, V]) At(key K) (V, error) {
	p := m.bucket(key).find(key)
	if p == nil {
		var zero V
		return zero, keyNotFound(key)
	}
	return p.value, nil
}

// AtPtr returns a pointer to the value for key which can be used to modify
// the value in place. The pointer is valid until the next mutation of the
// map. An error wrapping ErrKeyNotFound is returned if the key is not
// present.
func (m *Map[K, V]) AtPtr(key K) (*V, error) {
	p := m.bucket(key).find(key)
	if p == nil {
		return nil, keyNotFound(key)
	}
	return &p.value, nil
}

// Contains returns true if the map contains key.
func (m *Map[K, V]) Contains(key K) bool {
	return m.bucket(key).find(key) != nil
}

// Delete deletes the entry corresponding to the specified key from the map,
// returning true if the key was present. It is a noop to delete a
// non-existent key.
func (m *Map[K, V]) Delete(key K) bool {
	if !m.bucket(key).remove(key) {
		return false
	}
	m.used--
	if m.used < m.lowerLimit && m.capacity > m.minCapacity {
		m.resize(m.capacity/resizeFactor, "shrink")
	}
	m.checkInvariants()
	return true
}

// BucketIndex returns the index of the bucket holding key. An error wrapping
// ErrKeyNotFound is returned if the key is not present.
func (m *Map[K, V]) BucketIndex(key K) (int, error) {
	i := bucketIndex(m.hash(key), m.capacity)
	if m.buckets[i].find(key) == nil {
		return 0, keyNotFound(key)
	}
	return int(i), nil
}

// BucketSize returns the number of pairs in the bucket holding key,
// including key itself. An error wrapping ErrKeyNotFound is returned if the
// key is not present.
func (m *Map[K, V]) BucketSize(key K) (int, error) {
	i := bucketIndex(m.hash(key), m.capacity)
	if m.buckets[i].find(key) == nil {
		return 0, keyNotFound(key)
	}
	return m.buckets.chainLen(i), nil
}

// Clear deletes all entries from the map. The capacity is unchanged.
func (m *Map[K, V]) Clear() {
	for i := range m.buckets {
		m.buckets[i].clear()
	}
	m.used = 0
	m.checkInvariants()
}

// Clone returns a deep copy of the map with the same capacity and options.
// Mutations of the clone never affect m and vice versa.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := *m
	c.buckets = m.buckets.clone(m.allocator)
	return &c
}

// All calls yield sequentially for each key and value present in the map. If
// yield returns false, iteration stops. Buckets are visited in index order
// and each chain in insertion order. A resize of the map during iteration
// does not disturb the walk, but other mutations may or may not be visible
// and deleting from the chain being walked is not permitted. Use Iter for a
// stable snapshot.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	// Snapshot the bucket array so that iteration remains valid if the map
	// is resized during iteration.
	bs := m.buckets
	for i := range bs {
		pairs := bs[i].pairs
		for j := range pairs {
			if !yield(pairs[j].key, pairs[j].value) {
				return
			}
		}
	}
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.used
}

// Empty returns true if the map contains no entries.
func (m *Map[K, V]) Empty() bool {
	return m.used == 0
}

// Capacity returns the number of buckets in the map.
func (m *Map[K, V]) Capacity() int {
	return int(m.capacity)
}

// LoadFactor returns the ratio of entries to buckets.
func (m *Map[K, V]) LoadFactor() float64 {
	return float64(m.used) / float64(m.capacity)
}

// bucket returns the bucket key reduces to.
func (m *Map[K, V]) bucket(key K) *Bucket[K, V] {
	return &m.buckets[bucketIndex(m.hash(key), m.capacity)]
}

// insertNew inserts an entry known not to be in the map, growing the map
// first if the entry would push it over its upper limit.
func (m *Map[K, V]) insertNew(key K, value V) *Pair[K, V] {
	if m.used+1 > m.upperLimit {
		m.resize(m.capacity*resizeFactor, "grow")
	}
	p := m.bucket(key).insertNew(key, value)
	m.used++
	return p
}

// setLimits recomputes the resize thresholds for the current capacity:
// upperLimit = floor(capacity*0.75), lowerLimit = round(capacity*0.25).
func (m *Map[K, V]) setLimits() {
	m.upperLimit = int(m.capacity * 3 / 4)
	m.lowerLimit = int((m.capacity + 2) / 4)
}

// resize allocates a bucket array of newCapacity buckets, appends every pair
// to the chain it reduces to under the new capacity and releases the old
// array. The map is not modified until the new array is fully populated.
func (m *Map[K, V]) resize(newCapacity uintptr, op string) {
	newBuckets := makeBuckets(m.allocator, newCapacity)
	for i := range m.buckets {
		pairs := m.buckets[i].pairs
		for j := range pairs {
			p := &pairs[j]
			newBuckets[bucketIndex(m.hash(p.key), newCapacity)].insertNew(p.key, p.value)
		}
	}

	oldBuckets, oldCapacity := m.buckets, m.capacity
	m.buckets = newBuckets
	m.capacity = newCapacity
	m.setLimits()
	oldBuckets.release(m.allocator)

	if ce := m.logger.Check(zapcore.DebugLevel, "chainmap resized"); ce != nil {
		ce.Write(
			zap.String("op", op),
			zap.Uint64("old-capacity", uint64(oldCapacity)),
			zap.Uint64("new-capacity", uint64(newCapacity)),
			zap.Int("len", m.used),
		)
	}
}

func (m *Map[K, V]) checkInvariants() {
	if invariants {
		if m.capacity == 0 || m.capacity&(m.capacity-1) != 0 {
			panic(errors.AssertionFailedf("invariant failed: capacity %d is not a power of two\n%s",
				m.capacity, m.String()))
		}
		if uintptr(len(m.buckets)) != m.capacity {
			panic(errors.AssertionFailedf("invariant failed: %d buckets, but capacity is %d\n%s",
				len(m.buckets), m.capacity, m.String()))
		}
		if m.upperLimit != int(m.capacity*3/4) || m.lowerLimit != int((m.capacity+2)/4) {
			panic(errors.AssertionFailedf("invariant failed: limits %d/%d do not match capacity %d",
				m.lowerLimit, m.upperLimit, m.capacity))
		}
		if m.used > m.upperLimit {
			panic(errors.AssertionFailedf("invariant failed: len %d exceeds upper limit %d\n%s",
				m.used, m.upperLimit, m.String()))
		}

		// Every pair must live in the bucket its key reduces to and keys must
		// be unique. Count the pairs.
		seen := make(map[K]struct{}, m.used)
		var used int
		for i := range m.buckets {
			for _, p := range m.buckets[i].pairs {
				if j := bucketIndex(m.hash(p.key), m.capacity); j != uintptr(i) {
					panic(errors.AssertionFailedf("invariant failed: %v found in bucket %d, expected %d\n%s",
						p.key, i, j, m.String()))
				}
				if _, ok := seen[p.key]; ok {
					panic(errors.AssertionFailedf("invariant failed: duplicate key %v\n%s", p.key, m.String()))
				}
				seen[p.key] = struct{}{}
				used++
			}
		}
		if used != m.used {
			panic(errors.AssertionFailedf("invariant failed: found %d pairs, but len is %d\n%s",
				used, m.used, m.String()))
		}
	}
}

// String returns a description of the map's buckets, useful for debugging.
func (m *Map[K, V]) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  len=%d  lower-limit=%d  upper-limit=%d\n",
		m.capacity, m.used, m.lowerLimit, m.upperLimit)
	for i := range m.buckets {
		pairs := m.buckets[i].pairs
		if len(pairs) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "  %4d:", i)
		for _, p := range pairs {
			fmt.Fprintf(&buf, " %v=%v", p.key, p.value)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
