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

import "github.com/cockroachdb/errors"

// Pair holds a key and value.
type Pair[K comparable, V any] struct {
	key   K
	value V
}

// Key returns the pair's key.
func (p Pair[K, V]) Key() K {
	return p.key
}

// Value returns the pair's value.
func (p Pair[K, V]) Value() V {
	return p.value
}

// Bucket is a chain of pairs whose keys reduce to the same bucket index. New
// pairs are appended, so a chain is ordered by insertion.
type Bucket[K comparable, V any] struct {
	pairs []Pair[K, V]
}

// find returns a pointer to the pair for key, or nil if the key is not in the
// chain.
func (b *Bucket[K, V]) find(key K) *Pair[K, V] {
	for i := range b.pairs {
		if b.pairs[i].key == key {
			return &b.pairs[i]
		}
	}
	return nil
}

// insertNew appends a pair known not to be in the chain.
func (b *Bucket[K, V]) insertNew(key K, value V) *Pair[K, V] {
	b.pairs = append(b.pairs, Pair[K, V]{key: key, value: value})
	return &b.pairs[len(b.pairs)-1]
}

// override replaces the value of the pair for key. It returns false, leaving
// the chain unmodified, if the key is not in the chain.
func (b *Bucket[K, V]) override(key K, value V) bool {
	if p := b.find(key); p != nil {
		p.value = value
		return true
	}
	return false
}

// remove deletes the pair for key, preserving the order of the remaining
// pairs. It returns false if the key was not in the chain.
func (b *Bucket[K, V]) remove(key K) bool {
	for i := range b.pairs {
		if b.pairs[i].key != key {
			continue
		}
		n := len(b.pairs) - 1
		copy(b.pairs[i:], b.pairs[i+1:])
		// Zero the vacated tail slot so the chain doesn't retain the key or
		// value.
		b.pairs[n] = Pair[K, V]{}
		b.pairs = b.pairs[:n]
		return true
	}
	return false
}

// clear removes every pair while keeping the chain's backing array.
func (b *Bucket[K, V]) clear() {
	clear(b.pairs)
	b.pairs = b.pairs[:0]
}

// Len returns the number of pairs in the chain.
func (b *Bucket[K, V]) Len() int {
	return len(b.pairs)
}

// buckets is the bucket array of a Map. It is the only place bucket arrays
// are allocated, copied and released.
type buckets[K comparable, V any] []Bucket[K, V]

func makeBuckets[K comparable, V any](a Allocator[K, V], capacity uintptr) buckets[K, V] {
	b := a.Alloc(int(capacity))
	if uintptr(len(b)) != capacity {
		panic(errors.AssertionFailedf("chainmap: allocator returned %d buckets, want %d",
			len(b), capacity))
	}
	return b
}

// chainLen returns the length of the chain at index i.
func (bs buckets[K, V]) chainLen(i uintptr) int {
	return len(bs[i].pairs)
}

// clone returns a deep copy of the bucket array. Chains and pairs are copied
// so that mutating the copy never affects bs.
func (bs buckets[K, V]) clone(a Allocator[K, V]) buckets[K, V] {
	c := makeBuckets(a, uintptr(len(bs)))
	for i := range bs {
		if len(bs[i].pairs) == 0 {
			continue
		}
		c[i].pairs = append([]Pair[K, V](nil), bs[i].pairs...)
	}
	return c
}

// release returns the bucket array to the allocator.
func (bs buckets[K, V]) release(a Allocator[K, V]) {
	if bs != nil {
		a.Free(bs)
	}
}
