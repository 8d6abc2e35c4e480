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

// Iterator is a forward-only cursor over the pairs of a Map. It walks its own
// copy of the map's buckets, taken by Map.Iter, so mutations of the map made
// after the iterator was created are never observed.
//
// A newly created iterator is positioned on the first pair. Typical use:
//
//	for it := m.Iter(); it.Valid(); it.Next() {
//	  fmt.Printf("%v: %v\n", it.Key(), it.Value())
//	}
type Iterator[K comparable, V any] struct {
	buckets buckets[K, V]
	// bucket is the index of the current bucket, len(buckets) once the
	// iterator is exhausted.
	bucket int
	// pos is the index of the current pair within buckets[bucket].
	pos int
}

// Iter returns an iterator positioned on the first pair of a snapshot of the
// map. Iteration visits buckets in index order and each chain in insertion
// order. Taking the snapshot costs O(Len()+Capacity()).
func (m *Map[K, V]) Iter() *Iterator[K, V] {
	if m.used == 0 {
		return m.End()
	}
	it := &Iterator[K, V]{
		buckets: m.buckets.clone(defaultAllocator[K, V]{}),
	}
	it.seek(0)
	return it
}

// End returns an exhausted iterator. It is Equal to every iterator which has
// advanced past its last pair.
func (m *Map[K, V]) End() *Iterator[K, V] {
	return &Iterator[K, V]{}
}

// seek positions the iterator on the first pair of the first non-empty bucket
// at or after index i.
func (it *Iterator[K, V]) seek(i int) {
	for i < len(it.buckets) && len(it.buckets[i].pairs) == 0 {
		i++
	}
	it.bucket = i
	it.pos = 0
}

// Valid returns true if the iterator is positioned on a pair.
func (it *Iterator[K, V]) Valid() bool {
	return it.bucket < len(it.buckets)
}

// Next advances the iterator to the next pair, moving on to the next
// non-empty bucket after the last pair of a chain. It returns false once the
// iterator has advanced past the last pair. Calling Next on an exhausted
// iterator is a noop.
func (it *Iterator[K, V]) Next() bool {
	if !it.Valid() {
		return false
	}
	it.pos++
	if it.pos >= len(it.buckets[it.bucket].pairs) {
		it.seek(it.bucket + 1)
	}
	return it.Valid()
}

// Pair returns a copy of the current pair. It must only be called when Valid
// returns true.
func (it *Iterator[K, V]) Pair() Pair[K, V] {
	return *it.current()
}

// Key returns the key of the current pair. It must only be called when Valid
// returns true.
func (it *Iterator[K, V]) Key() K {
	return it.current().key
}

// Value returns the value of the current pair. It must only be called when
// Valid returns true.
func (it *Iterator[K, V]) Value() V {
	return it.current().value
}

// Clone returns a copy of the iterator at the same position. The copy shares
// the snapshot with it and the two can be advanced independently.
func (it *Iterator[K, V]) Clone() *Iterator[K, V] {
	c := *it
	return &c
}

// Equal returns true if both iterators are positioned on the same pair of the
// same snapshot, or if both are exhausted. Iterators created by separate
// calls to Map.Iter never share a snapshot and are only equal once both are
// exhausted.
func (it *Iterator[K, V]) Equal(other *Iterator[K, V]) bool {
	if !it.Valid() || !other.Valid() {
		return it.Valid() == other.Valid()
	}
	return &it.buckets[0] == &other.buckets[0] &&
		it.bucket == other.bucket && it.pos == other.pos
}

func (it *Iterator[K, V]) current() *Pair[K, V] {
	return &it.buckets[it.bucket].pairs[it.pos]
}
