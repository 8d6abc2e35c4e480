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

// Equal reports whether two maps contain the same key/value pairs laid out in
// the same buckets: both must have the same capacity and length, and every
// bucket of a must hold the same pairs as the corresponding bucket of b, in
// any order. Maps with identical contents but different capacities are not
// equal.
func Equal[K, V comparable](a, b *Map[K, V]) bool {
	return EqualFunc(a, b, func(x, y V) bool {
		return x == y
	})
}

// EqualFunc is like Equal, but compares values using eq. Keys are still
// compared with ==.
func EqualFunc[K comparable, V1, V2 any](a *Map[K, V1], b *Map[K, V2], eq func(V1, V2) bool) bool {
	if a.capacity != b.capacity || a.used != b.used {
		return false
	}
	for i := range a.buckets {
		if a.buckets[i].Len() != b.buckets[i].Len() {
			return false
		}
		for _, p := range a.buckets[i].pairs {
			q := b.buckets[i].find(p.key)
			if q == nil || !eq(p.value, q.value) {
				return false
			}
		}
	}
	return true
}
