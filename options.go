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

import "go.uber.org/zap"

// option provide an interface to do work on Map while it is being created.
type option[K comparable, V any] interface {
	apply(m *Map[K, V])
}

type hashOption[K comparable, V any] struct {
	hash func(key K) uint64
}

func (op hashOption[K, V]) apply(m *Map[K, V]) {
	m.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map[K,V].
// The function must be deterministic: the same key must always produce the
// same hash.
func WithHash[K comparable, V any](hash func(key K) uint64) option[K, V] {
	return hashOption[K, V]{hash}
}

// Allocator specifies an interface for allocating and releasing the bucket
// arrays used by a Map. The default allocator utilizes Go's builtin make()
// and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that bucket
// arrays be freed then Map.Close must be called in order to ensure Free is
// called for the final bucket array. Alloc may panic if memory cannot be
// obtained; the Map is left unmodified in that case.
type Allocator[K comparable, V any] interface {
	// Alloc should return a slice equivalent to make([]Bucket[K,V], n).
	Alloc(n int) []Bucket[K, V]

	// Free can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by Alloc.
	Free(v []Bucket[K, V])
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) Alloc(n int) []Bucket[K, V] {
	return make([]Bucket[K, V], n)
}

func (defaultAllocator[K, V]) Free(v []Bucket[K, V]) {
}

type allocatorOption[K comparable, V any] struct {
	allocator Allocator[K, V]
}

func (op allocatorOption[K, V]) apply(m *Map[K, V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Map[K,V].
func WithAllocator[K comparable, V any](allocator Allocator[K, V]) option[K, V] {
	return allocatorOption[K, V]{allocator}
}

type loggerOption[K comparable, V any] struct {
	logger *zap.Logger
}

func (op loggerOption[K, V]) apply(m *Map[K, V]) {
	if op.logger == nil {
		m.logger = zap.NewNop()
		return
	}
	m.logger = op.logger
}

// WithLogger is an option to specify a logger which receives a debug entry
// every time the map is resized. By default, or if logger is nil, nothing
// is logged.
func WithLogger[K comparable, V any](logger *zap.Logger) option[K, V] {
	return loggerOption[K, V]{logger}
}

type initialCapacityOption[K comparable, V any] struct {
	capacity int
}

func (op initialCapacityOption[K, V]) apply(m *Map[K, V]) {
	m.capacity = normalizeCapacity(op.capacity)
}

// WithInitialCapacity is an option to specify the number of buckets a map
// starts out with. The value is rounded up to a power of two. The default is
// 16.
func WithInitialCapacity[K comparable, V any](capacity int) option[K, V] {
	return initialCapacityOption[K, V]{capacity}
}

type minCapacityOption[K comparable, V any] struct {
	capacity int
}

func (op minCapacityOption[K, V]) apply(m *Map[K, V]) {
	m.minCapacity = normalizeCapacity(op.capacity)
}

// WithMinCapacity is an option to specify the number of buckets below which
// the map never shrinks. The value is rounded up to a power of two. The
// default is 1, which allows a map emptied by Delete to shrink all the way
// down to a single bucket.
func WithMinCapacity[K comparable, V any](capacity int) option[K, V] {
	return minCapacityOption[K, V]{capacity}
}
