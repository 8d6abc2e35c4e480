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

var (
	// ErrInvalidArgument is returned by FromSlices when the key and value
	// slices have different lengths.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrKeyNotFound is returned by operations that require the key to be
	// present in the map (At, AtPtr, BucketSize and BucketIndex).
	ErrKeyNotFound = errors.New("key not found")
)

func keyNotFound[K comparable](key K) error {
	return errors.Wrapf(ErrKeyNotFound, "key %v", key)
}
