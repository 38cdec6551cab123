// Copyright 2024 The Weft Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package slicepool provides a pool of fixed-length byte slices for packet
// paths that would otherwise allocate a fresh buffer per packet.
package slicepool

import "sync"

// Pool hands out byte slices of one fixed length. The zero Pool is not
// usable; create one with [MakePool].
type Pool struct {
	pool *sync.Pool
}

// MakePool creates a Pool of slices with the given length.
func MakePool(sliceLen int) Pool {
	return Pool{
		pool: &sync.Pool{
			New: func() any {
				slice := make([]byte, sliceLen)
				return &slice
			},
		},
	}
}

// LazySlice returns an unleased slice handle. The backing buffer is only
// taken from the pool when [LazySlice.Acquire] is called, so it costs
// nothing on code paths that return early.
func (p *Pool) LazySlice() LazySlice {
	return LazySlice{pool: p}
}

// LazySlice is a handle to a pooled slice. Acquire leases the buffer and
// Release returns it; Release without a prior Acquire is a no-op, so a
// deferred Release right after LazySlice is safe.
type LazySlice struct {
	slice *[]byte
	pool  *Pool
}

// Acquire leases a slice from the pool. The caller must not use the slice
// after Release.
func (b *LazySlice) Acquire() []byte {
	b.slice = b.pool.pool.Get().(*[]byte)
	return *b.slice
}

// Release returns the slice to the pool if it was acquired.
func (b *LazySlice) Release() {
	if b.slice != nil {
		b.pool.pool.Put(b.slice)
		b.slice = nil
	}
}
