// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sync2 contains typed wrappers over sync primitives.
package sync2

import "sync"

// Pool is a strongly typed [sync.Pool].
type Pool[T any] struct {
	New   func() *T // Constructs a fresh value; new(T) if nil.
	Reset func(*T)  // Clears a value before it goes back into the pool.

	impl sync.Pool
}

// Get returns a pooled value and a function that returns it to the pool.
//
//	v, put := pool.Get()
//	defer put()
func (p *Pool[T]) Get() (v *T, put func()) {
	v, _ = p.impl.Get().(*T)
	if v == nil {
		if p.New != nil {
			v = p.New()
		} else {
			v = new(T)
		}
	}

	return v, func() {
		if p.Reset != nil {
			p.Reset(v)
		}
		p.impl.Put(v)
	}
}
