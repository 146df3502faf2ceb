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
package plan

import (
	"sync"
	"sync/atomic"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/debug"
	"buf.build/go/hyperjson/internal/xsync"
)

// Library is a concurrent cache of planned types.
//
// Each descriptor is planned at most once at a time, no matter how many
// goroutines ask for it concurrently. Successful plans are kept forever;
// failed plans are forgotten, so that the next request tries again.
type Library struct {
	// Build plans a single type. It must not call [Library.Load] for md
	// itself; nested types are referenced through [Link]s instead.
	Build func(lib *Library, md protoreflect.MessageDescriptor) (*Type, error)

	types xsync.Map[protoreflect.MessageDescriptor, *entry]
}

type entry struct {
	once sync.Once
	ty   atomic.Pointer[Type]
	err  error
}

// Load returns the plan for md, building it if necessary.
func (l *Library) Load(md protoreflect.MessageDescriptor) (*Type, error) {
	e, _ := l.types.LoadOrStore(md, func() *entry { return new(entry) })
	if ty := e.ty.Load(); ty != nil {
		return ty, nil
	}

	e.once.Do(func() {
		debug.Log(nil, "build", "%s", md.FullName())
		ty, err := l.Build(l, md)
		if err != nil {
			debug.Log(nil, "build failed", "%s: %v", md.FullName(), err)
			e.err = err
			l.types.CompareAndDelete(md, e)
			return
		}
		e.ty.Store(ty)
	})

	if ty := e.ty.Load(); ty != nil {
		return ty, nil
	}
	return nil, e.err
}

// Cached returns the plan for md if it has already been built.
func (l *Library) Cached(md protoreflect.MessageDescriptor) *Type {
	e, ok := l.types.Load(md)
	if !ok {
		return nil
	}
	return e.ty.Load()
}

// Len returns the number of types that have been planned successfully.
func (l *Library) Len() int {
	var n int
	for _, e := range l.types.All() {
		if e.ty.Load() != nil {
			n++
		}
	}
	return n
}
