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

package hyperjson

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/compiler"
	"buf.build/go/hyperjson/internal/plan/thunks"
	"buf.build/go/hyperjson/internal/plan/vm"
	"buf.build/go/hyperjson/internal/xsync"
)

// Cache plans message types on first use and keeps the plans for its
// lifetime.
//
// A Cache is safe for concurrent use. Concurrent requests for the same
// descriptor plan it once; a descriptor that fails to plan is not cached, so
// a later request tries again.
type Cache struct {
	lib         plan.Library
	preload     bool
	defaults    vm.Options
	marshallers xsync.Map[protoreflect.MessageDescriptor, *Marshaller]
}

// NewCache returns an empty cache.
func NewCache(options ...CompileOption) *Cache {
	opts := compileOptions{
		Options: compiler.Options{Backend: backend{}},
		preload: true,
	}
	for _, opt := range options {
		if opt.apply != nil {
			opt.apply(&opts)
		}
	}

	c := &Cache{
		preload:  opts.preload,
		defaults: vm.DefaultOptions(),
	}
	for _, opt := range opts.defaults {
		if opt.apply != nil {
			opt.apply(&c.defaults)
		}
	}

	compile := opts.Options
	c.lib.Build = func(lib *plan.Library, md protoreflect.MessageDescriptor) (*plan.Type, error) {
		return compiler.Compile(lib, md, compile)
	}
	return c
}

// For returns the marshaller for messages with descriptor md, planning md if
// this is the first request for it.
func (c *Cache) For(md protoreflect.MessageDescriptor) (*Marshaller, error) {
	if m, ok := c.marshallers.Load(md); ok {
		return m, nil
	}

	var (
		ty  *plan.Type
		err error
	)
	if c.preload {
		ty, err = compiler.Preload(&c.lib, md)
	} else {
		ty, err = c.lib.Load(md)
	}
	if err != nil {
		return nil, err
	}

	m, _ := c.marshallers.LoadOrStore(md, func() *Marshaller {
		return &Marshaller{cache: c, ty: ty}
	})
	return m, nil
}

// Marshal is shorthand for looking up the marshaller for m and calling
// [Marshaller.Marshal].
func (c *Cache) Marshal(m proto.Message, opts ...Option) ([]byte, error) {
	ms, err := c.For(m.ProtoReflect().Descriptor())
	if err != nil {
		return nil, err
	}
	return ms.Marshal(m, opts...)
}

// Unmarshal is shorthand for looking up the marshaller for m and calling
// [Marshaller.Unmarshal].
func (c *Cache) Unmarshal(data []byte, m proto.Message, opts ...Option) error {
	ms, err := c.For(m.ProtoReflect().Descriptor())
	if err != nil {
		return err
	}
	return ms.Unmarshal(data, m, opts...)
}

// options resolves the options for a single call.
func (c *Cache) options(opts []Option) vm.Options {
	o := c.defaults
	for _, opt := range opts {
		if opt.apply != nil {
			opt.apply(&o)
		}
	}
	return o
}

// backend implements the compiler backend interface.
type backend struct{}

func (backend) SelectArchetype(fd protoreflect.FieldDescriptor) *compiler.Archetype {
	return thunks.SelectArchetype(fd)
}

func (backend) SelectCodec(r *plan.Rule) *plan.Codec {
	return thunks.SelectCodec(r)
}

func (backend) SelectKeyCodec(kind protoreflect.Kind) *plan.KeyCodec {
	return thunks.SelectKeyCodec(kind)
}
