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
	"bytes"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/vm"
)

// Marshaller converts messages of a single type to and from JSON.
//
// A Marshaller is stateless and safe for concurrent use.
type Marshaller struct {
	cache *Cache
	ty    *plan.Type
}

// Descriptor returns the descriptor of the messages this marshaller handles.
func (m *Marshaller) Descriptor() protoreflect.MessageDescriptor {
	return m.ty.Descriptor
}

// Marshal converts msg to JSON.
func (m *Marshaller) Marshal(msg proto.Message, opts ...Option) ([]byte, error) {
	e, put, err := m.encode(nil, msg, opts)
	if err != nil {
		return nil, err
	}
	defer put()
	return bytes.Clone(e.Buffer()), nil
}

// MarshalAppend is like [Marshaller.Marshal], but appends to b. On failure,
// b is returned unchanged.
func (m *Marshaller) MarshalAppend(b []byte, msg proto.Message, opts ...Option) ([]byte, error) {
	if b == nil {
		b = []byte{}
	}
	e, put, err := m.encode(b, msg, opts)
	if err != nil {
		return b, err
	}
	defer put()
	return e.Buffer(), nil
}

// MarshalTo is like [Marshaller.Marshal], but writes the output to w. Nothing
// is written if msg cannot be converted.
func (m *Marshaller) MarshalTo(w io.Writer, msg proto.Message, opts ...Option) error {
	e, put, err := m.encode(nil, msg, opts)
	if err != nil {
		return err
	}
	defer put()
	_, err = w.Write(e.Buffer())
	return err
}

func (m *Marshaller) encode(b []byte, msg proto.Message, opts []Option) (*vm.Encoder, func(), error) {
	pm := msg.ProtoReflect()
	ty, err := m.planFor(pm)
	if err != nil {
		return nil, nil, err
	}

	e, put := vm.GetEncoder(b, m.cache.options(opts))
	if err := ty.Encode(e, pm); err != nil {
		put()
		return nil, nil, err
	}
	if err := e.Err(); err != nil {
		put()
		return nil, nil, fmt.Errorf("hyperjson: %w", err)
	}
	return e, put, nil
}

// Unmarshal replaces the contents of msg with the JSON value in data.
//
// On failure, msg is left empty.
func (m *Marshaller) Unmarshal(data []byte, msg proto.Message, opts ...Option) error {
	pm := msg.ProtoReflect()
	ty, err := m.planFor(pm)
	if err != nil {
		return err
	}
	proto.Reset(msg)

	d := vm.NewDecoder(jsonwire.NewBytes(data), m.cache.options(opts))
	err = ty.Decode(d, pm)
	if err == nil {
		var tok jsonwire.Token
		tok, err = d.Next()
		if err == nil && tok.Kind != jsonwire.EOF {
			err = &SyntaxError{Err: errTrailingData}
		}
	}
	if err != nil {
		proto.Reset(msg)
		return err
	}
	return nil
}

// UnmarshalFrom is like [Marshaller.Unmarshal], but reads all of r first.
func (m *Marshaller) UnmarshalFrom(r io.Reader, msg proto.Message, opts ...Option) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return m.Unmarshal(data, msg, opts...)
}

// planFor returns the plan to run on msg, which must be of this
// marshaller's type.
//
// A message may carry a different descriptor for the same type, such as a
// dynamic message built from a copy of the schema. Field descriptors are
// not interchangeable between the two, so such a message gets its own plan.
func (m *Marshaller) planFor(msg protoreflect.Message) (*plan.Type, error) {
	got := msg.Descriptor()
	if got == m.ty.Descriptor {
		return m.ty, nil
	}
	if got.FullName() != m.ty.Descriptor.FullName() {
		return nil, fmt.Errorf("hyperjson: marshaller for %s used with %s", m.ty.Descriptor.FullName(), got.FullName())
	}
	other, err := m.cache.For(got)
	if err != nil {
		return nil, err
	}
	return other.ty, nil
}
