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
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/debug"
	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan/vm"
)

// Encode writes m as a JSON value.
//
// Well-known types track nesting depth themselves, where it applies.
func (t *Type) Encode(e *vm.Encoder, m protoreflect.Message) error {
	if t.Special != nil {
		return t.Special.Encode(e, protoreflect.ValueOfMessage(m), t.Special)
	}

	if err := e.Push(); err != nil {
		return err
	}
	defer e.Pop()

	e.BeginObject()
	if err := t.EncodeFields(e, m); err != nil {
		return err
	}
	e.EndObject()
	return nil
}

// EncodeFields writes the members of m's object, without the braces.
func (t *Type) EncodeFields(e *vm.Encoder, m protoreflect.Message) error {
	for i := range t.Fields {
		f := &t.Fields[i]
		if err := f.Encode(e, m, f); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a JSON value into m, which must be empty.
func (t *Type) Decode(d *vm.Decoder, m protoreflect.Message) error {
	if t.Special != nil {
		_, err := t.Special.Decode(d, protoreflect.ValueOfMessage(m), t.Special)
		return err
	}

	if err := d.Push(); err != nil {
		return err
	}
	defer d.Pop()

	if _, err := d.Expect(t.Descriptor.FullName(), jsonwire.ObjectStart); err != nil {
		return err
	}
	return t.DecodeFields(d, m)
}

// DecodeFields reads the members of an object whose opening brace has
// already been consumed, up to and including the closing brace.
func (t *Type) DecodeFields(d *vm.Decoder, m protoreflect.Message) error {
	var (
		seenBuf  [1]uint64
		oneofBuf [4]int
	)
	seen := seenBuf[:]
	if n := (len(t.Fields) + 63) / 64; n > len(seen) {
		seen = make([]uint64, n)
	}
	oneofs := oneofBuf[:0]
	if len(t.Oneofs) > len(oneofBuf) {
		oneofs = make([]int, 0, len(t.Oneofs))
	}
	for range t.Oneofs {
		oneofs = append(oneofs, -1)
	}

	for {
		tok, err := d.Next()
		if err != nil {
			return err
		}
		if tok.Kind == jsonwire.ObjectEnd {
			return nil
		}
		debug.Assert(tok.Kind == jsonwire.Name, "expected a key, got %v", tok.Kind)

		f := t.ByName(tok.Text)
		if f == nil {
			if !d.DiscardUnknown {
				return &vm.UnknownFieldError{Message: t.Descriptor.FullName(), Key: tok.Text}
			}
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}

		word, bit := f.Index/64, uint64(1)<<(f.Index%64)
		if seen[word]&bit != 0 {
			return &vm.DuplicateFieldError{Field: f.Descriptor.FullName()}
		}
		seen[word] |= bit

		populated, err := f.Decode(d, m, f)
		if err != nil {
			return err
		}
		if !populated || f.Oneof < 0 {
			continue
		}
		if prev := oneofs[f.Oneof]; prev >= 0 {
			return &vm.OneofConflictError{
				Oneof:  t.Oneofs[f.Oneof].Descriptor.FullName(),
				First:  t.Fields[prev].Descriptor.Name(),
				Second: f.Descriptor.Name(),
			}
		}
		oneofs[f.Oneof] = f.Index
	}
}
