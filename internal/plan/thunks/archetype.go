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

// Package thunks contains the field archetypes and value codecs that the
// compiler selects from when planning a type.
package thunks

import (
	"slices"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/compiler"
	"buf.build/go/hyperjson/internal/plan/vm"
)

var (
	singular = compiler.Archetype{Name: "singular", Encode: encodeSingular, Decode: decodeSingular}
	optional = compiler.Archetype{Name: "optional", Encode: encodeOptional, Decode: decodeSingular}
	oneof    = compiler.Archetype{Name: "oneof", Encode: encodeOptional, Decode: decodeSingular}
	repeated = compiler.Archetype{Name: "repeated", Encode: encodeRepeated, Decode: decodeRepeated}
	mapField = compiler.Archetype{Name: "map", Encode: encodeMap, Decode: decodeMap}
)

// SelectArchetype classifies a field by cardinality and presence.
func SelectArchetype(fd protoreflect.FieldDescriptor) *compiler.Archetype {
	switch {
	case fd.IsExtension():
		return nil
	case fd.IsMap():
		return &mapField
	case fd.IsList():
		return &repeated
	case fd.ContainingOneof() != nil && !fd.ContainingOneof().IsSynthetic():
		return &oneof
	case fd.HasPresence():
		return &optional
	default:
		return &singular
	}
}

// encodeSingular writes a field without presence. It is omitted at its
// default value unless the options ask for it.
func encodeSingular(e *vm.Encoder, m protoreflect.Message, f *plan.Field) error {
	fd := f.Descriptor
	if !m.Has(fd) && !e.ShouldEmit(fd) {
		return nil
	}
	e.Key(f.JSONKey, f.ProtoKey)
	return f.Rule.Encode(e, m.Get(fd), &f.Rule)
}

// encodeOptional writes a field with presence, which appears iff it is set.
// This includes oneof members, since at most one of them is set.
func encodeOptional(e *vm.Encoder, m protoreflect.Message, f *plan.Field) error {
	fd := f.Descriptor
	if !m.Has(fd) {
		return nil
	}
	e.Key(f.JSONKey, f.ProtoKey)
	return f.Rule.Encode(e, m.Get(fd), &f.Rule)
}

func decodeSingular(d *vm.Decoder, m protoreflect.Message, f *plan.Field) (bool, error) {
	r := &f.Rule
	if skip, err := skipNull(d, r, r.Kind == plan.MessageRule); skip || err != nil {
		return false, err
	}

	var v protoreflect.Value
	if r.Kind == plan.MessageRule {
		v = m.NewField(f.Descriptor)
	}
	v, err := r.Decode(d, v, r)
	if err != nil || !v.IsValid() {
		return false, err
	}
	m.Set(f.Descriptor, v)
	return true, nil
}

func encodeRepeated(e *vm.Encoder, m protoreflect.Message, f *plan.Field) error {
	fd := f.Descriptor
	list := m.Get(fd).List()
	if list.Len() == 0 && !e.ShouldEmit(fd) {
		return nil
	}

	e.Key(f.JSONKey, f.ProtoKey)
	elem := f.Rule.Elem
	e.BeginArray()
	for i := range list.Len() {
		if err := elem.Encode(e, list.Get(i), elem); err != nil {
			return err
		}
	}
	e.EndArray()
	return nil
}

func decodeRepeated(d *vm.Decoder, m protoreflect.Message, f *plan.Field) (bool, error) {
	if skip, err := skipNull(d, &f.Rule, false); skip || err != nil {
		return false, err
	}
	if _, err := d.Expect(f.Rule.Name, jsonwire.ArrayStart); err != nil {
		return false, err
	}

	elem := f.Rule.Elem
	list := m.Mutable(f.Descriptor).List()
	for {
		k, err := d.Peek()
		if err != nil {
			return false, err
		}
		if k == jsonwire.ArrayEnd {
			_, err := d.Next()
			return list.Len() > 0, err
		}
		if skip, err := skipNull(d, elem, false); err != nil {
			return false, err
		} else if skip {
			continue
		}

		var v protoreflect.Value
		if elem.Kind == plan.MessageRule {
			v = list.NewElement()
		}
		v, err = elem.Decode(d, v, elem)
		if err != nil {
			return false, err
		}
		if v.IsValid() {
			list.Append(v)
		}
	}
}

func encodeMap(e *vm.Encoder, m protoreflect.Message, f *plan.Field) error {
	fd := f.Descriptor
	entries := m.Get(fd).Map()
	if entries.Len() == 0 && !e.ShouldEmit(fd) {
		return nil
	}

	e.Key(f.JSONKey, f.ProtoKey)
	key, elem := f.Rule.Key, f.Rule.Elem
	e.BeginObject()
	if e.SortedMapKeys {
		type entry struct {
			key string
			val protoreflect.Value
		}
		sorted := make([]entry, 0, entries.Len())
		entries.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			sorted = append(sorted, entry{key.FormatKey(k), v})
			return true
		})
		slices.SortFunc(sorted, func(a, b entry) int { return strings.Compare(a.key, b.key) })

		for _, en := range sorted {
			if err := e.KeyString(f.Rule.Name, en.key); err != nil {
				return err
			}
			if err := elem.Encode(e, en.val, elem); err != nil {
				return err
			}
		}
	} else {
		var err error
		entries.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			if err = e.KeyString(f.Rule.Name, key.FormatKey(k)); err != nil {
				return false
			}
			err = elem.Encode(e, v, elem)
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	e.EndObject()
	return nil
}

func decodeMap(d *vm.Decoder, m protoreflect.Message, f *plan.Field) (bool, error) {
	if skip, err := skipNull(d, &f.Rule, false); skip || err != nil {
		return false, err
	}
	if _, err := d.Expect(f.Rule.Name, jsonwire.ObjectStart); err != nil {
		return false, err
	}

	key, elem := f.Rule.Key, f.Rule.Elem
	entries := m.Mutable(f.Descriptor).Map()
	for {
		tok, err := d.Next()
		if err != nil {
			return false, err
		}
		if tok.Kind == jsonwire.ObjectEnd {
			return entries.Len() > 0, nil
		}

		k, err := key.ParseKey(tok.Text)
		if err != nil {
			return false, vm.Malformed(f.Rule.Name, tok.Text, err)
		}
		if entries.Has(k) {
			return false, vm.Malformed(f.Rule.Name, tok.Text, vm.ErrDuplicateKey)
		}
		if skip, err := skipNull(d, elem, false); err != nil {
			return false, err
		} else if skip {
			continue
		}

		var v protoreflect.Value
		if elem.Kind == plan.MessageRule {
			v = entries.NewValue()
		}
		v, err = elem.Decode(d, v, elem)
		if err != nil {
			return false, err
		}
		if v.IsValid() {
			entries.Set(k, v)
		}
	}
}

// skipNull consumes a null that stands for an absent value.
//
// A null is absent if the value has no meaningful null, and either absent is
// set or the decoder is lenient about nulls. Otherwise, the null is left for
// the value's codec, which rejects it.
func skipNull(d *vm.Decoder, r *plan.Rule, absent bool) (bool, error) {
	k, err := d.Peek()
	if err != nil || k != jsonwire.Null {
		return false, err
	}
	if r.Nullable() || !(absent || d.LenientNulls) {
		return false, nil
	}
	_, err = d.Next()
	return err == nil, err
}
