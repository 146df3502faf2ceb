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

package wkt

import (
	"slices"
	"strconv"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/vm"
)

// Struct.fields and ListValue.values.
const (
	structFields protoreflect.FieldNumber = 1
	listValues   protoreflect.FieldNumber = 1
)

// Members of Value.kind.
const (
	nullValue   protoreflect.FieldNumber = 1
	numberValue protoreflect.FieldNumber = 2
	stringValue protoreflect.FieldNumber = 3
	boolValue   protoreflect.FieldNumber = 4
	structValue protoreflect.FieldNumber = 5
	listValue   protoreflect.FieldNumber = 6
)

func encodeStruct(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	if err := e.Push(); err != nil {
		return err
	}
	defer e.Pop()

	m := v.Message()
	fields := m.Get(field(m, structFields)).Map()

	// Struct keys are always sorted, since they are plain strings.
	keys := make([]string, 0, fields.Len())
	fields.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k.String())
		return true
	})
	slices.Sort(keys)

	e.BeginObject()
	for _, k := range keys {
		if err := e.KeyString(r.Name, k); err != nil {
			return err
		}
		val := fields.Get(protoreflect.ValueOfString(k).MapKey())
		if err := encodeValue(e, val, r); err != nil {
			return err
		}
	}
	e.EndObject()
	return nil
}

func decodeStruct(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	if err := d.Push(); err != nil {
		return protoreflect.Value{}, err
	}
	defer d.Pop()

	if _, err := d.Expect(r.Name, jsonwire.ObjectStart); err != nil {
		return protoreflect.Value{}, err
	}

	m := v.Message()
	fields := m.Mutable(field(m, structFields)).Map()
	for {
		tok, err := d.Next()
		if err != nil {
			return protoreflect.Value{}, err
		}
		if tok.Kind == jsonwire.ObjectEnd {
			return v, nil
		}

		key := protoreflect.ValueOfString(tok.Text).MapKey()
		if fields.Has(key) {
			return protoreflect.Value{}, vm.Malformed(r.Name, tok.Text, vm.ErrDuplicateKey)
		}
		val, err := decodeValue(d, fields.NewValue(), r)
		if err != nil {
			return protoreflect.Value{}, err
		}
		fields.Set(key, val)
	}
}

func encodeListValue(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	if err := e.Push(); err != nil {
		return err
	}
	defer e.Pop()

	m := v.Message()
	values := m.Get(field(m, listValues)).List()
	e.BeginArray()
	for i := range values.Len() {
		if err := encodeValue(e, values.Get(i), r); err != nil {
			return err
		}
	}
	e.EndArray()
	return nil
}

func decodeListValue(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	if err := d.Push(); err != nil {
		return protoreflect.Value{}, err
	}
	defer d.Pop()

	if _, err := d.Expect(r.Name, jsonwire.ArrayStart); err != nil {
		return protoreflect.Value{}, err
	}

	m := v.Message()
	values := m.Mutable(field(m, listValues)).List()
	for {
		k, err := d.Peek()
		if err != nil {
			return protoreflect.Value{}, err
		}
		if k == jsonwire.ArrayEnd {
			_, err := d.Next()
			return v, err
		}

		val, err := decodeValue(d, values.NewElement(), r)
		if err != nil {
			return protoreflect.Value{}, err
		}
		values.Append(val)
	}
}

func encodeValue(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	m := v.Message()
	od := m.Descriptor().Oneofs().ByName("kind")
	fd := m.WhichOneof(od)
	if fd == nil {
		return vm.Malformed(r.Name, "", vm.ErrUnsetOneof)
	}

	val := m.Get(fd)
	switch fd.Number() {
	case nullValue:
		e.Null()
	case numberValue:
		f := val.Float()
		if !vm.IsFinite(f) {
			return vm.Malformed(r.Name, strconv.FormatFloat(f, 'g', -1, 64), vm.ErrNonFinite)
		}
		e.Float(f, 64)
	case stringValue:
		return e.StringValue(r.Name, val.String())
	case boolValue:
		e.Bool(val.Bool())
	case structValue:
		return encodeStruct(e, val, r)
	case listValue:
		return encodeListValue(e, val, r)
	default:
		return vm.Malformed(r.Name, string(fd.Name()), vm.ErrInvalidSchema)
	}
	return nil
}

func decodeValue(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	m := v.Message()
	k, err := d.Peek()
	if err != nil {
		return protoreflect.Value{}, err
	}

	switch k {
	case jsonwire.ObjectStart:
		fd := field(m, structValue)
		if _, err := decodeStruct(d, m.Mutable(fd), r); err != nil {
			return protoreflect.Value{}, err
		}
		return v, nil
	case jsonwire.ArrayStart:
		fd := field(m, listValue)
		if _, err := decodeListValue(d, m.Mutable(fd), r); err != nil {
			return protoreflect.Value{}, err
		}
		return v, nil
	}

	tok, err := d.Next()
	if err != nil {
		return protoreflect.Value{}, err
	}
	switch tok.Kind {
	case jsonwire.Null:
		m.Set(field(m, nullValue), protoreflect.ValueOfEnum(0))
	case jsonwire.Bool:
		m.Set(field(m, boolValue), protoreflect.ValueOfBool(tok.Bool))
	case jsonwire.String:
		m.Set(field(m, stringValue), protoreflect.ValueOfString(tok.Text))
	case jsonwire.Number:
		f, err := vm.ParseFloat(tok.Text, false, 64)
		if err != nil {
			return protoreflect.Value{}, vm.Malformed(r.Name, tok.Text, err)
		}
		m.Set(field(m, numberValue), protoreflect.ValueOfFloat64(f))
	default:
		return protoreflect.Value{}, vm.Mismatch(r.Name, "value", tok.Kind)
	}
	return v, nil
}

func encodeEmpty(e *vm.Encoder, _ protoreflect.Value, _ *plan.Rule) error {
	e.BeginObject()
	e.EndObject()
	return nil
}

func decodeEmpty(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	if _, err := d.Expect(r.Name, jsonwire.ObjectStart); err != nil {
		return protoreflect.Value{}, err
	}
	for {
		tok, err := d.Next()
		if err != nil {
			return protoreflect.Value{}, err
		}
		if tok.Kind == jsonwire.ObjectEnd {
			return v, nil
		}
		if !d.DiscardUnknown {
			return protoreflect.Value{}, &vm.UnknownFieldError{
				Message: v.Message().Descriptor().FullName(),
				Key:     tok.Text,
			}
		}
		if err := d.Skip(); err != nil {
			return protoreflect.Value{}, err
		}
	}
}

// The scalar inside every wrapper type.
const wrappedValue protoreflect.FieldNumber = 1

func encodeWrapper(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	m := v.Message()
	fd := field(m, wrappedValue)
	return vm.ScalarEncoderFor(fd.Kind())(e, r.Name, m.Get(fd))
}

func decodeWrapper(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	m := v.Message()
	fd := field(m, wrappedValue)
	val, err := vm.ScalarDecoderFor(fd.Kind())(d, r.Name)
	if err != nil {
		return protoreflect.Value{}, err
	}
	m.Set(fd, val)
	return v, nil
}
