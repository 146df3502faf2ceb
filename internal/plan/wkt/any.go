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
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/vm"
)

const (
	typeURLField protoreflect.FieldNumber = 1
	valueField   protoreflect.FieldNumber = 2

	typeKey  = "@type"
	valueKey = "value"
)

func encodeAny(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	m := v.Message()
	url := m.Get(field(m, typeURLField)).String()
	payload := m.Get(field(m, valueField)).Bytes()
	if url == "" && len(payload) == 0 {
		e.BeginObject()
		e.EndObject()
		return nil
	}

	mt, err := e.Resolver.FindMessageByURL(url)
	if err != nil {
		return vm.Malformed(r.Name, url, err)
	}
	inner := mt.New()
	if err := (proto.UnmarshalOptions{AllowPartial: true}).Unmarshal(payload, inner.Interface()); err != nil {
		return vm.Malformed(r.Name, url, err)
	}
	ty, err := r.Library.Load(mt.Descriptor())
	if err != nil {
		return err
	}

	if err := e.Push(); err != nil {
		return err
	}
	defer e.Pop()

	e.BeginObject()
	e.NameString(typeKey)
	e.String(url)
	if ty.Special != nil {
		e.NameString(valueKey)
		if err := ty.Encode(e, inner); err != nil {
			return err
		}
	} else if err := ty.EncodeFields(e, inner); err != nil {
		return err
	}
	e.EndObject()
	return nil
}

// decodeAny captures the whole object first, since "@type" may appear after
// the fields it describes.
func decodeAny(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	k, err := d.Peek()
	if err != nil {
		return protoreflect.Value{}, err
	}
	if k != jsonwire.ObjectStart {
		tok, err := d.Next()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.Value{}, vm.Mismatch(r.Name, "object", tok.Kind)
	}

	toks, err := d.Capture()
	if err != nil {
		return protoreflect.Value{}, err
	}
	members := jsonwire.Members(toks)
	if len(members) == 0 {
		return v, nil
	}

	at := -1
	for _, i := range members {
		if toks[i].Text != typeKey {
			continue
		}
		if at >= 0 {
			return protoreflect.Value{}, vm.Malformed(r.Name, typeKey, vm.ErrDuplicateKey)
		}
		at = i
	}
	if at < 0 {
		return protoreflect.Value{}, vm.Malformed(r.Name, "", vm.ErrMissingType)
	}
	if toks[at+1].Kind != jsonwire.String {
		return protoreflect.Value{}, vm.Mismatch(r.Name, "string", toks[at+1].Kind)
	}
	url := toks[at+1].Text

	mt, err := d.Resolver.FindMessageByURL(url)
	if err != nil {
		return protoreflect.Value{}, vm.Malformed(r.Name, url, err)
	}
	ty, err := r.Library.Load(mt.Descriptor())
	if err != nil {
		return protoreflect.Value{}, err
	}

	inner := mt.New()
	sub := d.WithSource(jsonwire.NewReplay(jsonwire.Without(toks, at)))
	if ty.Special != nil {
		err = decodeWrapped(sub, ty, inner, r, url)
	} else {
		err = ty.Decode(sub, inner)
	}
	if err != nil {
		return protoreflect.Value{}, err
	}

	payload, err := proto.MarshalOptions{Deterministic: true, AllowPartial: true}.Marshal(inner.Interface())
	if err != nil {
		return protoreflect.Value{}, vm.Malformed(r.Name, url, err)
	}
	m := v.Message()
	m.Set(field(m, typeURLField), protoreflect.ValueOfString(url))
	m.Set(field(m, valueField), protoreflect.ValueOfBytes(payload))
	return v, nil
}

// decodeWrapped reads {"value": ...} for a well-known payload.
func decodeWrapped(d *vm.Decoder, ty *plan.Type, inner protoreflect.Message, r *plan.Rule, url string) error {
	if err := d.Push(); err != nil {
		return err
	}
	defer d.Pop()

	if _, err := d.Next(); err != nil { // The opening brace.
		return err
	}
	var found bool
	for {
		tok, err := d.Next()
		if err != nil {
			return err
		}
		switch {
		case tok.Kind == jsonwire.ObjectEnd:
			if !found {
				return vm.Malformed(r.Name, url, vm.ErrMissingValue)
			}
			return nil
		case tok.Text == valueKey:
			if found {
				return vm.Malformed(r.Name, valueKey, vm.ErrDuplicateKey)
			}
			found = true
			if err := ty.Decode(d, inner); err != nil {
				return err
			}
		case d.DiscardUnknown:
			if err := d.Skip(); err != nil {
				return err
			}
		default:
			return &vm.UnknownFieldError{Message: r.Name, Key: tok.Text}
		}
	}
}
