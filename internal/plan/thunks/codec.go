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

package thunks

import (
	"strconv"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/vm"
	"buf.build/go/hyperjson/internal/plan/wkt"
)

const nullValueName = "google.protobuf.NullValue"

var (
	scalars   [protoreflect.Sint64Kind + 1]plan.Codec
	enum      = plan.Codec{Encode: encodeEnum, Decode: decodeEnum}
	nullValue = plan.Codec{Encode: encodeNullValue, Decode: decodeNullValue}
	message   = plan.Codec{Encode: encodeMessage, Decode: decodeMessage}
)

func init() {
	for kind := range scalars {
		enc := vm.ScalarEncoderFor(protoreflect.Kind(kind))
		dec := vm.ScalarDecoderFor(protoreflect.Kind(kind))
		if enc == nil || dec == nil {
			continue
		}
		scalars[kind] = plan.Codec{
			Encode: func(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
				return enc(e, r.Name, v)
			},
			Decode: func(d *vm.Decoder, _ protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
				return dec(d, r.Name)
			},
		}
	}
}

// SelectCodec returns the codec for the values described by r.
func SelectCodec(r *plan.Rule) *plan.Codec {
	switch r.Kind {
	case plan.ScalarRule:
		kind := r.Value.Kind()
		if int(kind) >= len(scalars) || scalars[kind].Encode == nil {
			return nil
		}
		return &scalars[kind]
	case plan.EnumRule:
		if r.Enum.FullName() == nullValueName {
			return &nullValue
		}
		return &enum
	case plan.MessageRule:
		if r.WellKnown != plan.NotWellKnown {
			return wkt.Select(r.WellKnown)
		}
		return &message
	default:
		return nil
	}
}

func encodeEnum(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	n := v.Enum()
	if !e.EnumNumbers {
		if ev := r.Enum.Values().ByNumber(n); ev != nil {
			e.String(string(ev.Name()))
			return nil
		}
	}
	e.Int(int64(n))
	return nil
}

func decodeEnum(d *vm.Decoder, _ protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	tok, err := d.Next()
	if err != nil {
		return protoreflect.Value{}, err
	}

	switch tok.Kind {
	case jsonwire.String:
		if ev := r.Enum.Values().ByName(protoreflect.Name(tok.Text)); ev != nil {
			return protoreflect.ValueOfEnum(ev.Number()), nil
		}
		if d.DiscardUnknown {
			return protoreflect.Value{}, nil
		}
		return protoreflect.Value{}, vm.Malformed(r.Name, tok.Text, vm.ErrUnknownEnum)
	case jsonwire.Number:
		n, err := vm.EnumNumber(tok.Text)
		if err != nil {
			return protoreflect.Value{}, vm.Malformed(r.Name, tok.Text, err)
		}
		return protoreflect.ValueOfEnum(n), nil
	default:
		return protoreflect.Value{}, vm.Mismatch(r.Name, "enum", tok.Kind)
	}
}

func encodeNullValue(e *vm.Encoder, _ protoreflect.Value, _ *plan.Rule) error {
	e.Null()
	return nil
}

func decodeNullValue(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	k, err := d.Peek()
	if err != nil {
		return protoreflect.Value{}, err
	}
	if k != jsonwire.Null {
		return decodeEnum(d, v, r)
	}
	_, err = d.Next()
	return protoreflect.ValueOfEnum(0), err
}

func encodeMessage(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	ty, err := r.Message.Type()
	if err != nil {
		return err
	}
	return ty.Encode(e, v.Message())
}

func decodeMessage(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	ty, err := r.Message.Type()
	if err != nil {
		return protoreflect.Value{}, err
	}
	if err := ty.Decode(d, v.Message()); err != nil {
		return protoreflect.Value{}, err
	}
	return v, nil
}

var (
	stringKey = plan.KeyCodec{
		FormatKey: func(k protoreflect.MapKey) string { return k.String() },
		ParseKey: func(s string) (protoreflect.MapKey, error) {
			return protoreflect.ValueOfString(s).MapKey(), nil
		},
	}
	boolKey = plan.KeyCodec{
		FormatKey: func(k protoreflect.MapKey) string { return strconv.FormatBool(k.Bool()) },
		ParseKey: func(s string) (protoreflect.MapKey, error) {
			switch s {
			case "true":
				return protoreflect.ValueOfBool(true).MapKey(), nil
			case "false":
				return protoreflect.ValueOfBool(false).MapKey(), nil
			}
			return protoreflect.MapKey{}, vm.ErrBadMapKey
		},
	}
	int32Key = plan.KeyCodec{
		FormatKey: formatIntKey,
		ParseKey: func(s string) (protoreflect.MapKey, error) {
			n, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return protoreflect.MapKey{}, vm.ErrBadMapKey
			}
			return protoreflect.ValueOfInt32(int32(n)).MapKey(), nil
		},
	}
	int64Key = plan.KeyCodec{
		FormatKey: formatIntKey,
		ParseKey: func(s string) (protoreflect.MapKey, error) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return protoreflect.MapKey{}, vm.ErrBadMapKey
			}
			return protoreflect.ValueOfInt64(n).MapKey(), nil
		},
	}
	uint32Key = plan.KeyCodec{
		FormatKey: formatUintKey,
		ParseKey: func(s string) (protoreflect.MapKey, error) {
			n, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return protoreflect.MapKey{}, vm.ErrBadMapKey
			}
			return protoreflect.ValueOfUint32(uint32(n)).MapKey(), nil
		},
	}
	uint64Key = plan.KeyCodec{
		FormatKey: formatUintKey,
		ParseKey: func(s string) (protoreflect.MapKey, error) {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return protoreflect.MapKey{}, vm.ErrBadMapKey
			}
			return protoreflect.ValueOfUint64(n).MapKey(), nil
		},
	}
)

// SelectKeyCodec returns the codec for map keys of the given kind.
func SelectKeyCodec(kind protoreflect.Kind) *plan.KeyCodec {
	switch kind {
	case protoreflect.StringKind:
		return &stringKey
	case protoreflect.BoolKind:
		return &boolKey
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return &int32Key
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return &int64Key
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return &uint32Key
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return &uint64Key
	default:
		return nil
	}
}

func formatIntKey(k protoreflect.MapKey) string  { return strconv.FormatInt(k.Int(), 10) }
func formatUintKey(k protoreflect.MapKey) string { return strconv.FormatUint(k.Uint(), 10) }
