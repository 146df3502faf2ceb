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
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/dbg"
	"buf.build/go/hyperjson/internal/plan/vm"
)

// Field is the plan for one declared field of a message.
type Field struct {
	Descriptor protoreflect.FieldDescriptor
	Index      int

	JSONName, ProtoName string
	// Pre-quoted keys, ready to be copied into the output.
	JSONKey, ProtoKey []byte

	// Index into Type.Oneofs, or -1. Synthetic oneofs are not counted.
	Oneof int

	// Thunks selected by the field's cardinality.
	Encode FieldEncoder
	Decode FieldDecoder

	Rule Rule
}

// FieldEncoder writes a field of m, including its key, if it should appear
// in the output.
type FieldEncoder func(e *vm.Encoder, m protoreflect.Message, f *Field) error

// FieldDecoder reads the value of a field of m whose key was just consumed.
// It reports whether the field was populated, which is false for values that
// leave the field unset, such as null.
type FieldDecoder func(d *vm.Decoder, m protoreflect.Message, f *Field) (populated bool, err error)

// Format implements [fmt.Formatter].
func (f *Field) Format(s fmt.State, verb rune) {
	var oneof any
	if f.Oneof >= 0 {
		oneof = f.Oneof
	}
	dbg.Dict("Field",
		"name", f.Descriptor.FullName(),
		"json", f.JSONName,
		"oneof", oneof,
		"rule", &f.Rule,
	).Format(s, verb)
}

// RuleKind is the serialization strategy of a [Rule].
type RuleKind uint8

const (
	ScalarRule RuleKind = iota + 1
	EnumRule
	MessageRule
	ListRule
	MapRule
)

func (k RuleKind) String() string {
	switch k {
	case ScalarRule:
		return "scalar"
	case EnumRule:
		return "enum"
	case MessageRule:
		return "message"
	case ListRule:
		return "list"
	case MapRule:
		return "map"
	default:
		return fmt.Sprintf("RuleKind(%d)", uint8(k))
	}
}

// Rule describes how to convert one value: a singular field's value, a list
// element, or a map key or value.
type Rule struct {
	Kind RuleKind
	// Name is used in errors: the full name of the field this rule belongs
	// to, or of the message for a type-level rule.
	Name protoreflect.FullName
	// Descriptor of the value this rule converts: the field itself, or its
	// map key or map value. Nil for type-level rules.
	Value protoreflect.FieldDescriptor

	Enum      protoreflect.EnumDescriptor
	Message   *Link // Set for message values that are not well-known.
	WellKnown WellKnown
	Library   *Library

	// Key and Elem are set for maps and lists.
	Key, Elem *Rule

	Codec
	KeyCodec
}

// Nullable returns whether a JSON null is a meaningful value for this rule,
// rather than the absence of a value.
func (r *Rule) Nullable() bool {
	return r.WellKnown == ValueType ||
		r.Kind == EnumRule && r.Enum.FullName() == "google.protobuf.NullValue"
}

// Format implements [fmt.Formatter].
func (r *Rule) Format(s fmt.State, verb rune) {
	var (
		enum, msg, wkt any
		key, elem      any
	)
	if r.Enum != nil {
		enum = r.Enum.FullName()
	}
	if r.Message != nil {
		msg = r.Message.Descriptor.FullName()
	}
	if r.WellKnown != NotWellKnown {
		wkt = r.WellKnown
	}
	if r.Key != nil {
		key = r.Key
	}
	if r.Elem != nil {
		elem = r.Elem
	}
	dbg.Dict(r.Kind, "enum", enum, "msg", msg, "wkt", wkt, "key", key, "elem", elem).Format(s, verb)
}

// Codec converts a single value.
type Codec struct {
	Encode ValueEncoder
	Decode ValueDecoder
}

// ValueEncoder writes v as a JSON value.
type ValueEncoder func(e *vm.Encoder, v protoreflect.Value, r *Rule) error

// ValueDecoder reads a JSON value.
//
// For message rules, v is a fresh mutable message to populate, which is
// returned on success. An invalid result means the value should be dropped,
// for example an unknown enum name when unknown values are discarded.
type ValueDecoder func(d *vm.Decoder, v protoreflect.Value, r *Rule) (protoreflect.Value, error)

// KeyCodec converts map keys to and from JSON object keys.
type KeyCodec struct {
	FormatKey func(protoreflect.MapKey) string
	ParseKey  func(string) (protoreflect.MapKey, error)
}
