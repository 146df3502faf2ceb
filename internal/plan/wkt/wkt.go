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
// Package wkt contains the codecs for the well-known types whose JSON form
// is not a plain object of their fields.
//
// All codecs work through [protoreflect], so they apply equally to generated
// and dynamic messages. Fields are located by number.
package wkt

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/plan"
)

var codecs = [...]plan.Codec{
	plan.AnyType:       {Encode: encodeAny, Decode: decodeAny},
	plan.DurationType:  {Encode: encodeDuration, Decode: decodeDuration},
	plan.TimestampType: {Encode: encodeTimestamp, Decode: decodeTimestamp},
	plan.FieldMaskType: {Encode: encodeFieldMask, Decode: decodeFieldMask},
	plan.StructType:    {Encode: encodeStruct, Decode: decodeStruct},
	plan.ValueType:     {Encode: encodeValue, Decode: decodeValue},
	plan.ListValueType: {Encode: encodeListValue, Decode: decodeListValue},
	plan.EmptyType:     {Encode: encodeEmpty, Decode: decodeEmpty},
	plan.WrapperType:   {Encode: encodeWrapper, Decode: decodeWrapper},
}

// Select returns the codec for a well-known type, or nil if w is not one.
func Select(w plan.WellKnown) *plan.Codec {
	if w == plan.NotWellKnown || int(w) >= len(codecs) {
		return nil
	}
	return &codecs[w]
}

// field returns the field of m with the given number.
func field(m protoreflect.Message, n protoreflect.FieldNumber) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByNumber(n)
}
