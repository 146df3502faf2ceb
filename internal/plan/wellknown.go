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

import "google.golang.org/protobuf/reflect/protoreflect"

// WellKnown identifies the message types with a special JSON mapping.
type WellKnown uint8

const (
	NotWellKnown WellKnown = iota
	AnyType
	DurationType
	TimestampType
	FieldMaskType
	StructType
	ValueType
	ListValueType
	EmptyType
	WrapperType // Any of the nine scalar wrappers.
)

var wellKnownNames = map[protoreflect.FullName]WellKnown{
	"google.protobuf.Any":       AnyType,
	"google.protobuf.Duration":  DurationType,
	"google.protobuf.Timestamp": TimestampType,
	"google.protobuf.FieldMask": FieldMaskType,
	"google.protobuf.Struct":    StructType,
	"google.protobuf.Value":     ValueType,
	"google.protobuf.ListValue": ListValueType,
	"google.protobuf.Empty":     EmptyType,

	"google.protobuf.BoolValue":   WrapperType,
	"google.protobuf.Int32Value":  WrapperType,
	"google.protobuf.Int64Value":  WrapperType,
	"google.protobuf.UInt32Value": WrapperType,
	"google.protobuf.UInt64Value": WrapperType,
	"google.protobuf.FloatValue":  WrapperType,
	"google.protobuf.DoubleValue": WrapperType,
	"google.protobuf.StringValue": WrapperType,
	"google.protobuf.BytesValue":  WrapperType,
}

// WellKnownOf classifies a message by its full name.
func WellKnownOf(name protoreflect.FullName) WellKnown {
	return wellKnownNames[name]
}

func (w WellKnown) String() string {
	switch w {
	case NotWellKnown:
		return "none"
	case AnyType:
		return "Any"
	case DurationType:
		return "Duration"
	case TimestampType:
		return "Timestamp"
	case FieldMaskType:
		return "FieldMask"
	case StructType:
		return "Struct"
	case ValueType:
		return "Value"
	case ListValueType:
		return "ListValue"
	case EmptyType:
		return "Empty"
	case WrapperType:
		return "wrapper"
	default:
		return "unknown"
	}
}
