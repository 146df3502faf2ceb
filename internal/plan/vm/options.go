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

package vm

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// DefaultMaxDepth is the default limit on message nesting.
const DefaultMaxDepth = 100

// DefaultIndent is the indent used unless compact output is requested.
const DefaultIndent = "  "

// Options configures a single marshal or unmarshal call.
//
// Options values are copied into the engine at the start of each call, so
// they are never mutated while in use.
type Options struct {
	// Output settings.
	EmitDefaults  bool
	AlwaysEmit    map[protoreflect.FullName]struct{}
	ProtoNames    bool
	SortedMapKeys bool
	Indent        string
	EnumNumbers   bool
	URLSafeBytes  bool

	// Input settings.
	DiscardUnknown bool
	LenientNulls   bool

	MaxDepth int
	Resolver protoregistry.MessageTypeResolver
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Indent:   DefaultIndent,
		MaxDepth: DefaultMaxDepth,
		Resolver: protoregistry.GlobalTypes,
	}
}

// ShouldEmit returns whether a field without presence should be written even
// though it holds its default value.
func (o *Options) ShouldEmit(fd protoreflect.FieldDescriptor) bool {
	if o.EmitDefaults {
		return true
	}
	if len(o.AlwaysEmit) == 0 {
		return false
	}
	_, ok := o.AlwaysEmit[fd.FullName()]
	return ok
}
