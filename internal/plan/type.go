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

// Package plan contains the compiled form of a message type's JSON mapping.
//
// A [Type] is built once per message descriptor by the compiler, and is then
// executed directly by [Type.Encode] and [Type.Decode], without consulting
// the descriptor again. Nested message types are referenced through [Link]s,
// which are resolved lazily through the [Library] that built the type.
package plan

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/dbg"
)

// Type is the plan for a single message type.
//
// Types are immutable once built and are shared by all callers.
type Type struct {
	Library    *Library
	Descriptor protoreflect.MessageDescriptor
	WellKnown  WellKnown

	// Fields in declaration order.
	Fields []Field
	// Oneofs that are not synthetic, in declaration order.
	Oneofs []Oneof
	// Links to the nested message types referenced by Fields.
	Links []*Link

	// Special is set for well-known types, and replaces the generic object
	// mapping entirely.
	Special *Rule

	// Recursive is set by preloading for types that can reach themselves.
	Recursive bool

	byName map[string]int32
}

// Oneof is a oneof group within a [Type].
type Oneof struct {
	Descriptor protoreflect.OneofDescriptor
	Members    []int // Indices into Type.Fields.
}

// SetNames builds the key lookup table. JSON names take priority over proto
// names when they collide.
func (t *Type) SetNames() error {
	t.byName = make(map[string]int32, 2*len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		if j, ok := t.byName[f.JSONName]; ok {
			return fmt.Errorf("fields %s and %s have the same JSON name %q",
				t.Fields[j].Descriptor.Name(), f.Descriptor.Name(), f.JSONName)
		}
		t.byName[f.JSONName] = int32(i)
	}
	for i := range t.Fields {
		f := &t.Fields[i]
		if _, ok := t.byName[f.ProtoName]; !ok {
			t.byName[f.ProtoName] = int32(i)
		}
	}
	return nil
}

// ByName looks up a field by either its JSON name or its proto name.
func (t *Type) ByName(name string) *Field {
	i, ok := t.byName[name]
	if !ok {
		return nil
	}
	return &t.Fields[i]
}

// Format implements [fmt.Formatter].
func (t *Type) Format(s fmt.State, verb rune) {
	dbg.Dict("Type",
		"name", t.Descriptor.FullName(),
		"wkt", dbg.Fprintf("%v", t.WellKnown),
		"oneofs", len(t.Oneofs),
		"recursive", t.Recursive,
		"fields", dbg.List(t.Fields),
	).Format(s, verb)
}
