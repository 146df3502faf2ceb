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


package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"

	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/compiler"
	"buf.build/go/hyperjson/internal/plan/thunks"
	"buf.build/go/hyperjson/internal/testdata"
)

type backend struct{}

func (backend) SelectArchetype(fd protoreflect.FieldDescriptor) *compiler.Archetype {
	return thunks.SelectArchetype(fd)
}

func (backend) SelectCodec(r *plan.Rule) *plan.Codec {
	return thunks.SelectCodec(r)
}

func (backend) SelectKeyCodec(kind protoreflect.Kind) *plan.KeyCodec {
	return thunks.SelectKeyCodec(kind)
}

func newLibrary() *plan.Library {
	return &plan.Library{
		Build: func(lib *plan.Library, md protoreflect.MessageDescriptor) (*plan.Type, error) {
			return compiler.Compile(lib, md, compiler.Options{Backend: backend{}})
		},
	}
}

func find(t *testing.T, name string) protoreflect.MessageDescriptor {
	t.Helper()

	reg, err := testdata.Load()
	require.NoError(t, err)
	mt, err := reg.Find(protoreflect.FullName(testdata.Package + "." + name))
	require.NoError(t, err)
	return mt.Descriptor()
}

func TestCompileFields(t *testing.T) {
	t.Parallel()

	ty, err := newLibrary().Load(find(t, "Scalars"))
	require.NoError(t, err)

	require.Len(t, ty.Fields, 19)
	assert.Empty(t, ty.Oneofs, "synthetic oneofs are not planned")
	assert.Empty(t, ty.Links)
	assert.False(t, ty.Recursive)
	assert.Nil(t, ty.Special)

	custom := ty.ByName("renamed")
	require.NotNil(t, custom)
	assert.Same(t, custom, ty.ByName("custom"))
	assert.Equal(t, `"renamed"`, string(custom.JSONKey))
	assert.Equal(t, `"custom"`, string(custom.ProtoKey))
	assert.Equal(t, 18, custom.Index)

	snake := ty.ByName("snake_case_name")
	require.NotNil(t, snake)
	assert.Same(t, snake, ty.ByName("snakeCaseName"))
	assert.Equal(t, "snakeCaseName", snake.JSONName)
	assert.Equal(t, "snake_case_name", snake.ProtoName)

	assert.Nil(t, ty.ByName("SnakeCaseName"))
	assert.Nil(t, ty.ByName("nope"))

	for i, f := range ty.Fields {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, -1, f.Oneof)
		assert.NotNil(t, f.Encode, f.JSONName)
		assert.NotNil(t, f.Decode, f.JSONName)
		assert.NotNil(t, f.Rule.Encode, f.JSONName)
		assert.NotNil(t, f.Rule.Decode, f.JSONName)
	}
	assert.Equal(t, plan.EnumRule, ty.ByName("color").Rule.Kind)
	assert.Equal(t, plan.ScalarRule, ty.ByName("by").Rule.Kind)
}

func TestCompileOneofs(t *testing.T) {
	t.Parallel()

	ty, err := newLibrary().Load(find(t, "Oneofs"))
	require.NoError(t, err)

	require.Len(t, ty.Oneofs, 1)
	assert.Equal(t, protoreflect.Name("choice"), ty.Oneofs[0].Descriptor.Name())
	assert.Equal(t, []int{0, 1, 2, 3}, ty.Oneofs[0].Members)
	for _, i := range ty.Oneofs[0].Members {
		assert.Equal(t, 0, ty.Fields[i].Oneof)
	}
	assert.Equal(t, -1, ty.ByName("other").Oneof)

	nothing := ty.ByName("nothing")
	assert.True(t, nothing.Rule.Nullable())
	assert.False(t, ty.ByName("num").Rule.Nullable())
}

func TestCompileCollections(t *testing.T) {
	t.Parallel()

	ty, err := newLibrary().Load(find(t, "Maps"))
	require.NoError(t, err)

	f := ty.ByName("u64Msg")
	require.NotNil(t, f)
	assert.Equal(t, plan.MapRule, f.Rule.Kind)
	require.NotNil(t, f.Rule.Key)
	require.NotNil(t, f.Rule.Elem)
	assert.Equal(t, "18446744073709551615", f.Rule.Key.FormatKey(protoreflect.ValueOfUint64(1<<64-1).MapKey()))
	assert.Equal(t, plan.MessageRule, f.Rule.Elem.Kind)
	require.NotNil(t, f.Rule.Elem.Message)
	assert.Contains(t, ty.Links, f.Rule.Elem.Message)

	values := ty.ByName("strValue")
	assert.Equal(t, plan.ValueType, values.Rule.Elem.WellKnown)
	assert.Nil(t, values.Rule.Elem.Message, "well-known types are not linked")
	assert.True(t, values.Rule.Elem.Nullable())

	ty, err = newLibrary().Load(find(t, "Repeated"))
	require.NoError(t, err)
	f = ty.ByName("msgs")
	assert.Equal(t, plan.ListRule, f.Rule.Kind)
	assert.Equal(t, plan.MessageRule, f.Rule.Elem.Kind)
	assert.Equal(t, []*plan.Link{f.Rule.Elem.Message}, ty.Links)
}

func TestCompileWellKnown(t *testing.T) {
	t.Parallel()

	lib := newLibrary()
	ty, err := lib.Load((*structpb.Struct)(nil).ProtoReflect().Descriptor())
	require.NoError(t, err)

	assert.Equal(t, plan.StructType, ty.WellKnown)
	require.NotNil(t, ty.Special)
	assert.NotNil(t, ty.Special.Encode)
	assert.Empty(t, ty.Fields)
	assert.True(t, ty.Recursive, "Struct contains Value, which contains Struct")
}

func TestRecursive(t *testing.T) {
	t.Parallel()

	lib := newLibrary()
	node, err := lib.Load(find(t, "Node"))
	require.NoError(t, err)
	assert.True(t, node.Recursive)

	// Building a recursive type does not build anything else.
	assert.Equal(t, 1, lib.Len())
	for _, link := range node.Links {
		assert.False(t, link.Resolved())
	}

	left, err := node.ByName("left").Rule.Message.Type()
	require.NoError(t, err)
	assert.Same(t, node, left)
}

func TestPreload(t *testing.T) {
	t.Parallel()

	lib := newLibrary()
	ty, err := compiler.Preload(lib, find(t, "Repeated"))
	require.NoError(t, err)

	for _, link := range ty.Links {
		assert.True(t, link.Resolved())
	}
	assert.NotNil(t, lib.Cached(find(t, "Scalars")))
	assert.NotNil(t, lib.Cached((*structpb.Value)(nil).ProtoReflect().Descriptor()))
	assert.NotNil(t, lib.Cached((*structpb.Struct)(nil).ProtoReflect().Descriptor()))

	again, err := compiler.Preload(lib, find(t, "Repeated"))
	require.NoError(t, err)
	assert.Same(t, ty, again)
}

func TestGraph(t *testing.T) {
	t.Parallel()

	var names []protoreflect.FullName
	for md := range compiler.Graph(find(t, "Maps")) {
		names = append(names, md.FullName())
	}
	assert.Equal(t, []protoreflect.FullName{
		"hyperjson.test.Scalars",
		"google.protobuf.Value",
	}, names)
}
