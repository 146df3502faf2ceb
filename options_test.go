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


package hyperjson_test

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"buf.build/go/hyperjson"
)

func TestIndent(t *testing.T) {
	t.Parallel()

	cache := newCache(t)
	m := newMessage(t, "Repeated", `i32: [1, 2] msgs: {} msgs: { str: "x" }`)

	got, err := cache.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{
  "i32": [
    1,
    2
  ],
  "msgs": [
    {},
    {
      "str": "x"
    }
  ]
}`, string(got))

	got, err = cache.Marshal(m, hyperjson.WithIndent("\t"))
	require.NoError(t, err)
	assert.Equal(t, "{\n\t\"i32\": [\n\t\t1,\n\t\t2\n\t],\n\t\"msgs\": [\n\t\t{},\n\t\t{\n\t\t\t\"str\": \"x\"\n\t\t}\n\t]\n}", string(got))

	got, err = cache.Marshal(m, hyperjson.WithCompact())
	require.NoError(t, err)
	assert.Equal(t, `{"i32":[1,2],"msgs":[{},{"str":"x"}]}`, string(got))
}

func TestNames(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))
	m := newMessage(t, "Scalars", `opt_i32: 1 snake_case_name: "x" custom: 3`)

	got, err := cache.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"optI32":1,"snakeCaseName":"x","renamed":3}`, string(got))

	got, err = cache.Marshal(m, hyperjson.WithProtoNames(true))
	require.NoError(t, err)
	assert.Equal(t, `{"opt_i32":1,"snake_case_name":"x","custom":3}`, string(got))
}

func TestEmitDefaults(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))

	got, err := cache.Marshal(newMessage(t, "Scalars", ""), hyperjson.WithEmitDefaults(true))
	require.NoError(t, err)
	assert.Equal(t, `{"i32":0,"i64":"0","u32":0,"u64":"0","s32":0,"s64":"0",`+
		`"f32":0,"f64":"0","sf32":0,"sf64":"0","flt":0,"dbl":0,"b":false,"str":"","by":"",`+
		`"color":"COLOR_UNSPECIFIED","snakeCaseName":"","renamed":0}`, string(got))

	got, err = cache.Marshal(newMessage(t, "Repeated", ""), hyperjson.WithEmitDefaults(true))
	require.NoError(t, err)
	assert.Equal(t, `{"i32":[],"i64":[],"str":[],"colors":[],"msgs":[],"by":[],"values":[],"nulls":[]}`, string(got))

	// Members of a oneof have presence, so they are never emitted when unset.
	got, err = cache.Marshal(newMessage(t, "Oneofs", ""), hyperjson.WithEmitDefaults(true))
	require.NoError(t, err)
	assert.Equal(t, `{"other":0}`, string(got))

	got, err = cache.Marshal(newMessage(t, "Scalars", ""),
		hyperjson.WithAlwaysEmit("hyperjson.test.Scalars.i32"),
		hyperjson.WithAlwaysEmit("hyperjson.test.Scalars.str", "hyperjson.test.Scalars.opt_i32"),
	)
	require.NoError(t, err)
	assert.Equal(t, `{"i32":0,"str":""}`, string(got))
}

func TestEnums(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))

	m := newMessage(t, "Scalars", `color: COLOR_RED`)
	got, err := cache.Marshal(m, hyperjson.WithEnumNumbers(true))
	require.NoError(t, err)
	assert.Equal(t, `{"color":1}`, string(got))

	// Open enums may hold values with no name.
	m = newMessage(t, "Scalars", `color: 7`)
	got, err = cache.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"color":7}`, string(got))

	back := newMessage(t, "Scalars", "")
	require.NoError(t, cache.Unmarshal(got, back))
	assert.True(t, proto.Equal(m, back))
}

func TestBytes(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))
	m := newMessage(t, "Scalars", `by: "\xfb\xff"`)

	got, err := cache.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"by":"+/8="}`, string(got))

	got, err = cache.Marshal(m, hyperjson.WithURLSafeBytes(true))
	require.NoError(t, err)
	assert.Equal(t, `{"by":"-_8="}`, string(got))
}

func TestSortedMapKeys(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))
	m := newMessage(t, "Maps", `
		str_i32: { key: "b" value: 2 }
		str_i32: { key: "a" value: 1 }
		str_i32: { key: "c" value: 3 }
		i32_str: { key: 10 value: "x" }
		i32_str: { key: 9 value: "y" }
		i32_str: { key: -1 value: "z" }
		bool_str: { key: true value: "t" }
		bool_str: { key: false value: "f" }
	`)

	// Keys are ordered by their JSON spelling, not their numeric value.
	want := `{"strI32":{"a":1,"b":2,"c":3},"i32Str":{"-1":"z","10":"x","9":"y"},"boolStr":{"false":"f","true":"t"}}`
	got, err := cache.Marshal(m, hyperjson.WithSortedMapKeys(true))
	require.NoError(t, err)
	assert.Equal(t, want, string(got))

	got, err = cache.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, want, string(got))
}

func TestDiscardUnknown(t *testing.T) {
	t.Parallel()

	cache := newCache(t)
	input := []byte(`{"nope":{"a":[1,{"b":null}]},"i32":1,"color":"COLOR_BLUE","nope2":"x"}`)

	got := newMessage(t, "Scalars", "")
	err := cache.Unmarshal(input, got)
	var unknown *hyperjson.UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Key)
	assert.Equal(t, protoreflect.FullName("hyperjson.test.Scalars"), unknown.Message)

	require.NoError(t, cache.Unmarshal(input, got, hyperjson.WithDiscardUnknown(true)))
	assert.True(t, proto.Equal(newMessage(t, "Scalars", `i32: 1`), got))

	got = newMessage(t, "Repeated", "")
	require.NoError(t, cache.Unmarshal(
		[]byte(`{"colors":["COLOR_RED","COLOR_BLUE","COLOR_GREEN"]}`), got,
		hyperjson.WithDiscardUnknown(true)))
	assert.True(t, proto.Equal(newMessage(t, "Repeated", `colors: [COLOR_RED, COLOR_GREEN]`), got))

	got = newMessage(t, "Maps", "")
	require.NoError(t, cache.Unmarshal(
		[]byte(`{"i64Color":{"1":"COLOR_RED","2":"COLOR_BLUE"}}`), got,
		hyperjson.WithDiscardUnknown(true)))
	assert.True(t, proto.Equal(newMessage(t, "Maps", `i64_color: { key: 1 value: COLOR_RED }`), got))
}

func TestLenientNulls(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithLenientNulls(true)))

	got := newMessage(t, "Scalars", "")
	require.NoError(t, cache.Unmarshal([]byte(`{"i32":null,"str":null,"color":null,"optI32":null}`), got))
	assert.Zero(t, proto.Size(got))

	got = newMessage(t, "Repeated", "")
	require.NoError(t, cache.Unmarshal([]byte(`{"i32":[1,null,2],"str":null,"nulls":[null]}`), got))
	assert.True(t, proto.Equal(newMessage(t, "Repeated", `i32: [1, 2] nulls: [NULL_VALUE]`), got))

	got = newMessage(t, "Maps", "")
	require.NoError(t, cache.Unmarshal([]byte(`{"strI32":{"a":null,"b":2}}`), got))
	assert.True(t, proto.Equal(newMessage(t, "Maps", `str_i32: { key: "b" value: 2 }`), got))

	// Without the option, null only means something for some types.
	got = newMessage(t, "Scalars", "")
	err := cache.Unmarshal([]byte(`{"i32":null}`), got, hyperjson.WithLenientNulls(false))
	var mismatch *hyperjson.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, protoreflect.FullName("hyperjson.test.Scalars.i32"), mismatch.Field)
}

func TestMaxDepth(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))
	nest := func(n int) []byte {
		return []byte(strings.Repeat(`{"left":`, n) + "{}" + strings.Repeat("}", n))
	}

	// The top-level message counts as one level.
	m := newMessage(t, "Node", "")
	require.NoError(t, cache.Unmarshal(nest(2), m, hyperjson.WithMaxDepth(3)))
	got, err := cache.Marshal(m, hyperjson.WithMaxDepth(3))
	require.NoError(t, err)
	assert.Equal(t, string(nest(2)), string(got))

	_, err = cache.Marshal(m, hyperjson.WithMaxDepth(2))
	require.ErrorIs(t, err, hyperjson.ErrRecursionDepth)

	err = cache.Unmarshal(nest(3), m, hyperjson.WithMaxDepth(3))
	require.ErrorIs(t, err, hyperjson.ErrRecursionDepth)
	assert.Zero(t, proto.Size(m))

	err = cache.Unmarshal(nest(hyperjson.DefaultMaxDepth), m)
	require.ErrorIs(t, err, hyperjson.ErrRecursionDepth)
	require.NoError(t, cache.Unmarshal(nest(hyperjson.DefaultMaxDepth-1), m))

	// Struct values count too.
	deep := newMessage(t, "WellKnown", "")
	input := `{"value":` + strings.Repeat("[", 10) + strings.Repeat("]", 10) + `}`
	require.NoError(t, cache.Unmarshal([]byte(input), deep))
	err = cache.Unmarshal([]byte(input), deep, hyperjson.WithMaxDepth(5))
	require.ErrorIs(t, err, hyperjson.ErrRecursionDepth)
}

func TestFloats(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))

	m := newMessage(t, "Scalars", `flt: inf dbl: nan`)
	got, err := cache.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"flt":"Infinity","dbl":"NaN"}`, string(got))

	back := newMessage(t, "Scalars", "")
	require.NoError(t, cache.Unmarshal([]byte(`{"flt":"-Infinity","dbl":"NaN"}`), back))
	fields := back.ProtoReflect().Descriptor().Fields()
	assert.True(t, math.IsInf(back.ProtoReflect().Get(fields.ByName("flt")).Float(), -1))
	assert.True(t, math.IsNaN(back.ProtoReflect().Get(fields.ByName("dbl")).Float()))

	// Special values must be quoted.
	err = cache.Unmarshal([]byte(`{"dbl":NaN}`), back)
	require.ErrorAs(t, err, new(*hyperjson.SyntaxError))

	// google.protobuf.Value cannot represent them at all.
	_, err = cache.Marshal(structpb.NewNumberValue(math.Inf(1)))
	require.ErrorIs(t, err, hyperjson.ErrNonFinite)
	require.ErrorAs(t, err, new(*hyperjson.MalformedValueError))
}

func TestWellKnownTopLevel(t *testing.T) {
	t.Parallel()

	cache := hyperjson.NewCache(hyperjson.WithDefaults(hyperjson.WithCompact()))

	tests := []struct {
		msg  proto.Message
		want string
	}{
		{durationpb.New(1500 * time.Millisecond), `"1.500s"`},
		{durationpb.New(-time.Second), `"-1s"`},
		{timestamppb.New(time.Unix(0, 1000).UTC()), `"1970-01-01T00:00:00.000001Z"`},
		{wrapperspb.String("x"), `"x"`},
		{wrapperspb.Int64(-3), `"-3"`},
		{structpb.NewNullValue(), `null`},
		{structpb.NewListValue(&structpb.ListValue{}), `[]`},
		{&structpb.Struct{}, `{}`},
	}

	for _, tt := range tests {
		got, err := cache.Marshal(tt.msg)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))

		back := tt.msg.ProtoReflect().New().Interface()
		require.NoError(t, cache.Unmarshal(got, back))
		assert.True(t, proto.Equal(tt.msg, back), "%s", got)
	}

	// A Value without a kind has no JSON form.
	_, err := cache.Marshal(&structpb.Value{})
	require.ErrorIs(t, err, hyperjson.ErrUnsetOneof)
}

func TestMarshaller(t *testing.T) {
	t.Parallel()

	cache := newCache(t, hyperjson.WithDefaults(hyperjson.WithCompact()))
	m := newMessage(t, "Scalars", `i32: 1`)

	ms, err := cache.For(m.ProtoReflect().Descriptor())
	require.NoError(t, err)
	assert.Equal(t, m.ProtoReflect().Descriptor(), ms.Descriptor())

	again, err := cache.For(m.ProtoReflect().Descriptor())
	require.NoError(t, err)
	assert.Same(t, ms, again)

	b, err := ms.MarshalAppend([]byte("x="), m)
	require.NoError(t, err)
	assert.Equal(t, `x={"i32":1}`, string(b))

	buf := new(bytes.Buffer)
	require.NoError(t, ms.MarshalTo(buf, m))
	assert.Equal(t, `{"i32":1}`, buf.String())

	back := newMessage(t, "Scalars", `str: "stale"`)
	require.NoError(t, ms.UnmarshalFrom(strings.NewReader(` {"i32": 1} `), back))
	assert.True(t, proto.Equal(m, back))

	// Marshallers only accept their own type.
	other := newMessage(t, "Maps", "")
	_, err = ms.Marshal(other)
	require.Error(t, err)
	require.Error(t, ms.Unmarshal([]byte(`{}`), other))

	// A failed marshal does not disturb the buffer.
	_, err = ms.MarshalAppend([]byte("x="), other)
	require.Error(t, err)
}

func TestSyntaxErrors(t *testing.T) {
	t.Parallel()

	cache := newCache(t)
	for _, input := range []string{
		``,
		` `,
		`{`,
		`{"i32":1,}`,
		`{"i32":1}{}`,
		`{"i32" 1}`,
		`{'i32':1}`,
		`{"str":"\x"}`,
	} {
		err := cache.Unmarshal([]byte(input), newMessage(t, "Scalars", ""))
		var syntax *hyperjson.SyntaxError
		require.ErrorAs(t, err, &syntax, "input: %q", input)
		assert.Error(t, syntax.Unwrap(), "input: %q", input)
	}
}
