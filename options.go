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

package hyperjson

import (
	"maps"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"buf.build/go/hyperjson/internal/plan/compiler"
	"buf.build/go/hyperjson/internal/plan/vm"
)

// CompileOption is a configuration setting for [NewCache].
type CompileOption struct{ apply func(*compileOptions) }

type compileOptions struct {
	compiler.Options
	preload  bool
	defaults []Option
}

// WithPreload sets whether [Cache.For] plans every message type reachable
// from the requested one up front. This is the default.
//
// Without preloading, nested types are planned when first encountered, and
// a nested type that cannot be planned is only reported then.
func WithPreload(preload bool) CompileOption {
	return CompileOption{func(c *compileOptions) { c.preload = preload }}
}

// WithDefaults sets options that apply to every call made through a
// [Cache], before the options passed to that call.
func WithDefaults(opts ...Option) CompileOption {
	return CompileOption{func(c *compileOptions) { c.defaults = append(c.defaults, opts...) }}
}

// WithTypes sets the default resolver for google.protobuf.Any type URLs.
//
// Equivalent to WithDefaults(WithResolver(types)).
func WithTypes(types protoregistry.MessageTypeResolver) CompileOption {
	return WithDefaults(WithResolver(types))
}

// Option is a configuration setting for marshaling or unmarshaling. Options
// that only affect one direction are ignored by the other.
type Option struct{ apply func(*vm.Options) }

// WithEmitDefaults sets whether fields without presence are written even
// when they hold their default value. Fields with presence are written iff
// they are set, regardless of this option.
func WithEmitDefaults(emit bool) Option {
	return Option{func(o *vm.Options) { o.EmitDefaults = emit }}
}

// WithAlwaysEmit writes the named fields even when they hold their default
// value, like [WithEmitDefaults] but for specific fields.
func WithAlwaysEmit(fields ...protoreflect.FullName) Option {
	return Option{func(o *vm.Options) {
		set := maps.Clone(o.AlwaysEmit)
		if set == nil {
			set = make(map[protoreflect.FullName]struct{}, len(fields))
		}
		for _, f := range fields {
			set[f] = struct{}{}
		}
		o.AlwaysEmit = set
	}}
}

// WithProtoNames sets whether keys are written with the names declared in the
// schema, rather than their lowerCamelCase JSON names. Both spellings are
// always accepted on input.
func WithProtoNames(proto bool) Option {
	return Option{func(o *vm.Options) { o.ProtoNames = proto }}
}

// WithSortedMapKeys sets whether map entries are written in order of their
// keys' string forms.
func WithSortedMapKeys(sorted bool) Option {
	return Option{func(o *vm.Options) { o.SortedMapKeys = sorted }}
}

// WithIndent sets the string used to indent nested values. An empty indent
// produces compact output. The default is two spaces.
func WithIndent(indent string) Option {
	return Option{func(o *vm.Options) { o.Indent = indent }}
}

// WithCompact omits all insignificant whitespace from the output.
func WithCompact() Option {
	return WithIndent("")
}

// WithEnumNumbers sets whether enum values are written as numbers instead of
// names.
func WithEnumNumbers(numbers bool) Option {
	return Option{func(o *vm.Options) { o.EnumNumbers = numbers }}
}

// WithURLSafeBytes sets whether bytes fields are written in the URL-safe
// base64 alphabet. Both alphabets are always accepted on input.
func WithURLSafeBytes(urlSafe bool) Option {
	return Option{func(o *vm.Options) { o.URLSafeBytes = urlSafe }}
}

// WithResolver sets the resolver for google.protobuf.Any type URLs. The
// default is [protoregistry.GlobalTypes].
func WithResolver(types protoregistry.MessageTypeResolver) Option {
	return Option{func(o *vm.Options) { o.Resolver = types }}
}

// WithDiscardUnknown sets whether unknown keys and unknown enum value names
// are skipped instead of rejected.
func WithDiscardUnknown(discard bool) Option {
	return Option{func(o *vm.Options) { o.DiscardUnknown = discard }}
}

// WithLenientNulls sets whether a JSON null is accepted for every field,
// leaving it unset.
func WithLenientNulls(lenient bool) Option {
	return Option{func(o *vm.Options) { o.LenientNulls = lenient }}
}

// DefaultMaxDepth is the nesting limit used unless [WithMaxDepth] is given.
const DefaultMaxDepth = vm.DefaultMaxDepth

// WithMaxDepth sets the maximum message nesting depth, for both marshaling
// and unmarshaling. The default is 100.
//
// Setting a large value enables potential DoS vectors.
func WithMaxDepth(depth int) Option {
	return Option{func(o *vm.Options) { o.MaxDepth = max(depth, 0) }}
}
