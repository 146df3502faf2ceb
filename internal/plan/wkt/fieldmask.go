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
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/vm"
)

const pathsField protoreflect.FieldNumber = 1

// JSONCamelCase converts a snake_case identifier into lowerCamelCase, the
// way protoc derives JSON names.
func JSONCamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var wasUnderscore bool
	for i := range len(s) {
		c := s[i]
		if c != '_' {
			if wasUnderscore && 'a' <= c && c <= 'z' {
				c -= 'a' - 'A'
			}
			b.WriteByte(c)
		}
		wasUnderscore = c == '_'
	}
	return b.String()
}

// JSONSnakeCase is the inverse of [JSONCamelCase] for names that survive a
// round trip.
func JSONSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := range len(s) {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			b.WriteByte('_')
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// FormatFieldMask joins paths into the JSON form of a FieldMask.
func FormatFieldMask(paths []string) (string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		camel := JSONCamelCase(p)
		if JSONSnakeCase(camel) != p {
			return "", fmt.Errorf("%w: %q", vm.ErrBadFieldMask, p)
		}
		out[i] = camel
	}
	return strings.Join(out, ","), nil
}

// ParseFieldMask splits the JSON form of a FieldMask into paths.
func ParseFieldMask(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		snake := JSONSnakeCase(p)
		if strings.Contains(p, "_") || !protoreflect.FullName(snake).IsValid() {
			return nil, fmt.Errorf("%w: %q", vm.ErrBadFieldMask, p)
		}
		parts[i] = snake
	}
	return parts, nil
}

func encodeFieldMask(e *vm.Encoder, v protoreflect.Value, r *plan.Rule) error {
	m := v.Message()
	list := m.Get(field(m, pathsField)).List()
	paths := make([]string, list.Len())
	for i := range paths {
		paths[i] = list.Get(i).String()
	}
	s, err := FormatFieldMask(paths)
	if err != nil {
		return vm.Malformed(r.Name, strings.Join(paths, ","), err)
	}
	e.String(s)
	return nil
}

func decodeFieldMask(d *vm.Decoder, v protoreflect.Value, r *plan.Rule) (protoreflect.Value, error) {
	tok, err := d.Expect(r.Name, jsonwire.String)
	if err != nil {
		return protoreflect.Value{}, err
	}
	paths, err := ParseFieldMask(tok.Text)
	if err != nil {
		return protoreflect.Value{}, vm.Malformed(r.Name, tok.Text, err)
	}

	m := v.Message()
	list := m.Mutable(field(m, pathsField)).List()
	for _, p := range paths {
		list.Append(protoreflect.ValueOfString(p))
	}
	return v, nil
}
