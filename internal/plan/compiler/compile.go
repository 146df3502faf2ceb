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
// Package compiler builds [plan.Type]s from message descriptors.
package compiler

import (
	"fmt"
	"iter"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/debug"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/plan/vm"
	"buf.build/go/hyperjson/internal/scc"
)

// Options configures [Compile].
type Options struct {
	// Backend connects a [compiler] with the thunks defined in another
	// package.
	//
	// This type mostly exists to break a circular dependency.
	Backend interface {
		// SelectArchetype classifies a field by cardinality.
		//
		// Returns nil if the field is not supported.
		SelectArchetype(protoreflect.FieldDescriptor) *Archetype

		// SelectCodec returns the codec for values described by a rule whose
		// other fields have already been filled in.
		//
		// Returns nil if the value is not supported.
		SelectCodec(*plan.Rule) *plan.Codec

		// SelectKeyCodec returns the codec for map keys of the given kind.
		//
		// Returns nil if kind cannot be a map key.
		SelectKeyCodec(protoreflect.Kind) *plan.KeyCodec
	}
}

// Compile plans a single message type.
//
// Nested message types are not planned; they are referenced through
// [plan.Link]s that resolve through lib on first use.
func Compile(lib *plan.Library, md protoreflect.MessageDescriptor, options Options) (*plan.Type, error) {
	c := &compiler{Options: options, lib: lib, md: md}
	ty, err := c.compile()
	if err != nil {
		return nil, err
	}
	c.log("done", "%v", ty)
	return ty, nil
}

// compiler is the state for compiling a single type.
type compiler struct {
	Options
	lib *plan.Library
	md  protoreflect.MessageDescriptor
}

func (c *compiler) compile() (*plan.Type, error) {
	ty := &plan.Type{
		Library:    c.lib,
		Descriptor: c.md,
		WellKnown:  plan.WellKnownOf(c.md.FullName()),
		Recursive:  isRecursive(c.md),
	}

	if ty.WellKnown != plan.NotWellKnown {
		r := &plan.Rule{
			Kind:      plan.MessageRule,
			Name:      c.md.FullName(),
			WellKnown: ty.WellKnown,
			Library:   c.lib,
		}
		if err := c.bind(r); err != nil {
			return nil, err
		}
		ty.Special = r
		return ty, ty.SetNames()
	}

	oneofs := make(map[protoreflect.OneofDescriptor]int)
	for i := range c.md.Oneofs().Len() {
		od := c.md.Oneofs().Get(i)
		if od.IsSynthetic() {
			continue
		}
		oneofs[od] = len(ty.Oneofs)
		ty.Oneofs = append(ty.Oneofs, plan.Oneof{Descriptor: od})
	}

	fields := c.md.Fields()
	ty.Fields = make([]plan.Field, fields.Len())
	for i := range fields.Len() {
		fd := fields.Get(i)
		f := &ty.Fields[i]
		f.Descriptor = fd
		f.Index = i
		f.Oneof = -1
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			f.Oneof = oneofs[od]
			o := &ty.Oneofs[f.Oneof]
			o.Members = append(o.Members, i)
		}

		f.JSONName = fd.JSONName()
		f.ProtoName = fd.TextName()
		f.JSONKey = quote(f.JSONName)
		f.ProtoKey = quote(f.ProtoName)

		arch := c.Backend.SelectArchetype(fd)
		if arch == nil {
			return nil, c.fail(fd, fmt.Errorf("%w: no archetype for %v field", vm.ErrInvalidSchema, fd.Cardinality()))
		}
		f.Encode = arch.Encode
		f.Decode = arch.Decode

		if err := c.rule(&f.Rule, fd); err != nil {
			return nil, err
		}
		if f.Rule.Message != nil {
			ty.Links = append(ty.Links, f.Rule.Message)
		} else if f.Rule.Elem != nil && f.Rule.Elem.Message != nil {
			ty.Links = append(ty.Links, f.Rule.Elem.Message)
		}
		c.log("field", "%v, %s", f, arch.Name)
	}

	if err := ty.SetNames(); err != nil {
		return nil, &vm.SchemaError{Message: c.md.FullName(), Err: fmt.Errorf("%w: %v", vm.ErrInvalidSchema, err)}
	}
	return ty, nil
}

// rule fills in the rule for a whole field.
func (c *compiler) rule(r *plan.Rule, fd protoreflect.FieldDescriptor) error {
	switch {
	case fd.IsMap():
		*r = plan.Rule{
			Kind:    plan.MapRule,
			Name:    fd.FullName(),
			Value:   fd,
			Library: c.lib,
			Key:     new(plan.Rule),
			Elem:    new(plan.Rule),
		}
		if err := c.value(r.Key, fd, fd.MapKey()); err != nil {
			return err
		}
		kc := c.Backend.SelectKeyCodec(fd.MapKey().Kind())
		if kc == nil {
			return c.fail(fd, fmt.Errorf("%w: %v map key", vm.ErrInvalidSchema, fd.MapKey().Kind()))
		}
		r.Key.KeyCodec = *kc
		return c.value(r.Elem, fd, fd.MapValue())

	case fd.IsList():
		*r = plan.Rule{
			Kind:    plan.ListRule,
			Name:    fd.FullName(),
			Value:   fd,
			Library: c.lib,
			Elem:    new(plan.Rule),
		}
		return c.value(r.Elem, fd, fd)

	default:
		return c.value(r, fd, fd)
	}
}

// value fills in the rule for a single value of type vd, which belongs to
// the field fd.
func (c *compiler) value(r *plan.Rule, fd, vd protoreflect.FieldDescriptor) error {
	*r = plan.Rule{
		Name:    fd.FullName(),
		Value:   vd,
		Library: c.lib,
	}

	switch vd.Kind() {
	case protoreflect.EnumKind:
		r.Kind = plan.EnumRule
		r.Enum = vd.Enum()
	case protoreflect.MessageKind, protoreflect.GroupKind:
		r.Kind = plan.MessageRule
		r.WellKnown = plan.WellKnownOf(vd.Message().FullName())
		if r.WellKnown == plan.NotWellKnown {
			r.Message = plan.NewLink(c.lib, vd.Message())
		}
	default:
		r.Kind = plan.ScalarRule
	}

	if err := c.bind(r); err != nil {
		return c.fail(fd, err)
	}
	return nil
}

// bind selects the codec for a rule.
func (c *compiler) bind(r *plan.Rule) error {
	codec := c.Backend.SelectCodec(r)
	if codec == nil {
		return &vm.SchemaError{
			Message: c.md.FullName(),
			Err:     fmt.Errorf("%w: no codec for %v", vm.ErrInvalidSchema, r),
		}
	}
	r.Codec = *codec
	return nil
}

func (c *compiler) fail(fd protoreflect.FieldDescriptor, err error) error {
	if se, ok := err.(*vm.SchemaError); ok { //nolint:errorlint
		se.Field = fd.FullName()
		return se
	}
	return &vm.SchemaError{Message: c.md.FullName(), Field: fd.FullName(), Err: err}
}

func (c *compiler) log(op, format string, args ...any) {
	debug.Log([]any{"%s", c.md.FullName()}, op, format, args...)
}

// quote pre-encodes an object key.
func quote(name string) []byte {
	b, err := json.MarshalNoEscape(name)
	debug.Assert(err == nil, "quoting %q: %v", name, err)
	return b
}

// Graph returns the edges of the message graph: the message types of each
// field, including map values.
func Graph(md protoreflect.MessageDescriptor) iter.Seq[protoreflect.MessageDescriptor] {
	return func(yield func(protoreflect.MessageDescriptor) bool) {
		fields := md.Fields()
		for i := range fields.Len() {
			if m := fieldMessage(fields.Get(i)); m != nil && !yield(m) {
				return
			}
		}
	}
}

func fieldMessage(fd protoreflect.FieldDescriptor) protoreflect.MessageDescriptor {
	if fd.IsMap() {
		return fd.MapValue().Message()
	}
	return fd.Message()
}

// isRecursive returns whether md can reach itself through its fields.
func isRecursive(md protoreflect.MessageDescriptor) bool {
	return scc.Sort(md, Graph).ForNode(md).Cyclic()
}
