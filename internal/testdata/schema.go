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

package testdata

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Package is the proto package of the test schema.
const Package = "hyperjson.test"

//go:embed test.proto
var schema string

// Registry holds the test schema, compiled from source at run time.
//
// Every message in it is a [dynamicpb] type; well-known types and anything
// else not in the schema fall back to [protoregistry.GlobalTypes].
type Registry struct {
	Files *protoregistry.Files
	Types *protoregistry.Types
}

var load = sync.OnceValues(func() (*Registry, error) {
	parser := protoparse.Parser{
		Accessor:     protoparse.FileContentsFromMap(map[string]string{"test.proto": schema}),
		LookupImport: desc.LoadFileDescriptor,
	}
	fds, err := parser.ParseFiles("test.proto")
	if err != nil {
		return nil, err
	}

	r := &Registry{
		Files: new(protoregistry.Files),
		Types: new(protoregistry.Types),
	}
	for _, fd := range fds {
		file := fd.UnwrapFile()
		if err := r.Files.RegisterFile(file); err != nil {
			return nil, err
		}
		if err := r.register(file.Messages(), file.Enums()); err != nil {
			return nil, err
		}
	}
	return r, nil
})

// Load returns the test schema.
func Load() (*Registry, error) {
	return load()
}

func (r *Registry) register(msgs protoreflect.MessageDescriptors, enums protoreflect.EnumDescriptors) error {
	for i := range enums.Len() {
		if err := r.Types.RegisterEnum(dynamicpb.NewEnumType(enums.Get(i))); err != nil {
			return err
		}
	}
	for i := range msgs.Len() {
		md := msgs.Get(i)
		if md.IsMapEntry() {
			continue
		}
		if err := r.Types.RegisterMessage(dynamicpb.NewMessageType(md)); err != nil {
			return err
		}
		if err := r.register(md.Messages(), md.Enums()); err != nil {
			return err
		}
	}
	return nil
}

// Find looks up a message type by name, either in the test schema or in
// the global registry.
func (r *Registry) Find(name protoreflect.FullName) (protoreflect.MessageType, error) {
	return r.FindMessageByName(name)
}

// New returns a new message of the named type.
func (r *Registry) New(name protoreflect.FullName) (proto.Message, error) {
	mt, err := r.Find(name)
	if err != nil {
		return nil, fmt.Errorf("testdata: %w", err)
	}
	return mt.New().Interface(), nil
}

// FindMessageByName implements [protoregistry.MessageTypeResolver].
func (r *Registry) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error) {
	mt, err := r.Types.FindMessageByName(name)
	if errors.Is(err, protoregistry.NotFound) {
		return protoregistry.GlobalTypes.FindMessageByName(name)
	}
	return mt, err
}

// FindMessageByURL implements [protoregistry.MessageTypeResolver].
func (r *Registry) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	mt, err := r.Types.FindMessageByURL(url)
	if errors.Is(err, protoregistry.NotFound) {
		return protoregistry.GlobalTypes.FindMessageByURL(url)
	}
	return mt, err
}

// FindExtensionByName implements [protoregistry.ExtensionTypeResolver].
func (r *Registry) FindExtensionByName(field protoreflect.FullName) (protoreflect.ExtensionType, error) {
	return protoregistry.GlobalTypes.FindExtensionByName(field)
}

// FindExtensionByNumber implements [protoregistry.ExtensionTypeResolver].
func (r *Registry) FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	return protoregistry.GlobalTypes.FindExtensionByNumber(message, field)
}
