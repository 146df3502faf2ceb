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


// jsonconv converts messages between the binary, text and JSON formats,
// using a schema compiled from .proto files at run time.
//
// Usage:
//
//	jsonconv -I proto -type foo.v1.Bar [-from binary] [-to json] foo/v1/bar.proto < in > out
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"buf.build/go/hyperjson"
)

// load compiles the named files and everything they import.
func load(paths []string, files []string) (*protoregistry.Files, error) {
	parser := protoparse.Parser{
		ImportPaths:  paths,
		LookupImport: desc.LoadFileDescriptor,
	}
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, err
	}

	reg := new(protoregistry.Files)
	var register func(*desc.FileDescriptor) error
	register = func(fd *desc.FileDescriptor) error {
		if _, err := reg.FindFileByPath(fd.GetName()); err == nil {
			return nil
		}
		for _, dep := range fd.GetDependencies() {
			if err := register(dep); err != nil {
				return err
			}
		}
		return reg.RegisterFile(fd.UnwrapFile())
	}
	for _, fd := range fds {
		if err := register(fd); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// run is the whole program, minus the process boundary.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("jsonconv", flag.ContinueOnError)
	var (
		imports    = flags.String("I", ".", "comma-separated import paths")
		typeName   = flags.String("type", "", "full name of the message type; must be set")
		from       = flags.String("from", "binary", "input format: binary, text or json")
		to         = flags.String("to", "json", "output format: binary, text or json")
		indent     = flags.String("indent", "  ", "JSON indentation; empty for compact output")
		protoNames = flags.Bool("proto-names", false, "write declared field names instead of JSON names")
		sorted     = flags.Bool("sorted", false, "sort map keys in JSON output")
		discard    = flags.Bool("discard-unknown", false, "skip unknown JSON keys")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *typeName == "" || flags.NArg() == 0 {
		return errors.New("must set -type and name at least one .proto file")
	}

	files, err := load(strings.Split(*imports, ","), flags.Args())
	if err != nil {
		return err
	}
	d, err := files.FindDescriptorByName(protoreflect.FullName(*typeName))
	if err != nil {
		return err
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return fmt.Errorf("%s is not a message", *typeName)
	}

	types := dynamicpb.NewTypes(files)
	cache := hyperjson.NewCache(
		hyperjson.WithTypes(types),
		hyperjson.WithDefaults(
			hyperjson.WithIndent(*indent),
			hyperjson.WithProtoNames(*protoNames),
			hyperjson.WithSortedMapKeys(*sorted),
			hyperjson.WithDiscardUnknown(*discard),
		),
	)
	codec, err := cache.For(md)
	if err != nil {
		return err
	}

	in, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	msg := dynamicpb.NewMessage(md)
	switch *from {
	case "binary":
		err = proto.UnmarshalOptions{Resolver: types}.Unmarshal(in, msg)
	case "text":
		err = prototext.UnmarshalOptions{Resolver: types}.Unmarshal(in, msg)
	case "json":
		err = codec.Unmarshal(in, msg)
	default:
		err = fmt.Errorf("unknown input format %q", *from)
	}
	if err != nil {
		return err
	}

	var out []byte
	switch *to {
	case "binary":
		out, err = proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	case "text":
		out, err = prototext.MarshalOptions{Multiline: true, Resolver: types}.Marshal(msg)
	case "json":
		out, err = codec.MarshalAppend(nil, msg)
		out = append(out, '\n')
	default:
		err = fmt.Errorf("unknown output format %q", *to)
	}
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
