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

// Package testdata contains the test schema and the golden test corpus.
package testdata

import (
	"bytes"
	"embed"
	"encoding/hex"
	"errors"
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"gopkg.in/yaml.v3"

	"buf.build/go/hyperjson/internal/debug"
	"buf.build/go/hyperjson/internal/plan/vm"
)

//go:embed corpus
var corpus embed.FS

// TestCase is a test case from the test data corpus.
type TestCase struct {
	Name string `yaml:"-"`

	TypeName string                   `yaml:"type"`
	Type     protoreflect.MessageType `yaml:"-"`

	// Three ways to encode the message: hex, textproto, and protoscope.
	Hex        []string `yaml:"hex"`
	TextProto  []string `yaml:"textproto"`
	Protoscope []string `yaml:"protoscope"`

	Specimens []proto.Message `yaml:"-"`

	// The compact output for every specimen, with default options.
	JSON string `yaml:"json"`
	// Other inputs that must decode to the same message as JSON.
	Accept []string `yaml:"accept"`
	// Inputs that must be rejected.
	Reject []Rejection `yaml:"reject"`
}

// Rejection is an input that must fail to decode with the named kind of
// error. See [MatchError] for the names.
//
// Inputs that YAML cannot spell, such as invalid UTF-8, are given in hex and
// decoded into Input when the test is loaded.
type Rejection struct {
	Input string `yaml:"input"`
	Hex   string `yaml:"hex"`
	Error string `yaml:"error"`
}

// RunAll runs all of the test cases in the corpus.
func RunAll(t *testing.T, f func(*testing.T, *TestCase)) {
	t.Helper()

	reg, err := Load()
	require.NoError(t, err)

	err = fs.WalkDir(corpus, ".", func(file string, d fs.DirEntry, err error) error {
		require.NoError(t, err, "loading test %q", file)
		if d.IsDir() || path.Ext(file) != ".yaml" {
			return nil
		}

		t.Run(strings.TrimPrefix(file, "corpus/"), func(t *testing.T) {
			t.Parallel()

			data, err := fs.ReadFile(corpus, file)
			require.NoError(t, err, "loading test %q", file)

			test := parseTestCase(t, reg, file, data)
			f(t, test)
		})
		return nil
	})
	require.NoError(t, err)
}

var stripSpace = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "")

// parseTestCase parses a single test case from the given data.
//
// This will call t.FailNow() if parsing fails.
func parseTestCase(t testing.TB, reg *Registry, file string, data []byte) *TestCase {
	t.Helper()
	defer debug.WithTesting(t)()

	require.True(t, bytes.HasSuffix(data, []byte("\n")), "missing trailing newline in %q", file)

	test := new(TestCase)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	require.NoError(t, dec.Decode(test), "loading test %q", file)

	test.Name = strings.TrimPrefix(file, "corpus/")
	var err error
	test.Type, err = reg.Find(protoreflect.FullName(test.TypeName))
	require.NoError(t, err, "loading type %q", test.TypeName)

	fromBinary := func(b []byte) {
		m := test.Type.New().Interface()
		require.NoError(t, proto.Unmarshal(b, m), "loading test %q", file)
		test.Specimens = append(test.Specimens, m)
	}

	for _, raw := range test.Hex {
		b, err := hex.DecodeString(stripSpace.Replace(raw))
		require.NoError(t, err, "loading test %q", file)
		fromBinary(b)
	}

	for i := range test.Reject {
		reject := &test.Reject[i]
		if reject.Hex == "" {
			continue
		}
		require.Empty(t, reject.Input, "reject %d in %q has both input and hex", i, file)
		b, err := hex.DecodeString(stripSpace.Replace(reject.Hex))
		require.NoError(t, err, "loading test %q", file)
		reject.Input = string(b)
	}

	for _, raw := range test.TextProto {
		m := test.Type.New().Interface()
		err := prototext.UnmarshalOptions{Resolver: reg}.Unmarshal([]byte(raw), m)
		require.NoError(t, err, "loading test %q", file)
		test.Specimens = append(test.Specimens, m)
	}

	for _, raw := range test.Protoscope {
		b, err := protoscope.NewScanner(raw).Exec()
		require.NoError(t, err, "loading test %q", file)
		fromBinary(b)
	}

	return test
}

// MatchError asserts that err is the named kind of error:
//
//   - schema, unknown, mismatch, conflict, malformed, duplicate, syntax:
//     the error types of the same names.
//   - depth: the recursion limit.
func MatchError(t testing.TB, kind string, err error) bool {
	t.Helper()

	var ok bool
	switch kind {
	case "schema":
		ok = errors.As(err, new(*vm.SchemaError))
	case "unknown":
		ok = errors.As(err, new(*vm.UnknownFieldError))
	case "mismatch":
		ok = errors.As(err, new(*vm.TypeMismatchError))
	case "conflict":
		ok = errors.As(err, new(*vm.OneofConflictError))
	case "malformed":
		ok = errors.As(err, new(*vm.MalformedValueError))
	case "duplicate":
		ok = errors.As(err, new(*vm.DuplicateFieldError))
	case "syntax":
		ok = errors.As(err, new(*vm.SyntaxError))
	case "depth":
		ok = errors.Is(err, vm.ErrRecursionDepth)
	default:
		t.Fatalf("unknown error kind %q", kind)
	}
	return assert.True(t, ok, "want %s error, got %T: %v", kind, err, err)
}
