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


package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const greetProto = `syntax = "proto3";

package greet.v1;

import "google/protobuf/duration.proto";

message Greeting {
  string text = 1;
  map<string, int32> counts = 2;
  google.protobuf.Duration ttl = 3;
  Kind kind = 4;
}

enum Kind {
  KIND_UNSPECIFIED = 0;
  KIND_LOUD = 1;
}
`

// schemaDir writes greet.proto to a fresh directory and returns it.
func schemaDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.proto"), []byte(greetProto), 0o600))
	return dir
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := schemaDir(t)

	tests := []struct {
		name  string
		files []string
		ok    bool
	}{
		{name: "found", files: []string{"greet.proto"}, ok: true},
		{name: "missing", files: []string{"nope.proto"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			files, err := load([]string{dir}, tt.files)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			d, err := files.FindDescriptorByName("greet.v1.Greeting")
			require.NoError(t, err)
			assert.IsType(t, protoreflect.MessageDescriptor(nil), d)

			// Imports are registered too.
			_, err = files.FindFileByPath("google/protobuf/duration.proto")
			require.NoError(t, err)
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := schemaDir(t)
	binary, err := hex.DecodeString("0a026869" + "2001")
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    []string
		in      []byte
		want    []byte
		wantErr string
	}{
		{
			name: "text-to-json",
			args: []string{"-from", "text", "-indent", "", "-sorted"},
			in:   []byte(`text: "hi" counts { key: "b" value: 2 } counts { key: "a" value: 1 } ttl { seconds: 90 }`),
			want: []byte(`{"text":"hi","counts":{"a":1,"b":2},"ttl":"90s"}` + "\n"),
		},
		{
			name: "binary-to-json",
			args: []string{"-indent", ""},
			in:   binary,
			want: []byte(`{"text":"hi","kind":"KIND_LOUD"}` + "\n"),
		},
		{
			name: "fractional-duration",
			args: []string{"-from", "text", "-indent", ""},
			in:   []byte(`ttl { nanos: 500000000 }`),
			want: []byte(`{"ttl":"0.500s"}` + "\n"),
		},
		{
			name: "json-to-binary",
			args: []string{"-from", "json", "-to", "binary"},
			in:   []byte(`{"text": "hi", "kind": "KIND_LOUD"}`),
			want: binary,
		},
		{
			name:    "unknown-key",
			args:    []string{"-from", "json"},
			in:      []byte(`{"nope": 1}`),
			wantErr: "nope",
		},
		{
			name: "discard-unknown",
			args: []string{"-from", "json", "-to", "binary", "-discard-unknown"},
			in:   []byte(`{"nope": 1, "kind": 1}`),
			want: []byte{0x20, 0x01},
		},
		{
			name:    "bad-format",
			args:    []string{"-to", "yaml"},
			wantErr: "yaml",
		},
		{
			name:    "no-type",
			args:    []string{"-I", dir, "greet.proto"},
			wantErr: "-type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := tt.args
			if !strings.HasPrefix(tt.name, "no-type") {
				args = append([]string{"-I", dir, "-type", "greet.v1.Greeting"}, args...)
				args = append(args, "greet.proto")
			}

			out := new(bytes.Buffer)
			err := run(args, bytes.NewReader(tt.in), out)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Bytes())
		})
	}
}
