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

package vm

import (
	"encoding/base64"
	"unicode/utf8"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
	"buf.build/go/hyperjson/internal/sync2"
)

// Encoder is the state of the writer engine for one marshal call.
type Encoder struct {
	jsonwire.Writer
	Options

	depth   int
	owned   bool // The writer's buffer is scratch space owned by the pool.
	scratch []byte
}

var encoders = sync2.Pool[Encoder]{
	Reset: func(e *Encoder) {
		scratch := e.scratch
		if e.owned {
			scratch = e.Buffer()
		}
		if cap(scratch) > 64<<10 {
			scratch = nil
		}
		e.Release()
		*e = Encoder{Writer: e.Writer, scratch: scratch[:0]}
	},
}

// GetEncoder returns a pooled encoder and a function that returns it to the
// pool. The encoder must not be used after put is called.
//
// If buf is nil, output goes to scratch space that is recycled by put, so
// the caller must copy it out first. Otherwise output is appended to buf.
func GetEncoder(buf []byte, opts Options) (e *Encoder, put func()) {
	e, put = encoders.Get()
	e.owned = buf == nil
	if e.owned {
		buf = e.scratch[:0]
	}
	e.Writer.Reset(buf, opts.Indent)
	e.Options = opts
	return e, put
}

// Push enters a nested message.
func (e *Encoder) Push() error {
	e.depth++
	if e.depth > e.MaxDepth {
		return ErrRecursionDepth
	}
	return nil
}

// Pop leaves a nested message.
func (e *Encoder) Pop() { e.depth-- }

// Key writes the name of a field in the configured spelling.
func (e *Encoder) Key(json, proto []byte) {
	if e.ProtoNames {
		e.Name(proto)
	} else {
		e.Name(json)
	}
}

// StringValue writes a string value of field, which must be valid UTF-8.
func (e *Encoder) StringValue(field protoreflect.FullName, s string) error {
	if !utf8.ValidString(s) {
		return Malformed(field, s, ErrInvalidUTF8)
	}
	e.String(s)
	return nil
}

// KeyString writes an object key that came from the data of field, such as
// a map key, which must be valid UTF-8.
func (e *Encoder) KeyString(field protoreflect.FullName, s string) error {
	if !utf8.ValidString(s) {
		return Malformed(field, s, ErrInvalidUTF8)
	}
	e.NameString(s)
	return nil
}

// BytesValue writes b in the configured base64 alphabet.
func (e *Encoder) BytesValue(b []byte) {
	if e.URLSafeBytes {
		e.Base64(base64.URLEncoding, b)
	} else {
		e.Base64(base64.StdEncoding, b)
	}
}

// ScalarEncoder writes a scalar value. field names the field being written,
// for errors.
type ScalarEncoder func(e *Encoder, field protoreflect.FullName, v protoreflect.Value) error

// ScalarEncoderFor returns the encoder for a scalar kind, or nil if kind is
// not a scalar. Enums and messages are not scalars.
func ScalarEncoderFor(kind protoreflect.Kind) ScalarEncoder {
	switch kind {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return encodeInt32
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return encodeUint32
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return encodeInt64
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return encodeUint64
	case protoreflect.FloatKind:
		return encodeFloat
	case protoreflect.DoubleKind:
		return encodeDouble
	case protoreflect.BoolKind:
		return encodeBool
	case protoreflect.StringKind:
		return encodeString
	case protoreflect.BytesKind:
		return encodeBytes
	default:
		return nil
	}
}

func encodeInt32(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.Int(v.Int())
	return nil
}

func encodeUint32(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.Uint(v.Uint())
	return nil
}

func encodeInt64(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.QuotedInt(v.Int())
	return nil
}

func encodeUint64(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.QuotedUint(v.Uint())
	return nil
}

func encodeFloat(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.Float(v.Float(), 32)
	return nil
}

func encodeDouble(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.Float(v.Float(), 64)
	return nil
}

func encodeBool(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.Bool(v.Bool())
	return nil
}

func encodeString(e *Encoder, field protoreflect.FullName, v protoreflect.Value) error {
	return e.StringValue(field, v.String())
}

func encodeBytes(e *Encoder, _ protoreflect.FullName, v protoreflect.Value) error {
	e.BytesValue(v.Bytes())
	return nil
}
