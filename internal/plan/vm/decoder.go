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
	"errors"
	"math"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
)

// Decoder is the state of the reader engine for one unmarshal call.
//
// A Decoder may be copied to run a nested decode over a different source,
// which is how captured values are replayed.
type Decoder struct {
	Src jsonwire.Source
	Options

	depth int
}

// NewDecoder returns a decoder over src.
func NewDecoder(src jsonwire.Source, opts Options) *Decoder {
	return &Decoder{Src: src, Options: opts}
}

// WithSource returns a copy of d that reads from src.
func (d *Decoder) WithSource(src jsonwire.Source) *Decoder {
	sub := *d
	sub.Src = src
	return &sub
}

// Next consumes the next token.
func (d *Decoder) Next() (jsonwire.Token, error) {
	tok, err := d.Src.Next()
	if err != nil {
		return tok, &SyntaxError{Err: err}
	}
	return tok, nil
}

// Peek returns the kind of the next token.
func (d *Decoder) Peek() (jsonwire.Kind, error) {
	k, err := d.Src.Peek()
	if err != nil {
		return k, &SyntaxError{Err: err}
	}
	return k, nil
}

// Skip consumes one value.
func (d *Decoder) Skip() error {
	if err := jsonwire.Skip(d.Src); err != nil {
		return &SyntaxError{Err: err}
	}
	return nil
}

// Capture consumes one value and returns its tokens.
func (d *Decoder) Capture() ([]jsonwire.Token, error) {
	toks, err := jsonwire.Capture(d.Src, d.MaxDepth-d.depth)
	if errors.Is(err, jsonwire.ErrTooDeep) {
		return nil, ErrRecursionDepth
	}
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}
	return toks, nil
}

// Push enters a nested message.
func (d *Decoder) Push() error {
	d.depth++
	if d.depth > d.MaxDepth {
		return ErrRecursionDepth
	}
	return nil
}

// Pop leaves a nested message.
func (d *Decoder) Pop() { d.depth-- }

// Expect consumes a token of kind want, failing with a
// [TypeMismatchError] naming field otherwise.
func (d *Decoder) Expect(field protoreflect.FullName, want jsonwire.Kind) (jsonwire.Token, error) {
	tok, err := d.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != want {
		return tok, Mismatch(field, want.String(), tok.Kind)
	}
	return tok, nil
}

// ScalarDecoder parses a scalar value from the next token. field names the
// field being parsed, for errors.
type ScalarDecoder func(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error)

// ScalarDecoderFor returns the decoder for a scalar kind, or nil if kind is
// not a scalar.
func ScalarDecoderFor(kind protoreflect.Kind) ScalarDecoder {
	switch kind {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return decodeInt32
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return decodeUint32
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return decodeInt64
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return decodeUint64
	case protoreflect.FloatKind:
		return decodeFloat
	case protoreflect.DoubleKind:
		return decodeDouble
	case protoreflect.BoolKind:
		return decodeBool
	case protoreflect.StringKind:
		return decodeString
	case protoreflect.BytesKind:
		return decodeBytes
	default:
		return nil
	}
}

// numeric consumes a token that may hold a number: a JSON number, or a
// string containing one.
func (d *Decoder) numeric(field protoreflect.FullName) (jsonwire.Token, error) {
	tok, err := d.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != jsonwire.Number && tok.Kind != jsonwire.String {
		return tok, Mismatch(field, "number", tok.Kind)
	}
	return tok, nil
}

func decodeInt32(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.numeric(field)
	if err != nil {
		return protoreflect.Value{}, err
	}
	n, err := ParseInt(tok.Text, 32)
	if err != nil {
		return protoreflect.Value{}, Malformed(field, tok.Text, err)
	}
	return protoreflect.ValueOfInt32(int32(n)), nil
}

func decodeUint32(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.numeric(field)
	if err != nil {
		return protoreflect.Value{}, err
	}
	n, err := ParseUint(tok.Text, 32)
	if err != nil {
		return protoreflect.Value{}, Malformed(field, tok.Text, err)
	}
	return protoreflect.ValueOfUint32(uint32(n)), nil
}

func decodeInt64(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.numeric(field)
	if err != nil {
		return protoreflect.Value{}, err
	}
	n, err := ParseInt(tok.Text, 64)
	if err != nil {
		return protoreflect.Value{}, Malformed(field, tok.Text, err)
	}
	return protoreflect.ValueOfInt64(n), nil
}

func decodeUint64(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.numeric(field)
	if err != nil {
		return protoreflect.Value{}, err
	}
	n, err := ParseUint(tok.Text, 64)
	if err != nil {
		return protoreflect.Value{}, Malformed(field, tok.Text, err)
	}
	return protoreflect.ValueOfUint64(n), nil
}

func decodeFloat(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.numeric(field)
	if err != nil {
		return protoreflect.Value{}, err
	}
	f, err := ParseFloat(tok.Text, tok.Kind == jsonwire.String, 32)
	if err != nil {
		return protoreflect.Value{}, Malformed(field, tok.Text, err)
	}
	return protoreflect.ValueOfFloat32(float32(f)), nil
}

func decodeDouble(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.numeric(field)
	if err != nil {
		return protoreflect.Value{}, err
	}
	f, err := ParseFloat(tok.Text, tok.Kind == jsonwire.String, 64)
	if err != nil {
		return protoreflect.Value{}, Malformed(field, tok.Text, err)
	}
	return protoreflect.ValueOfFloat64(f), nil
}

func decodeBool(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.Expect(field, jsonwire.Bool)
	if err != nil {
		return protoreflect.Value{}, err
	}
	return protoreflect.ValueOfBool(tok.Bool), nil
}

func decodeString(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.Expect(field, jsonwire.String)
	if err != nil {
		return protoreflect.Value{}, err
	}
	return protoreflect.ValueOfString(tok.Text), nil
}

func decodeBytes(d *Decoder, field protoreflect.FullName) (protoreflect.Value, error) {
	tok, err := d.Expect(field, jsonwire.String)
	if err != nil {
		return protoreflect.Value{}, err
	}
	b, err := ParseBytes(tok.Text)
	if err != nil {
		return protoreflect.Value{}, Malformed(field, tok.Text, err)
	}
	return protoreflect.ValueOfBytes(b), nil
}

// EnumNumber parses the numeric form of an enum value.
func EnumNumber(text string) (protoreflect.EnumNumber, error) {
	n, err := ParseInt(text, 32)
	if err != nil {
		return 0, err
	}
	return protoreflect.EnumNumber(n), nil
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
