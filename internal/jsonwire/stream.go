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

package jsonwire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// Stream is a [Source] over JSON text, backed by a [jsontext.Decoder].
//
// The decoder rejects malformed input, including strings that are not valid
// UTF-8. Repeated object keys are let through, since the reader reports
// them per field.
type Stream struct {
	dec  *jsontext.Decoder
	seen bool // At least one token was read.

	peeked bool
	tok    Token
	err    error
}

// NewStream returns a [Stream] reading from r.
func NewStream(r io.Reader) *Stream {
	return &Stream{dec: jsontext.NewDecoder(r, jsontext.AllowDuplicateNames(true))}
}

// NewBytes returns a [Stream] over b.
func NewBytes(b []byte) *Stream {
	return NewStream(bytes.NewReader(b))
}

// Peek implements [Source].
func (s *Stream) Peek() (Kind, error) {
	if !s.peeked {
		s.tok, s.err = s.read()
		s.peeked = true
	}
	return s.tok.Kind, s.err
}

// Next implements [Source].
func (s *Stream) Next() (Token, error) {
	if s.peeked {
		s.peeked = false
		return s.tok, s.err
	}
	return s.read()
}

func (s *Stream) read() (Token, error) {
	raw, err := s.dec.ReadToken()
	if errors.Is(err, io.EOF) {
		if !s.seen {
			return Token{}, ErrUnexpectedEOF
		}
		return Token{Kind: EOF}, nil
	}
	if err != nil {
		return Token{}, err
	}
	s.seen = true

	switch raw.Kind() {
	case '{':
		return Token{Kind: ObjectStart}, nil
	case '}':
		return Token{Kind: ObjectEnd}, nil
	case '[':
		return Token{Kind: ArrayStart}, nil
	case ']':
		return Token{Kind: ArrayEnd}, nil
	case '"':
		// Inside an object, names and values alternate, so an odd count
		// means the string just read was a name.
		if kind, n := s.dec.StackIndex(s.dec.StackDepth()); kind == '{' && n%2 == 1 {
			return Token{Kind: Name, Text: raw.String()}, nil
		}
		return Token{Kind: String, Text: raw.String()}, nil
	case '0':
		// The number's original spelling, so integers are parsed exactly.
		return Token{Kind: Number, Text: raw.String()}, nil
	case 't', 'f':
		return Token{Kind: Bool, Bool: raw.Bool()}, nil
	case 'n':
		return Token{Kind: Null}, nil
	}
	return Token{}, fmt.Errorf("unexpected token %v", raw.Kind())
}
