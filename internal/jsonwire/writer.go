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
	"encoding/base64"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

var errBadIndent = errors.New("indent may only contain spaces and tabs")

// Writer is a push-style JSON emitter over a [jsontext.Encoder], appending
// to a byte slice.
//
// The writing methods do not return errors. The first error, such as a
// string that is not valid UTF-8, is kept and reported by [Writer.Err], and
// everything written after it is dropped. An empty indent produces compact
// output, otherwise every member and element goes on its own line.
type Writer struct {
	out *bytes.Buffer
	enc *jsontext.Encoder
	err error
}

// Reset discards any state and starts a new document, which is appended to
// buf.
func (w *Writer) Reset(buf []byte, indent string) {
	w.out = bytes.NewBuffer(buf)
	w.err = nil

	// Field names are unique by construction, so the encoder need not track
	// them.
	opts := []jsontext.Options{jsontext.AllowDuplicateNames(true)}
	switch {
	case indent == "":
	case strings.Trim(indent, " \t") != "":
		w.err = errBadIndent
	default:
		opts = append(opts, jsontext.Multiline(true), jsontext.WithIndent(indent))
	}

	if w.enc == nil {
		w.enc = jsontext.NewEncoder(w.out, opts...)
	} else {
		w.enc.Reset(w.out, opts...)
	}
}

// Release drops the references to the current output, keeping the encoder
// for the next [Writer.Reset].
func (w *Writer) Release() {
	if w.enc != nil {
		w.enc.Reset(io.Discard)
	}
	w.out, w.err = nil, nil
}

// Err returns the first error encountered while writing.
func (w *Writer) Err() error {
	return w.err
}

// Buffer returns the output, including whatever buf was passed to
// [Writer.Reset].
func (w *Writer) Buffer() []byte {
	if w.out == nil {
		return nil
	}
	// The encoder ends every complete top-level value with a newline.
	b := w.out.Bytes()
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	return b
}

// BeginObject writes {.
func (w *Writer) BeginObject() { w.token(jsontext.BeginObject) }

// EndObject writes }.
func (w *Writer) EndObject() { w.token(jsontext.EndObject) }

// BeginArray writes [.
func (w *Writer) BeginArray() { w.token(jsontext.BeginArray) }

// EndArray writes ].
func (w *Writer) EndArray() { w.token(jsontext.EndArray) }

// Name writes an object key that is already quoted.
func (w *Writer) Name(quoted []byte) {
	if w.err == nil {
		w.err = w.enc.WriteValue(jsontext.Value(quoted))
	}
}

// NameString writes an object key.
func (w *Writer) NameString(name string) { w.token(jsontext.String(name)) }

// String writes a string.
func (w *Writer) String(s string) { w.token(jsontext.String(s)) }

// Base64 writes b as a base64 string in the given alphabet.
func (w *Writer) Base64(enc *base64.Encoding, b []byte) {
	w.token(jsontext.String(enc.EncodeToString(b)))
}

// Int writes an integer.
func (w *Writer) Int(n int64) { w.token(jsontext.Int(n)) }

// Uint writes an unsigned integer.
func (w *Writer) Uint(n uint64) { w.token(jsontext.Uint(n)) }

// QuotedInt writes an integer as a string, for values that may not fit in a
// double.
func (w *Writer) QuotedInt(n int64) { w.token(jsontext.String(strconv.FormatInt(n, 10))) }

// QuotedUint writes an unsigned integer as a string.
func (w *Writer) QuotedUint(n uint64) { w.token(jsontext.String(strconv.FormatUint(n, 10))) }

// Float writes a float of the given bit size with the shortest spelling
// that round-trips. NaN and the infinities are written as the strings
// "NaN", "Infinity" and "-Infinity".
func (w *Writer) Float(f float64, bits int) {
	switch {
	case math.IsNaN(f):
		w.token(jsontext.String("NaN"))
	case math.IsInf(f, 1):
		w.token(jsontext.String("Infinity"))
	case math.IsInf(f, -1):
		w.token(jsontext.String("-Infinity"))
	case bits == 32:
		// jsontext only formats doubles; the marshaler knows float32.
		if w.err == nil {
			w.err = json.MarshalEncode(w.enc, float32(f))
		}
	default:
		w.token(jsontext.Float(f))
	}
}

// Bool writes true or false.
func (w *Writer) Bool(b bool) {
	if b {
		w.token(jsontext.True)
	} else {
		w.token(jsontext.False)
	}
}

// Null writes null.
func (w *Writer) Null() { w.token(jsontext.Null) }

func (w *Writer) token(t jsontext.Token) {
	if w.err == nil {
		w.err = w.enc.WriteToken(t)
	}
}
