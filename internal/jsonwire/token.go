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

// Package jsonwire contains the token-level JSON plumbing used by the
// engines: a push-style [Writer] and a pull-style [Source].
package jsonwire

import (
	"errors"
	"fmt"
	"io"
)

// Kind is the kind of a [Token].
type Kind uint8

const (
	Invalid Kind = iota
	ObjectStart
	ObjectEnd
	ArrayStart
	ArrayEnd
	Name
	String
	Number
	Bool
	Null
	EOF
)

var kindNames = [...]string{
	Invalid:     "invalid token",
	ObjectStart: "object",
	ObjectEnd:   "end of object",
	ArrayStart:  "array",
	ArrayEnd:    "end of array",
	Name:        "object key",
	String:      "string",
	Number:      "number",
	Bool:        "bool",
	Null:        "null",
	EOF:         "end of input",
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single JSON token.
//
// Text holds the decoded text of a [Name] or [String], and the literal
// spelling of a [Number].
type Token struct {
	Kind Kind
	Text string
	Bool bool
}

// Source is a pull-style JSON token reader.
type Source interface {
	// Peek returns the kind of the next token without consuming it.
	Peek() (Kind, error)
	// Next consumes and returns the next token. At the end of the input it
	// returns a token of kind [EOF].
	Next() (Token, error)
}

// ErrUnexpectedEOF is returned when the input ends inside a value.
var ErrUnexpectedEOF = io.ErrUnexpectedEOF

var errNotValue = errors.New("expected a value")

// Skip consumes exactly one value from src.
func Skip(src Source) error {
	depth := 0
	for {
		tok, err := src.Next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case ObjectStart, ArrayStart:
			depth++
		case ObjectEnd, ArrayEnd:
			depth--
		case Name:
			continue
		case EOF:
			return ErrUnexpectedEOF
		}
		if depth <= 0 {
			if depth < 0 {
				return errNotValue
			}
			return nil
		}
	}
}

// Capture consumes exactly one value from src and returns its tokens.
//
// Nesting deeper than maxDepth fails with [ErrTooDeep].
func Capture(src Source, maxDepth int) ([]Token, error) {
	var (
		toks  []Token
		depth int
	)
	for {
		tok, err := src.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		switch tok.Kind {
		case ObjectStart, ArrayStart:
			depth++
			if depth > maxDepth {
				return nil, ErrTooDeep
			}
		case ObjectEnd, ArrayEnd:
			depth--
		case Name:
			continue
		case EOF:
			return nil, ErrUnexpectedEOF
		}
		if depth <= 0 {
			if depth < 0 {
				return nil, errNotValue
			}
			return toks, nil
		}
	}
}

// ErrTooDeep is returned by [Capture] when a value nests too deeply.
var ErrTooDeep = errors.New("exceeded maximum nesting depth")
