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
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/jsonwire"
)

// ErrRecursionDepth is returned when messages nest deeper than the
// configured limit.
var ErrRecursionDepth = errors.New("hyperjson: exceeded maximum recursion depth")

// Causes wrapped by [MalformedValueError] and [SchemaError].
var (
	ErrNotIntegral   = errors.New("not an integer")
	ErrOutOfRange    = errors.New("value out of range")
	ErrBadNumber     = errors.New("invalid number")
	ErrBadBase64     = errors.New("invalid base64")
	ErrInvalidUTF8   = errors.New("invalid UTF-8")
	ErrUnknownEnum   = errors.New("unknown enum value")
	ErrBadMapKey     = errors.New("invalid map key")
	ErrDuplicateKey  = errors.New("duplicate map key")
	ErrNonFinite     = errors.New("non-finite number")
	ErrMissingType   = errors.New(`missing "@type"`)
	ErrMissingValue  = errors.New(`missing "value"`)
	ErrUnsetOneof    = errors.New("no member of the oneof is set")
	ErrBadTimestamp  = errors.New("invalid timestamp")
	ErrBadDuration   = errors.New("invalid duration")
	ErrBadFieldMask  = errors.New("invalid field mask path")
	ErrInvalidSchema = errors.New("unsupported descriptor")
)

// SchemaError is returned when a message type cannot be planned.
type SchemaError struct {
	Message protoreflect.FullName
	Field   protoreflect.FullName // Empty if the problem is not with a field.
	Err     error
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *SchemaError) Unwrap() error { return e.Err }

// Error implements [error].
func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("hyperjson: cannot plan %s: field %s: %v", e.Message, e.Field, e.Err)
	}
	return fmt.Sprintf("hyperjson: cannot plan %s: %v", e.Message, e.Err)
}

// UnknownFieldError is returned when a JSON key does not name a field.
type UnknownFieldError struct {
	Message protoreflect.FullName
	Key     string
}

// Error implements [error].
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("hyperjson: unknown field %q in %s", e.Key, e.Message)
}

// TypeMismatchError is returned when a JSON value has the wrong kind for
// its field.
type TypeMismatchError struct {
	Field protoreflect.FullName
	Want  string
	Got   jsonwire.Kind
}

// Error implements [error].
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("hyperjson: %s: expected %s, got %v", e.Field, e.Want, e.Got)
}

// OneofConflictError is returned when one JSON object sets two members of
// the same oneof.
type OneofConflictError struct {
	Oneof         protoreflect.FullName
	First, Second protoreflect.Name
}

// Error implements [error].
func (e *OneofConflictError) Error() string {
	return fmt.Sprintf("hyperjson: oneof %s is already set by %s, cannot set %s", e.Oneof, e.First, e.Second)
}

// MalformedValueError is returned when a value has the right JSON kind, but
// is not valid for its field.
type MalformedValueError struct {
	Field protoreflect.FullName
	Value string
	Err   error
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *MalformedValueError) Unwrap() error { return e.Err }

// Error implements [error].
func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("hyperjson: %s: invalid value %q: %v", e.Field, e.Value, e.Err)
}

// DuplicateFieldError is returned when a JSON object names a field twice,
// possibly under both of its names.
type DuplicateFieldError struct {
	Field protoreflect.FullName
}

// Error implements [error].
func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("hyperjson: field %s appears more than once", e.Field)
}

// SyntaxError is returned when the input is not valid JSON.
type SyntaxError struct {
	Err error
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *SyntaxError) Unwrap() error { return e.Err }

// Error implements [error].
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("hyperjson: syntax error: %v", e.Err)
}

// Mismatch builds a [TypeMismatchError].
func Mismatch(field protoreflect.FullName, want string, got jsonwire.Kind) error {
	return &TypeMismatchError{Field: field, Want: want, Got: got}
}

// Malformed builds a [MalformedValueError].
func Malformed(field protoreflect.FullName, value string, err error) error {
	return &MalformedValueError{Field: field, Value: value, Err: err}
}
