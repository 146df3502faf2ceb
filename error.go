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

package hyperjson

import (
	"errors"

	"buf.build/go/hyperjson/internal/plan/vm"
)

// Errors returned by this package. All of them can be matched with
// [errors.As].
type (
	// SchemaError is returned when a message type cannot be planned.
	SchemaError = vm.SchemaError
	// UnknownFieldError is returned when a JSON key does not name a field.
	UnknownFieldError = vm.UnknownFieldError
	// TypeMismatchError is returned when a JSON value has the wrong kind.
	TypeMismatchError = vm.TypeMismatchError
	// OneofConflictError is returned when two members of a oneof are set.
	OneofConflictError = vm.OneofConflictError
	// MalformedValueError is returned for values of the right kind that
	// are not valid for their field.
	MalformedValueError = vm.MalformedValueError
	// DuplicateFieldError is returned when a field appears twice.
	DuplicateFieldError = vm.DuplicateFieldError
	// SyntaxError is returned for input that is not a single JSON value.
	SyntaxError = vm.SyntaxError
)

// ErrRecursionDepth is returned when messages nest deeper than the limit set
// with [WithMaxDepth].
var ErrRecursionDepth = vm.ErrRecursionDepth

// Causes wrapped by [MalformedValueError] and [SchemaError], for use with
// [errors.Is].
var (
	ErrNotIntegral   = vm.ErrNotIntegral
	ErrOutOfRange    = vm.ErrOutOfRange
	ErrBadNumber     = vm.ErrBadNumber
	ErrBadBase64     = vm.ErrBadBase64
	ErrInvalidUTF8   = vm.ErrInvalidUTF8
	ErrUnknownEnum   = vm.ErrUnknownEnum
	ErrBadMapKey     = vm.ErrBadMapKey
	ErrDuplicateKey  = vm.ErrDuplicateKey
	ErrNonFinite     = vm.ErrNonFinite
	ErrMissingType   = vm.ErrMissingType
	ErrMissingValue  = vm.ErrMissingValue
	ErrUnsetOneof    = vm.ErrUnsetOneof
	ErrBadTimestamp  = vm.ErrBadTimestamp
	ErrBadDuration   = vm.ErrBadDuration
	ErrBadFieldMask  = vm.ErrBadFieldMask
	ErrInvalidSchema = vm.ErrInvalidSchema
)

var errTrailingData = errors.New("unexpected data after top-level value")
