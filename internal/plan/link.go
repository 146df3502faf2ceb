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
package plan

import (
	"sync/atomic"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Link is a reference to the plan of a nested message type.
//
// Links are resolved on first use, so that planning a type never requires
// planning the types it refers to. This is what allows recursive types.
type Link struct {
	Library    *Library
	Descriptor protoreflect.MessageDescriptor

	ty atomic.Pointer[Type]
}

// NewLink returns an unresolved link to md.
func NewLink(lib *Library, md protoreflect.MessageDescriptor) *Link {
	return &Link{Library: lib, Descriptor: md}
}

// Type resolves the link.
func (l *Link) Type() (*Type, error) {
	if ty := l.ty.Load(); ty != nil {
		return ty, nil
	}
	ty, err := l.Library.Load(l.Descriptor)
	if err != nil {
		return nil, err
	}
	l.ty.Store(ty)
	return ty, nil
}

// Resolved returns whether the link has been resolved.
func (l *Link) Resolved() bool {
	return l.ty.Load() != nil
}
