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
package compiler

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/hyperjson/internal/debug"
	"buf.build/go/hyperjson/internal/plan"
	"buf.build/go/hyperjson/internal/scc"
)

// Preload plans md and every message type reachable from it, and resolves
// every link between them.
//
// Types are planned dependencies first, so that by the time a type is
// returned, nothing it refers to can fail to plan.
func Preload(lib *plan.Library, md protoreflect.MessageDescriptor) (*plan.Type, error) {
	dag := scc.Sort(md, Graph)
	debug.Log([]any{"%s", md.FullName()}, "preload", "%d components", dag.Len())

	for comp := range dag.Topological() {
		for _, m := range comp.Members() {
			ty, err := lib.Load(m)
			if err != nil {
				return nil, err
			}
			for _, link := range ty.Links {
				if _, err := link.Type(); err != nil {
					return nil, err
				}
			}
		}
	}
	return lib.Load(md)
}
