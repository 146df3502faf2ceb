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

import "buf.build/go/hyperjson/internal/plan"

// Archetype represents a class of fields that are visited the same way when
// writing and reading an object: singular, optional, oneof member, repeated
// or map.
//
// The value itself is converted by the field's [plan.Rule]; an archetype
// only decides whether the field appears and how its values are iterated.
type Archetype struct {
	Name string // For debugging.

	Encode plan.FieldEncoder
	Decode plan.FieldDecoder
}
