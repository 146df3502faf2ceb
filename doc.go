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

// Package hyperjson converts Protobuf messages to and from the canonical
// proto3 JSON mapping, using plans compiled once per message type.
//
// To use this package, construct a [Cache] with [NewCache] and ask it for a
// [Marshaller] for a message descriptor. The first request for a descriptor
// plans it, which walks the descriptor once; every later request for the
// same descriptor reuses that plan. Marshallers work with any
// [proto.Message] of the same type, generated or dynamic. A message whose
// descriptor is a different copy of the same type is planned separately.
//
//	cache := hyperjson.NewCache()
//	data, err := cache.Marshal(msg, hyperjson.WithCompact())
//
// # Support Status
//
// The output and accepted input follow the proto3 JSON mapping, including
// all of the well-known types. The following are not supported:
//
//   - Extensions. Extension fields are neither written nor read.
//   - Required field checking. Unmarshaling never fails due to missing
//     proto2 required fields.
//
// Unlike [protojson], a JSON null is only accepted where it means something:
// for message fields, for google.protobuf.Value, and for
// google.protobuf.NullValue. [WithLenientNulls] accepts it everywhere.
package hyperjson
