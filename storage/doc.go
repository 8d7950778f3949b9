// Copyright 2026 OpenClerk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for openclerk.
//
// This package defines repository interfaces that decouple storage
// implementation from pipeline logic. It allows different storage backends
// (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// Three repositories cover the pipeline's persisted state:
//
//   - MeetingRepository owns the Meeting record and its status lifecycle.
//     All status transitions go through it, and it is the sole serialization
//     point for concurrent trigger attempts on the same video id.
//   - VersionRepository owns the append-only recap history and restore.
//   - ChunkRepository owns the searchable chunk corpus. A meeting's chunk
//     set is only ever replaced as a complete unit; readers never observe a
//     mix of old and new chunks.
//
// Constructors in backend packages return these interfaces rather than
// concrete types to prevent accidental coupling to backend specifics.
package storage
