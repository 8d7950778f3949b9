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


// Package search provides semantic search over the meeting chunk corpus.
//
// The Searcher embeds a query, ranks chunks by vector similarity, and
// applies a verbatim keyword boost when every significant query word appears
// in a chunk. Only each meeting's currently active chunk set is searched, so
// results never mix chunks from superseded runs.
package search
