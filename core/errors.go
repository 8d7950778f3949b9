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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidMeeting indicates a Meeting failed validation.
	ErrInvalidMeeting = errors.New("invalid meeting")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyVideoID indicates the VideoID field is empty.
	ErrEmptyVideoID = errors.New("video id cannot be empty")

	// ErrEmptyChunkText indicates a chunk has no text.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrInvalidStatus indicates an unknown MeetingStatus value.
	ErrInvalidStatus = errors.New("invalid meeting status")

	// ErrInvalidTransition indicates a status edge outside the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidVersion indicates a non-positive version number.
	ErrInvalidVersion = errors.New("version must be a positive integer")
)
