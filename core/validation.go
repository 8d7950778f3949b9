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

import "fmt"

// ValidateMeeting validates a Meeting according to domain rules.
//
// Validation rules:
//   - VideoID must not be empty
//   - Status must be a known lifecycle value
//   - Version must be positive
//
// NOT validated (populated by the pipeline):
//   - Transcript, ChunkCount, Recap (empty until the relevant stage runs)
//   - ErrorMessage (only set on failed runs)
func ValidateMeeting(meeting *Meeting) error {
	if meeting == nil {
		return fmt.Errorf("%w: meeting is nil", ErrInvalidMeeting)
	}

	if meeting.VideoID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMeeting, ErrEmptyVideoID)
	}

	if err := ValidateStatus(meeting.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMeeting, err)
	}

	if meeting.Version < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidMeeting, ErrInvalidVersion)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - VideoID must not be empty
//   - Text must not be empty
//   - Index must not be negative
//
// NOT validated:
//   - Vector (empty until the embedding stage runs)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.VideoID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyVideoID)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: index %d", ErrInvalidChunk, chunk.Index)
	}

	return nil
}

// ValidateStatus validates that a MeetingStatus has a known value.
func ValidateStatus(status MeetingStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusNoCaptions:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}
