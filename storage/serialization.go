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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/openclerk/openclerk/core"
)

// Records are stored in MUS format. The hand-written serializers below must
// marshal fields in the same order they unmarshal them; changing a record's
// field set is a breaking change to stored data.

// timeMUS encodes timestamps as Unix nanoseconds, normalized to UTC on read.
type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixNano(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	ns, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.Unix(0, ns).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixNano())
}

// stringSliceSer is a length-prefixed string list. Zero length unmarshals
// to nil so records round-trip exactly.
type stringSliceSer struct{}

func (stringSliceSer) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringSliceSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative slice length %d", length)
	}
	v = make([]string, length)
	var n1 int
	for i := range v {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (stringSliceSer) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

// vectorSer is a length-prefixed embedding vector with fixed-size elements.
type vectorSer struct{}

func (vectorSer) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorSer) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("negative vector length %d", length)
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vectorSer) Size(v []float32) int {
	return varint.Int.Size(len(v)) + 4*len(v)
}

var (
	timeMUS        = timeSer{}
	stringSliceMUS = stringSliceSer{}
	vectorMUS      = vectorSer{}
)

// recapSer serializes the recap sub-document field by field.
type recapSer struct{}

func (recapSer) Marshal(r core.Recap, bs []byte) (n int) {
	n = ord.String.Marshal(r.Summary, bs)
	n += ord.String.Marshal(r.Article, bs[n:])
	n += stringSliceMUS.Marshal(r.Topics, bs[n:])
	n += stringSliceMUS.Marshal(r.Decisions, bs[n:])
	n += stringSliceMUS.Marshal(r.PublicComments, bs[n:])
	return n
}

func (recapSer) Unmarshal(bs []byte) (r core.Recap, n int, err error) {
	var n1 int
	r.Summary, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	r.Article, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Topics, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Decisions, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.PublicComments, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (recapSer) Size(r core.Recap) (size int) {
	size = ord.String.Size(r.Summary)
	size += ord.String.Size(r.Article)
	size += stringSliceMUS.Size(r.Topics)
	size += stringSliceMUS.Size(r.Decisions)
	size += stringSliceMUS.Size(r.PublicComments)
	return size
}

// RecapMUS is the serializer for the recap sub-document.
var RecapMUS = recapSer{}

type meetingSer struct{}

func (meetingSer) Marshal(m core.Meeting, bs []byte) (n int) {
	n = ord.String.Marshal(m.VideoID, bs)
	n += ord.String.Marshal(m.Title, bs[n:])
	n += timeMUS.Marshal(m.MeetingDate, bs[n:])
	n += ord.String.Marshal(string(m.Status), bs[n:])
	n += varint.Int.Marshal(m.Version, bs[n:])
	n += ord.String.Marshal(m.Transcript, bs[n:])
	n += varint.Int.Marshal(m.ChunkCount, bs[n:])
	n += RecapMUS.Marshal(m.Recap, bs[n:])
	n += ord.String.Marshal(m.ErrorMessage, bs[n:])
	n += timeMUS.Marshal(m.CreatedAt, bs[n:])
	n += timeMUS.Marshal(m.UpdatedAt, bs[n:])
	return n
}

func (meetingSer) Unmarshal(bs []byte) (m core.Meeting, n int, err error) {
	var n1 int
	m.VideoID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	m.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.MeetingDate, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var status string
	status, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.Status = core.MeetingStatus(status)
	m.Version, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.Transcript, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.Recap, n1, err = RecapMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.ErrorMessage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (meetingSer) Size(m core.Meeting) (size int) {
	size = ord.String.Size(m.VideoID)
	size += ord.String.Size(m.Title)
	size += timeMUS.Size(m.MeetingDate)
	size += ord.String.Size(string(m.Status))
	size += varint.Int.Size(m.Version)
	size += ord.String.Size(m.Transcript)
	size += varint.Int.Size(m.ChunkCount)
	size += RecapMUS.Size(m.Recap)
	size += ord.String.Size(m.ErrorMessage)
	size += timeMUS.Size(m.CreatedAt)
	size += timeMUS.Size(m.UpdatedAt)
	return size
}

// MeetingMUS is the serializer for stored meeting records.
var MeetingMUS = meetingSer{}

type versionSer struct{}

func (versionSer) Marshal(v core.MeetingVersion, bs []byte) (n int) {
	n = ord.String.Marshal(v.VideoID, bs)
	n += varint.Int.Marshal(v.Version, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += RecapMUS.Marshal(v.Recap, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	return n
}

func (versionSer) Unmarshal(bs []byte) (v core.MeetingVersion, n int, err error) {
	var n1 int
	v.VideoID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Version, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Recap, n1, err = RecapMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (versionSer) Size(v core.MeetingVersion) (size int) {
	size = ord.String.Size(v.VideoID)
	size += varint.Int.Size(v.Version)
	size += ord.String.Size(v.Title)
	size += RecapMUS.Size(v.Recap)
	size += timeMUS.Size(v.CreatedAt)
	return size
}

// MeetingVersionMUS is the serializer for recap history snapshots.
var MeetingVersionMUS = versionSer{}

// chunkSer persists chunks including their embedding vectors, which the
// Chunk JSON shape served over the API omits.
type chunkSer struct{}

func (chunkSer) Marshal(c core.Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(c.Id), bs)
	n += ord.String.Marshal(c.VideoID, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	return n
}

func (chunkSer) Unmarshal(bs []byte) (c core.Chunk, n int, err error) {
	var n1 int
	var id uint64
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	c.Id = core.ID(id)
	c.VideoID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Index, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkSer) Size(c core.Chunk) (size int) {
	size = varint.Uint64.Size(uint64(c.Id))
	size += ord.String.Size(c.VideoID)
	size += varint.Int.Size(c.Index)
	size += ord.String.Size(c.Text)
	size += vectorMUS.Size(c.Vector)
	return size
}

// ChunkMUS is the serializer for stored chunks.
var ChunkMUS = chunkSer{}

// MarshalMeeting serializes a Meeting to bytes.
func MarshalMeeting(meeting *core.Meeting) ([]byte, error) {
	buf := make([]byte, MeetingMUS.Size(*meeting))
	MeetingMUS.Marshal(*meeting, buf)
	return buf, nil
}

// UnmarshalMeeting deserializes a Meeting from bytes.
func UnmarshalMeeting(data []byte) (*core.Meeting, error) {
	meeting, _, err := MeetingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: meeting: %w", ErrSerializationFailed, err)
	}
	return &meeting, nil
}

// MarshalVersion serializes a MeetingVersion to bytes.
func MarshalVersion(version *core.MeetingVersion) ([]byte, error) {
	buf := make([]byte, MeetingVersionMUS.Size(*version))
	MeetingVersionMUS.Marshal(*version, buf)
	return buf, nil
}

// UnmarshalVersion deserializes a MeetingVersion from bytes.
func UnmarshalVersion(data []byte) (*core.MeetingVersion, error) {
	version, _, err := MeetingVersionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrSerializationFailed, err)
	}
	return &version, nil
}

// MarshalChunk serializes a Chunk, including its embedding vector.
func MarshalChunk(chunk *core.Chunk) ([]byte, error) {
	buf := make([]byte, ChunkMUS.Size(*chunk))
	ChunkMUS.Marshal(*chunk, buf)
	return buf, nil
}

// UnmarshalChunk deserializes a Chunk, including its embedding vector.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}
