package badger

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Key prefixes for different data types
const (
	meetingPrefix     = "meeting"
	meetingDatePrefix = "meetingd"
	versionPrefix     = "meetver"
	chunkGenPrefix    = "chunkgen"
	chunkPrefix       = "chunk"
)

// makeMeetingKey generates a key for a meeting by video id.
func makeMeetingKey(videoID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", meetingPrefix, videoID))
}

// makeMeetingDateKey generates a composite key for the meeting date index.
// Format: prefix:timestamp:videoID
func makeMeetingDateKey(date time.Time, videoID string) []byte {
	prefix := meetingDatePrefix + ":"
	buf := make([]byte, len(prefix)+8+len(videoID))
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	offset += 8
	copy(buf[offset:], videoID)
	return buf
}

// makeVersionKey generates a composite key for a recap snapshot.
// Format: prefix:videoID:version, with the version in BigEndian so
// lexicographic iteration walks versions in order.
func makeVersionKey(videoID string, version int) []byte {
	prefix := fmt.Sprintf("%s:%s:", versionPrefix, videoID)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(version))
	return buf
}

// makeVersionPrefix generates the iteration prefix for a meeting's snapshots.
func makeVersionPrefix(videoID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", versionPrefix, videoID))
}

// makeChunkGenKey generates the pointer key holding a meeting's active chunk
// generation. Flipping this single key is what publishes a new chunk set.
func makeChunkGenKey(videoID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chunkGenPrefix, videoID))
}

// makeChunkKey generates a key for one chunk within a generation.
// Format: prefix:videoID:generation:index, index in BigEndian for ordered
// iteration.
func makeChunkKey(videoID, generation string, index int) []byte {
	prefix := fmt.Sprintf("%s:%s:%s:", chunkPrefix, videoID, generation)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}

// makeChunkGenerationPrefix generates the iteration prefix for one
// generation's chunks.
func makeChunkGenerationPrefix(videoID, generation string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", chunkPrefix, videoID, generation))
}
