package badger

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/storage"
)

// writeBatchSize bounds the number of chunk writes per transaction so a
// long transcript never exceeds badger's transaction size limit.
const writeBatchSize = 64

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
//
// Chunks are stored under per-run generations. A pointer key per meeting
// names the active generation; readers resolve the pointer first, so a set
// only becomes visible once the pointer flips. A crash mid-write leaves the
// pointer on the complete prior generation.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &ChunkRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns all resources.
func (r *ChunkRepository) Close() error {
	return nil
}

// ReplaceChunks atomically replaces a meeting's chunk set.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, videoID string, chunks []*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}

	generation := uuid.NewString()

	// Write the new generation in batches. It is invisible until the
	// pointer flips, so splitting across transactions is safe.
	for start := 0; start < len(chunks); start += writeBatchSize {
		end := min(start+writeBatchSize, len(chunks))
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, chunk := range chunks[start:end] {
				value, err := storage.MarshalChunk(chunk)
				if err != nil {
					return err
				}
				if err := tx.Set(makeChunkKey(videoID, generation, chunk.Index), value); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}

	// Publish the new set and learn which generation it replaced.
	var previous string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkGenKey(videoID)
		item, err := tx.Get(key)
		if err == nil {
			err = item.Value(func(val []byte) error {
				previous = string(val)
				return nil
			})
			if err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, []byte(generation)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	// The prior generation is unreachable now; removing it is cleanup, not
	// correctness, so failures are ignored.
	if previous != "" {
		_ = r.dropGeneration(videoID, previous)
	}
	return nil
}

// ActiveChunks retrieves the currently visible chunk set for a meeting,
// ordered by index.
func (r *ChunkRepository) ActiveChunks(ctx context.Context, videoID string) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		generation, err := activeGeneration(tx, videoID)
		if err != nil || generation == "" {
			return err
		}
		return iterateGeneration(tx, videoID, generation, func(chunk *core.Chunk) {
			chunks = append(chunks, chunk)
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// FindSimilar finds chunks similar to the given vector across all meetings.
// Only active generations are searched.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkGenPrefix + ":")
		genIter := tx.NewIterator(opts)
		defer genIter.Close()

		type activeSet struct{ videoID, generation string }
		var sets []activeSet
		for genIter.Rewind(); genIter.Valid(); genIter.Next() {
			item := genIter.Item()
			videoID := string(item.Key()[len(chunkGenPrefix)+1:])
			var generation string
			err := item.Value(func(val []byte) error {
				generation = string(val)
				return nil
			})
			if err != nil {
				return err
			}
			sets = append(sets, activeSet{videoID: videoID, generation: generation})
		}

		for _, set := range sets {
			err := iterateGeneration(tx, set.videoID, set.generation, func(chunk *core.Chunk) {
				if len(chunk.Vector) == 0 {
					return
				}
				// Cosine similarity (dot product for normalized vectors)
				similarity := dotProduct(vector, chunk.Vector)
				if similarity >= minSimilarity {
					results = append(results, &core.SearchResult{Chunk: chunk, Score: similarity})
				}
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// dropGeneration deletes all chunk keys of an unpublished generation.
func (r *ChunkRepository) dropGeneration(videoID, generation string) error {
	var keys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeChunkGenerationPrefix(videoID, generation)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for start := 0; start < len(keys); start += writeBatchSize {
		end := min(start+writeBatchSize, len(keys))
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, key := range keys[start:end] {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// activeGeneration resolves the pointer key. Returns "" when no set has
// been published for the meeting.
func activeGeneration(tx *badger.Txn, videoID string) (string, error) {
	item, err := tx.Get(makeChunkGenKey(videoID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	var generation string
	err = item.Value(func(val []byte) error {
		generation = string(val)
		return nil
	})
	return generation, err
}

// iterateGeneration walks one generation's chunks in index order.
func iterateGeneration(tx *badger.Txn, videoID, generation string, fn func(*core.Chunk)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkGenerationPrefix(videoID, generation)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var chunk *core.Chunk
		err := iter.Item().Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return err
		}
		fn(chunk)
	}
	return nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
