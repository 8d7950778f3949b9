package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/storage"
)

// VersionRepository implements storage.VersionRepository for BadgerDB.
type VersionRepository struct {
	backend *Backend
}

var _ storage.VersionRepository = (*VersionRepository)(nil)

// NewVersionRepository creates a new VersionRepository.
func NewVersionRepository(backend *Backend) (storage.VersionRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &VersionRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns all resources.
func (r *VersionRepository) Close() error {
	return nil
}

// ListVersions retrieves all snapshots for a meeting, newest first.
func (r *VersionRepository) ListVersions(ctx context.Context, videoID string) ([]*core.MeetingVersion, error) {
	var versions []*core.MeetingVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeVersionPrefix(videoID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration needs a seek key past the end of the prefix range.
		seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			var version *core.MeetingVersion
			err := iter.Item().Value(func(val []byte) error {
				var err error
				version, err = storage.UnmarshalVersion(val)
				return err
			})
			if err != nil {
				return err
			}
			versions = append(versions, version)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// GetVersion retrieves one snapshot.
func (r *VersionRepository) GetVersion(ctx context.Context, videoID string, version int) (*core.MeetingVersion, error) {
	var snapshot *core.MeetingVersion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		snapshot, err = readVersion(tx, videoID, version)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, storage.ErrVersionNotFound
	}
	return snapshot, nil
}

// Restore makes a prior snapshot the meeting's current recap. The recap
// being replaced is snapshotted at the meeting's current version before
// being overwritten, so every restore is itself reversible. Existing
// history rows are never touched.
func (r *VersionRepository) Restore(ctx context.Context, videoID string, version int) (*core.Meeting, error) {
	var restored *core.Meeting
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		meeting, err := readMeeting(tx, makeMeetingKey(videoID))
		if err != nil {
			return err
		}
		if meeting == nil {
			return storage.ErrNotFound
		}

		target, err := readVersion(tx, videoID, version)
		if err != nil {
			return err
		}
		if target == nil {
			return storage.ErrVersionNotFound
		}

		now := time.Now().UTC()
		if err := writeSnapshot(tx, meeting, now); err != nil {
			return err
		}

		meeting.Recap = target.Recap
		meeting.Version++
		meeting.UpdatedAt = now

		if err := writeMeeting(tx, meeting); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		restored = meeting
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// readVersion reads a snapshot by key. Returns nil without error when the
// key is absent.
func readVersion(tx *badger.Txn, videoID string, version int) (*core.MeetingVersion, error) {
	item, err := tx.Get(makeVersionKey(videoID, version))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var snapshot *core.MeetingVersion
	err = item.Value(func(val []byte) error {
		snapshot, err = storage.UnmarshalVersion(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
