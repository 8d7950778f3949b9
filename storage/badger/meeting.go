package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/openclerk/openclerk/core"
	"github.com/openclerk/openclerk/storage"
)

// MeetingRepository implements storage.MeetingRepository for BadgerDB.
type MeetingRepository struct {
	backend *Backend
}

var _ storage.MeetingRepository = (*MeetingRepository)(nil)

// NewMeetingRepository creates a new MeetingRepository.
func NewMeetingRepository(backend *Backend) (storage.MeetingRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &MeetingRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns all resources.
func (r *MeetingRepository) Close() error {
	return nil
}

// PutMeeting inserts or updates a meeting record.
func (r *MeetingRepository) PutMeeting(ctx context.Context, meeting *core.Meeting) (*core.Meeting, error) {
	if meeting.Version == 0 {
		meeting.Version = 1
	}
	if meeting.Status == "" {
		meeting.Status = core.StatusPending
	}
	if err := core.ValidateMeeting(meeting); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMeetingKey(meeting.VideoID)
		old, err := readMeeting(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old == nil {
			meeting.CreatedAt = now
		} else {
			meeting.CreatedAt = old.CreatedAt
		}
		meeting.UpdatedAt = now

		if err := writeMeeting(tx, meeting); err != nil {
			return err
		}
		if err := updateDateIndex(tx, old, meeting); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// GetMeeting retrieves a meeting by video id.
func (r *MeetingRepository) GetMeeting(ctx context.Context, videoID string) (*core.Meeting, error) {
	var meeting *core.Meeting
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		meeting, err = readMeeting(tx, makeMeetingKey(videoID))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, storage.ErrNotFound
	}
	return meeting, nil
}

// RecentMeetings retrieves up to limit meetings ordered by meeting date descending.
func (r *MeetingRepository) RecentMeetings(ctx context.Context, limit int) ([]*core.Meeting, error) {
	var meetings []*core.Meeting
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(meetingDatePrefix + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration needs a seek key past the end of the prefix range.
		seek := append([]byte(meetingDatePrefix+":"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid() && len(meetings) < limit; iter.Next() {
			var videoID string
			err := iter.Item().Value(func(val []byte) error {
				videoID = string(val)
				return nil
			})
			if err != nil {
				return err
			}
			meeting, err := readMeeting(tx, makeMeetingKey(videoID))
			if err != nil {
				return err
			}
			if meeting != nil {
				meetings = append(meetings, meeting)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

// Stats aggregates counts by status and the latest meeting date.
func (r *MeetingRepository) Stats(ctx context.Context) (*core.MeetingStats, error) {
	stats := &core.MeetingStats{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(meetingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var meeting *core.Meeting
			err := iter.Item().Value(func(val []byte) error {
				var err error
				meeting, err = storage.UnmarshalMeeting(val)
				return err
			})
			if err != nil {
				return err
			}

			stats.TotalMeetings++
			switch meeting.Status {
			case core.StatusCompleted:
				stats.CompletedCount++
			case core.StatusFailed:
				stats.FailedCount++
			case core.StatusNoCaptions:
				stats.NoCaptionsCount++
			case core.StatusPending, core.StatusProcessing:
				stats.PendingCount++
			}
			if meeting.MeetingDate.After(stats.LatestMeetingDate) {
				stats.LatestMeetingDate = meeting.MeetingDate
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// BeginProcessing atomically claims a meeting for a new run.
// The meeting row's status is the sole serialization point across
// concurrent triggers: a conflicting commit means another trigger claimed
// the meeting first, which is reported as ErrAlreadyProcessing.
func (r *MeetingRepository) BeginProcessing(ctx context.Context, videoID, title string, meetingDate time.Time, staleAfter time.Duration) (*core.Meeting, error) {
	if videoID == "" {
		return nil, core.ErrEmptyVideoID
	}

	var claimed *core.Meeting
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMeetingKey(videoID)
		old, err := readMeeting(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var meeting *core.Meeting
		if old == nil {
			meeting = &core.Meeting{
				VideoID:     videoID,
				Title:       title,
				MeetingDate: meetingDate,
				Status:      core.StatusProcessing,
				Version:     1,
				CreatedAt:   now,
			}
		} else {
			if old.Status == core.StatusProcessing && now.Sub(old.UpdatedAt) <= staleAfter {
				return storage.ErrAlreadyProcessing
			}
			meeting = old
			meeting.Status = core.StatusProcessing
			if meeting.Title == "" {
				meeting.Title = title
			}
			if meeting.MeetingDate.IsZero() {
				meeting.MeetingDate = meetingDate
			}
		}
		meeting.UpdatedAt = now

		if err := writeMeeting(tx, meeting); err != nil {
			return err
		}
		if err := updateDateIndex(tx, old, meeting); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			if errors.Is(err, badger.ErrConflict) {
				return storage.ErrAlreadyProcessing
			}
			return err
		}
		claimed = meeting
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// CompleteRun finishes a successful run, snapshotting any recap content the
// run overwrites before bumping the version.
func (r *MeetingRepository) CompleteRun(ctx context.Context, videoID string, update storage.RunUpdate) (*core.Meeting, error) {
	var completed *core.Meeting
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		meeting, err := readMeeting(tx, makeMeetingKey(videoID))
		if err != nil {
			return err
		}
		if meeting == nil {
			return storage.ErrNotFound
		}
		if meeting.Status != core.StatusProcessing {
			return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, meeting.Status, core.StatusCompleted)
		}

		now := time.Now().UTC()
		if meeting.HasRecap() {
			if err := writeSnapshot(tx, meeting, now); err != nil {
				return err
			}
			meeting.Version++
		}

		if update.Transcript != "" {
			meeting.Transcript = update.Transcript
		}
		if update.ChunkCount >= 0 {
			meeting.ChunkCount = update.ChunkCount
		}
		meeting.Recap = update.Recap
		meeting.Status = core.StatusCompleted
		meeting.ErrorMessage = ""
		meeting.UpdatedAt = now

		if err := writeMeeting(tx, meeting); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		completed = meeting
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// MarkFailed moves a processing meeting to failed with a message.
func (r *MeetingRepository) MarkFailed(ctx context.Context, videoID, message string) error {
	return r.markTerminal(videoID, core.StatusFailed, message)
}

// MarkNoCaptions moves a processing meeting to no_captions.
func (r *MeetingRepository) MarkNoCaptions(ctx context.Context, videoID string) error {
	return r.markTerminal(videoID, core.StatusNoCaptions, "")
}

func (r *MeetingRepository) markTerminal(videoID string, status core.MeetingStatus, message string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		meeting, err := readMeeting(tx, makeMeetingKey(videoID))
		if err != nil {
			return err
		}
		if meeting == nil {
			return storage.ErrNotFound
		}
		if !core.CanTransition(meeting.Status, status) {
			return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, meeting.Status, status)
		}

		meeting.Status = status
		meeting.ErrorMessage = message
		meeting.UpdatedAt = time.Now().UTC()

		if err := writeMeeting(tx, meeting); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readMeeting reads a meeting by key. Returns nil without error when the
// key is absent.
func readMeeting(tx *badger.Txn, key []byte) (*core.Meeting, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var meeting *core.Meeting
	err = item.Value(func(val []byte) error {
		meeting, err = storage.UnmarshalMeeting(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

func writeMeeting(tx *badger.Txn, meeting *core.Meeting) error {
	value, err := storage.MarshalMeeting(meeting)
	if err != nil {
		return err
	}
	return tx.Set(makeMeetingKey(meeting.VideoID), value)
}

// writeSnapshot appends the meeting's current recap content as an immutable
// MeetingVersion row at the meeting's current version.
func writeSnapshot(tx *badger.Txn, meeting *core.Meeting, now time.Time) error {
	snapshot := &core.MeetingVersion{
		VideoID:   meeting.VideoID,
		Version:   meeting.Version,
		Title:     meeting.Title,
		Recap:     meeting.Recap,
		CreatedAt: now,
	}
	value, err := storage.MarshalVersion(snapshot)
	if err != nil {
		return err
	}
	return tx.Set(makeVersionKey(meeting.VideoID, meeting.Version), value)
}

// updateDateIndex keeps the meeting date index in sync with the record.
func updateDateIndex(tx *badger.Txn, old, meeting *core.Meeting) error {
	newDate := indexDate(meeting)
	if old != nil {
		oldDate := indexDate(old)
		if oldDate.Equal(newDate) {
			return nil
		}
		if err := tx.Delete(makeMeetingDateKey(oldDate, old.VideoID)); err != nil {
			return err
		}
	}
	return tx.Set(makeMeetingDateKey(newDate, meeting.VideoID), []byte(meeting.VideoID))
}

// indexDate picks the timestamp meetings sort by: the meeting date when
// known, otherwise when we first saw the video.
func indexDate(meeting *core.Meeting) time.Time {
	if !meeting.MeetingDate.IsZero() {
		return meeting.MeetingDate
	}
	return meeting.CreatedAt
}
