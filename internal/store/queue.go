package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/model"
)

// Enqueue appends a pending remote operation to the sync queue. The sequence
// id is the FIFO position; replay must preserve it because later updates and
// deletes depend on earlier adds having landed remotely.
func (s *Store) Enqueue(op model.SyncOp) (model.SyncQueueEntry, error) {
	entry, err := model.NewSyncQueueEntry(op, time.Now().UTC())
	if err != nil {
		return model.SyncQueueEntry{}, err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSyncQueue)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		entry.ID = seq

		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode queue entry: %w", err)
		}
		return b.Put(itob(seq), value)
	})
	if err != nil {
		return model.SyncQueueEntry{}, apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return entry, nil
}

// ListPending returns the unsynced entries in enqueue order.
func (s *Store) ListPending() ([]model.SyncQueueEntry, error) {
	entries := []model.SyncQueueEntry{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSyncQueue).ForEach(func(_, value []byte) error {
			var entry model.SyncQueueEntry
			if err := json.Unmarshal(value, &entry); err != nil {
				return fmt.Errorf("decode queue entry: %w", err)
			}
			if !entry.Synced {
				entries = append(entries, entry)
			}
			return nil
		})
	})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return entries, nil
}

// PendingCount reports how many entries await replay.
func (s *Store) PendingCount() (int, error) {
	entries, err := s.ListPending()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// RemoveFromQueue deletes a replayed entry. Removing an absent id succeeds.
func (s *Store) RemoveFromQueue(entryID uint64) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSyncQueue).Delete(itob(entryID))
	})
	if err != nil {
		return apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return nil
}
