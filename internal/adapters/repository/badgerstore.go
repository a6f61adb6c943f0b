package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/okian/keepsake/internal/domain/model"
	"github.com/okian/keepsake/pkg/metrics"
)

const sessionKeyPrefix = "session/"

// SnapshotStore persists session snapshots in a badger database.
// It backs the in-memory store with durability and warm-start recovery.
type SnapshotStore struct {
	db     *badger.DB
	closed atomic.Bool
}

// OpenSnapshotStore opens (or creates) a badger database at dir.
// An empty dir opens an in-memory database, which is useful in tests.
func OpenSnapshotStore(dir string) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

func sessionKey(albumID string) []byte {
	return []byte(sessionKeyPrefix + albumID)
}

// Get loads the snapshot for the album or returns ErrNotFound.
func (s *SnapshotStore) Get(_ context.Context, albumID string) (*model.Session, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var sess model.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(albumID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", albumID, err)
	}
	return &sess, nil
}

// Put writes the session snapshot under its album key.
func (s *SnapshotStore) Put(_ context.Context, sess *model.Session) error {
	if s.closed.Load() {
		return ErrClosed
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", sess.AlbumID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(sess.AlbumID), data)
	})
	if err != nil {
		metrics.RecordSnapshotWriteError()
		return fmt.Errorf("write session %q: %w", sess.AlbumID, err)
	}
	return nil
}

// Delete removes the snapshot for the album. Missing keys are not an error.
func (s *SnapshotStore) Delete(_ context.Context, albumID string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(albumID))
	})
	if err != nil {
		return fmt.Errorf("delete session %q: %w", albumID, err)
	}
	return nil
}

// Count reports the number of stored snapshots.
func (s *SnapshotStore) Count(_ context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// LoadAll decodes every stored snapshot. It is used on startup to warm the
// in-memory store.
func (s *SnapshotStore) LoadAll(_ context.Context) ([]*model.Session, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var sessions []*model.Session
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var sess model.Session
				if err := json.Unmarshal(val, &sess); err != nil {
					return err
				}
				sessions = append(sessions, &sess)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}

// Close flushes and closes the underlying database.
func (s *SnapshotStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close snapshot store: %w", err)
	}
	return nil
}
