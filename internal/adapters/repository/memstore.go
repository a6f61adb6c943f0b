package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/okian/keepsake/internal/domain/model"
)

const defaultShardCount = 16

// MemStore is a sharded in-memory session store keyed by album ID.
// Each shard carries its own lock so sessions on different albums do not
// contend with each other.
type MemStore struct {
	shardCount int
	shards     []*memShard
}

type memShard struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemStore creates an in-memory store with the given options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*memShard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &memShard{sessions: make(map[string]*model.Session)}
	}
	return s
}

func (s *MemStore) shard(albumID string) *memShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(albumID))
	return s.shards[int(h.Sum32())&(s.shardCount-1)]
}

// Get returns the stored session for the album or ErrNotFound.
func (s *MemStore) Get(_ context.Context, albumID string) (*model.Session, error) {
	sh := s.shard(albumID)
	sh.mu.RLock()
	sess, ok := sh.sessions[albumID]
	sh.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Put stores or replaces the session for its album.
func (s *MemStore) Put(_ context.Context, sess *model.Session) error {
	sh := s.shard(sess.AlbumID)
	sh.mu.Lock()
	sh.sessions[sess.AlbumID] = sess
	sh.mu.Unlock()
	return nil
}

// Delete removes the session for the album if present.
func (s *MemStore) Delete(_ context.Context, albumID string) error {
	sh := s.shard(albumID)
	sh.mu.Lock()
	delete(sh.sessions, albumID)
	sh.mu.Unlock()
	return nil
}

// Count reports the number of stored sessions across all shards.
func (s *MemStore) Count(_ context.Context) (int, error) {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total, nil
}

// Range calls fn for every stored session until fn returns false.
// The iteration order is unspecified.
func (s *MemStore) Range(fn func(sess *model.Session) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, sess := range sh.sessions {
			if !fn(sess) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}
