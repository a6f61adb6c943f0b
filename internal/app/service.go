// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/keepsake/internal/adapters/persist"
	"github.com/okian/keepsake/internal/adapters/repository"
	"github.com/okian/keepsake/internal/domain/dedupe"
	"github.com/okian/keepsake/internal/domain/model"
	"github.com/okian/keepsake/internal/domain/pool"
	"github.com/okian/keepsake/internal/domain/session"
	"github.com/okian/keepsake/pkg/logger"
	"github.com/okian/keepsake/pkg/metrics"
)

// Service implements the API dependencies for the curation system.
//
// Sessions live in the in-memory store and are the source of truth.
// Every mutation pushes a deep copy onto the snapshot queue; a writer
// pool drains it into the badger store so restarts recover state.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine    *session.Engine
	sessions  *repository.MemStore
	snapshots *repository.SnapshotStore
	queue     *persist.InMemoryQueue
	writers   *persist.Pool
	deduper   dedupe.Deduper

	// Writers run on a context owned by the service, not the caller's.
	// Canceling the startup context must not kill the writers before
	// Stop has drained the queue to disk.
	writerCancel context.CancelFunc

	// Per-album locks serialize all access to a session. The store hands
	// out the live pointer, so readers clone under the same lock that
	// writers mutate under.
	albumLocks sync.Map

	// Configuration
	dataDir     string
	queueSize   int
	writerCount int
	dedupeSize  int
	shardCount  int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// stopFlushTimeout bounds how long Stop waits for queued snapshots to
// reach the store.
const stopFlushTimeout = 10 * time.Second

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine sets the session engine used for all albums.
func WithEngine(e *session.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithDataDir sets the snapshot store directory. Empty keeps snapshots
// in memory only.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithSnapshotQueueSize sets the maximum size of the snapshot queue.
func WithSnapshotQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWriterCount sets the number of snapshot writer goroutines.
func WithWriterCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.writerCount = count
		}
	}
}

// WithDedupeSize sets the size of the choice deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of shards in the session store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:   10_000,
		writerCount: runtime.NumCPU() * 2,
		dedupeSize:  100_000,
		shardCount:  16,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.engine == nil {
		s.engine = session.NewEngine()
	}

	s.logger.Info(ctx, "starting curation service...")

	s.sessions = repository.NewMemStore(
		repository.WithShardCount(s.shardCount),
	)
	s.deduper = dedupe.New(
		dedupe.WithMaxSize(s.dedupeSize),
	)

	snapshots, err := repository.OpenSnapshotStore(s.dataDir)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	s.snapshots = snapshots

	// Warm start: rehydrate the working set from disk.
	restored, err := s.snapshots.LoadAll(ctx)
	if err != nil {
		_ = s.snapshots.Close()
		return fmt.Errorf("warm start: %w", err)
	}
	for _, sess := range restored {
		_ = s.sessions.Put(ctx, sess)
	}

	s.queue = persist.NewInMemoryQueue(
		persist.WithCapacity(s.queueSize),
		persist.WithBufferSize(s.queueSize),
	)
	s.writers = persist.NewPool(s.writerCount, s.queue, s.snapshots)
	writerCtx, writerCancel := context.WithCancel(context.Background())
	s.writerCancel = writerCancel
	s.writers.Start(writerCtx)

	metrics.UpdateActiveSessions(len(restored))

	s.started = true
	s.logger.Info(ctx, "curation service started",
		logger.Int("restoredSessions", len(restored)),
		logger.Int("writers", s.writerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("dataDir", s.dataDir),
	)

	return nil
}

// Stop gracefully shuts down the service. Queued snapshots are drained
// to disk before the store closes.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping curation service...")

	// Close the queue, wait until the writers have drained it, and only
	// then tear down their context and close the store.
	if s.queue != nil {
		_ = s.queue.Close()
		flushCtx, cancel := context.WithTimeout(ctx, stopFlushTimeout)
		if err := s.queue.Flush(flushCtx); err != nil {
			s.logger.Warn(ctx, "snapshot queue did not drain before shutdown", logger.Error(err))
		}
		cancel()
	}
	if s.writers != nil {
		_ = s.writers.Shutdown(ctx)
	}
	if s.writerCancel != nil {
		s.writerCancel()
		s.writerCancel = nil
	}
	if s.snapshots != nil {
		_ = s.snapshots.Close()
	}

	s.started = false
	s.logger.Info(ctx, "curation service stopped")
}

// albumLock returns the mutex serializing access to one album.
func (s *Service) albumLock(albumID string) *sync.Mutex {
	v, _ := s.albumLocks.LoadOrStore(albumID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// snapshot pushes a deep copy of the session onto the persistence queue.
// A full queue drops the snapshot; the next mutation will carry the
// album's latest state anyway.
func (s *Service) snapshot(ctx context.Context, sess *model.Session) {
	if !s.queue.Enqueue(ctx, sess.Clone()) {
		s.logger.Warn(ctx, "snapshot queue full, dropping snapshot",
			logger.String("albumID", sess.AlbumID),
		)
	}
}

// CreateSession starts a curation session for an album.
func (s *Service) CreateSession(ctx context.Context, albumID string, seeds []session.ClusterSeed, images []model.Image) (*model.Session, error) {
	lock := s.albumLock(albumID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.sessions.Get(ctx, albumID); err == nil {
		return nil, fmt.Errorf("album %q: %w", albumID, repository.ErrAlreadyExists)
	}

	sess := s.engine.NewSession(albumID, seeds, images)
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	s.snapshot(ctx, sess)

	metrics.RecordSessionCreated()
	if n, err := s.sessions.Count(ctx); err == nil {
		metrics.UpdateActiveSessions(n)
	}
	if sess.Done {
		metrics.RecordSessionCompleted(sess.StopReason)
	}

	s.logger.Info(ctx, "session created",
		logger.String("albumID", albumID),
		logger.Int("clusters", len(sess.Clusters)),
		logger.Int("images", len(images)),
	)

	return sess.Clone(), nil
}

// Session returns the current state for an album.
func (s *Service) Session(ctx context.Context, albumID string) (*model.Session, error) {
	lock := s.albumLock(albumID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// NextMatch returns the next matchup to present, or nil when the
// session is finished.
func (s *Service) NextMatch(ctx context.Context, albumID string) (*model.Matchup, *model.Session, error) {
	lock := s.albumLock(albumID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, albumID)
	if err != nil {
		return nil, nil, err
	}

	match, ok := s.engine.NextMatch(sess)
	if !ok {
		return nil, sess.Clone(), nil
	}
	metrics.RecordMatchupServed(match.Reason)
	return &match, sess.Clone(), nil
}

// SubmitChoice applies a contest outcome. The returned bool reports a
// duplicate replay recognized by its choice id.
func (s *Service) SubmitChoice(ctx context.Context, albumID string, leftID, rightID, winnerID int, choiceID string) (*model.Session, bool, error) {
	lock := s.albumLock(albumID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, albumID)
	if err != nil {
		return nil, false, err
	}

	if choiceID != "" && s.deduper.SeenAndRecord(ctx, albumID+"/"+choiceID) {
		metrics.RecordChoiceDuplicate()
		return sess.Clone(), true, nil
	}

	start := time.Now()
	wasDone := sess.Done
	if err := s.engine.SubmitChoice(sess, leftID, rightID, winnerID); err != nil {
		if choiceID != "" {
			s.deduper.Unrecord(ctx, albumID+"/"+choiceID)
		}
		if errors.Is(err, session.ErrInvalidContest) {
			metrics.RecordChoiceInvalid()
		}
		return nil, false, err
	}
	metrics.RecordChoiceRecorded()
	metrics.RecordChoiceLatency(float64(time.Since(start).Milliseconds()))

	if !wasDone && sess.Done {
		metrics.RecordSessionCompleted(sess.StopReason)
		s.logger.Info(ctx, "session finished",
			logger.String("albumID", albumID),
			logger.String("stopReason", sess.StopReason),
			logger.Int("totalMatches", sess.TotalMatches),
		)
	}

	s.snapshot(ctx, sess)
	return sess.Clone(), false, nil
}

// FinalPool derives the accepted and rejected image sets for an album.
func (s *Service) FinalPool(ctx context.Context, albumID string) (pool.Result, error) {
	lock := s.albumLock(albumID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, albumID)
	if err != nil {
		return pool.Result{}, err
	}
	return pool.Derive(sess), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"writerCount": s.writerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		if n, err := s.sessions.Count(ctx); err == nil {
			stats["totalSessions"] = n
			metrics.UpdateActiveSessions(n)
		}
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
	}

	return stats
}
