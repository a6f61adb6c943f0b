package persist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/keepsake/internal/adapters/persist"
	"github.com/okian/keepsake/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeStore records every Put it receives.
type fakeStore struct {
	mu     sync.Mutex
	puts   []string
	failOn string
}

func (f *fakeStore) Put(_ context.Context, sess *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && sess.AlbumID == f.failOn {
		return errors.New("store unavailable")
	}
	f.puts = append(f.puts, sess.AlbumID)
	return nil
}

func (f *fakeStore) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.puts))
	copy(out, f.puts)
	return out
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWriter(t *testing.T) {
	Convey("Given a writer on a live queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := persist.NewInMemoryQueue(persist.WithCapacity(16), persist.WithBufferSize(16))
		store := &fakeStore{}
		w := persist.NewWriter(q, store, persist.WithName("writer-test"))

		go w.Run(ctx)

		Convey("When snapshots are enqueued", func() {
			So(q.Enqueue(ctx, snapshot("album-1")), ShouldBeTrue)
			So(q.Enqueue(ctx, snapshot("album-2")), ShouldBeTrue)

			Convey("Then they reach the store", func() {
				ok := waitFor(2*time.Second, func() bool {
					return len(store.written()) == 2
				})
				So(ok, ShouldBeTrue)
				So(store.written(), ShouldContain, "album-1")
				So(store.written(), ShouldContain, "album-2")
			})
		})

		Convey("When the store rejects one snapshot", func() {
			store.failOn = "album-bad"
			So(q.Enqueue(ctx, snapshot("album-bad")), ShouldBeTrue)
			So(q.Enqueue(ctx, snapshot("album-good")), ShouldBeTrue)

			Convey("Then the writer keeps going", func() {
				ok := waitFor(2*time.Second, func() bool {
					return len(store.written()) == 1
				})
				So(ok, ShouldBeTrue)
				So(store.written(), ShouldContain, "album-good")
			})
		})

		Convey("When the writer is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(ctx, time.Second)
			defer shutdownCancel()

			Convey("Then Shutdown returns promptly", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a writer pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := persist.NewInMemoryQueue(persist.WithCapacity(128), persist.WithBufferSize(128))
		store := &fakeStore{}
		pool := persist.NewPool(4, q, store)

		pool.Start(ctx)

		Convey("When many snapshots are enqueued", func() {
			for i := 0; i < 50; i++ {
				So(q.Enqueue(ctx, snapshot("album-1")), ShouldBeTrue)
			}

			Convey("Then the pool drains all of them", func() {
				ok := waitFor(3*time.Second, func() bool {
					return len(store.written()) == 50
				})
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the pool is shut down", func() {
			So(q.Enqueue(ctx, snapshot("album-1")), ShouldBeTrue)

			Convey("Then Shutdown closes the queue and drains it", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				ok := waitFor(2*time.Second, func() bool {
					return len(store.written()) == 1
				})
				So(ok, ShouldBeTrue)
			})
		})
	})
}
