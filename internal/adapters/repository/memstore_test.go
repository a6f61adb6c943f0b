package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/keepsake/internal/adapters/repository"
	"github.com/okian/keepsake/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newSession(albumID string) *model.Session {
	return &model.Session{
		AlbumID: albumID,
		Clusters: []model.Cluster{
			{ClusterID: 1, Size: 3, Elo: 1000},
			{ClusterID: 2, Size: 2, Elo: 1000},
		},
	}
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory store", t, func() {
		store := repository.NewMemStore()

		Convey("When fetching a missing album", func() {
			_, err := store.Get(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When storing and fetching a session", func() {
			So(store.Put(ctx, newSession("album-1")), ShouldBeNil)
			got, err := store.Get(ctx, "album-1")

			Convey("Then the same session comes back", func() {
				So(err, ShouldBeNil)
				So(got.AlbumID, ShouldEqual, "album-1")
				So(got.Clusters, ShouldHaveLength, 2)
			})
		})

		Convey("When replacing a session", func() {
			So(store.Put(ctx, newSession("album-1")), ShouldBeNil)
			updated := newSession("album-1")
			updated.TotalMatches = 5
			So(store.Put(ctx, updated), ShouldBeNil)

			got, err := store.Get(ctx, "album-1")
			So(err, ShouldBeNil)
			So(got.TotalMatches, ShouldEqual, 5)

			n, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("When deleting a session", func() {
			So(store.Put(ctx, newSession("album-1")), ShouldBeNil)
			So(store.Delete(ctx, "album-1"), ShouldBeNil)

			_, err := store.Get(ctx, "album-1")
			So(err, ShouldWrap, repository.ErrNotFound)

			Convey("And deleting again is not an error", func() {
				So(store.Delete(ctx, "album-1"), ShouldBeNil)
			})
		})

		Convey("When counting across shards", func() {
			for i := 0; i < 50; i++ {
				So(store.Put(ctx, newSession(fmt.Sprintf("album-%d", i))), ShouldBeNil)
			}
			n, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 50)
		})

		Convey("When ranging over sessions", func() {
			for i := 0; i < 10; i++ {
				So(store.Put(ctx, newSession(fmt.Sprintf("album-%d", i))), ShouldBeNil)
			}
			seen := 0
			store.Range(func(_ *model.Session) bool {
				seen++
				return true
			})
			So(seen, ShouldEqual, 10)

			Convey("And the walk stops when the callback returns false", func() {
				partial := 0
				store.Range(func(_ *model.Session) bool {
					partial++
					return partial < 3
				})
				So(partial, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a store with a custom shard count", t, func() {
		store := repository.NewMemStore(repository.WithShardCount(3))

		Convey("When storing sessions", func() {
			for i := 0; i < 20; i++ {
				So(store.Put(ctx, newSession(fmt.Sprintf("album-%d", i))), ShouldBeNil)
			}

			Convey("Then all sessions are reachable", func() {
				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 20)
			})
		})
	})
}

func TestMemStoreConcurrency(t *testing.T) {
	Convey("Given concurrent writers and readers", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					albumID := fmt.Sprintf("album-%d-%d", worker, j)
					_ = store.Put(ctx, newSession(albumID))
					_, _ = store.Get(ctx, albumID)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every session is stored exactly once", func() {
			n, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 800)
		})
	})
}
