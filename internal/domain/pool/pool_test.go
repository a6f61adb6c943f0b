package pool_test

import (
	"testing"

	model "github.com/okian/keepsake/internal/domain/model"
	pool "github.com/okian/keepsake/internal/domain/pool"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDerive(t *testing.T) {
	Convey("Given a finished session with keep counts", t, func() {
		s := &model.Session{
			AlbumID: "album-pool",
			Done:    true,
			Clusters: []model.Cluster{
				{ClusterID: 1, Size: 3, KeepCount: 2},
				{ClusterID: 2, Size: 2, KeepCount: 0},
			},
			Images: []model.Image{
				{Path: "c1-worst.jpg", ClusterID: 1, RankInCluster: 2},
				{Path: "c1-best.jpg", ClusterID: 1, RankInCluster: 0},
				{Path: "c1-mid.jpg", ClusterID: 1, RankInCluster: 1},
				{Path: "c2-a.jpg", ClusterID: 2, RankInCluster: 0},
				{Path: "c2-b.jpg", ClusterID: 2, RankInCluster: 1},
			},
		}

		Convey("When deriving the final pool", func() {
			res := pool.Derive(s)

			Convey("Then the best-ranked images are accepted first", func() {
				So(res.Clusters[0].Accepted, ShouldResemble, []string{"c1-best.jpg", "c1-mid.jpg"})
				So(res.Clusters[0].Rejected, ShouldResemble, []string{"c1-worst.jpg"})
			})

			Convey("Then a zero keep count rejects the whole cluster", func() {
				So(res.Clusters[1].Accepted, ShouldBeEmpty)
				So(res.Clusters[1].Rejected, ShouldResemble, []string{"c2-a.jpg", "c2-b.jpg"})
			})

			Convey("Then the totals add up to all images", func() {
				So(res.TotalAccepted, ShouldEqual, 2)
				So(res.TotalRejected, ShouldEqual, 3)
			})

			Convey("Then deriving again yields the same partition", func() {
				So(pool.Derive(s), ShouldResemble, res)
			})
		})

		Convey("When keep count exceeds the images actually present", func() {
			s.Clusters[0].KeepCount = 9
			res := pool.Derive(s)

			Convey("Then acceptance is capped at the available images", func() {
				So(len(res.Clusters[0].Accepted), ShouldEqual, 3)
				So(res.Clusters[0].Rejected, ShouldBeEmpty)
			})
		})

		Convey("When the session is nil", func() {
			So(pool.Derive(nil), ShouldResemble, pool.Result{})
		})
	})
}
