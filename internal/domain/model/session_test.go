package model_test

import (
	"testing"
	"time"

	model "github.com/okian/keepsake/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSessionLookups(t *testing.T) {
	convey.Convey("Given a session with three clusters", t, func() {
		s := &model.Session{
			AlbumID: "album-1",
			Clusters: []model.Cluster{
				{ClusterID: 1, Size: 10, Elo: 1040},
				{ClusterID: 2, Size: 5, Elo: 1020, Games: 2, Wins: 1, Losses: 1},
				{ClusterID: 5, Size: 8, Elo: 1035},
			},
		}

		convey.Convey("When looking up an existing cluster", func() {
			c := s.Cluster(2)

			convey.Convey("Then the matching record is returned", func() {
				convey.So(c, convey.ShouldNotBeNil)
				convey.So(c.ClusterID, convey.ShouldEqual, 2)
				convey.So(c.Size, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When looking up an unknown cluster", func() {
			convey.So(s.Cluster(42), convey.ShouldBeNil)
		})

		convey.Convey("When some clusters have not played yet", func() {
			convey.So(s.Unseen(), convey.ShouldBeTrue)
		})

		convey.Convey("When every cluster has played", func() {
			for i := range s.Clusters {
				s.Clusters[i].Games = 1
			}
			convey.So(s.Unseen(), convey.ShouldBeFalse)
		})
	})
}

func TestSessionClone(t *testing.T) {
	convey.Convey("Given a populated session", t, func() {
		s := &model.Session{
			AlbumID:          "album-2",
			MaxMatches:       12,
			MaxWarmupMatches: 6,
			TotalMatches:     1,
			LastTop3:         []int{1, 2, 3},
			Matches: []model.Match{
				{LeftClusterID: 1, RightClusterID: 2, WinnerClusterID: 1, TS: time.Now().UTC()},
			},
			Clusters: []model.Cluster{
				{ClusterID: 1, Size: 4, Representatives: []string{"a.jpg", "b.jpg"}},
				{ClusterID: 2, Size: 6},
			},
			Images: []model.Image{
				{Path: "a.jpg", ClusterID: 1, RankInCluster: 0},
			},
		}

		convey.Convey("When cloning it", func() {
			c := s.Clone()

			convey.Convey("Then the clone matches the original", func() {
				convey.So(c.AlbumID, convey.ShouldEqual, s.AlbumID)
				convey.So(c.TotalMatches, convey.ShouldEqual, s.TotalMatches)
				convey.So(len(c.Clusters), convey.ShouldEqual, len(s.Clusters))
				convey.So(len(c.Matches), convey.ShouldEqual, len(s.Matches))
				convey.So(c.LastTop3, convey.ShouldResemble, s.LastTop3)
			})

			convey.Convey("Then mutating the clone leaves the original intact", func() {
				c.Clusters[0].Elo = 2000
				c.Clusters[0].Representatives[0] = "x.jpg"
				c.Matches[0].WinnerClusterID = 2
				c.LastTop3[0] = 99

				convey.So(s.Clusters[0].Elo, convey.ShouldEqual, 0)
				convey.So(s.Clusters[0].Representatives[0], convey.ShouldEqual, "a.jpg")
				convey.So(s.Matches[0].WinnerClusterID, convey.ShouldEqual, 1)
				convey.So(s.LastTop3[0], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When cloning a nil session", func() {
			var nilSession *model.Session
			convey.So(nilSession.Clone(), convey.ShouldBeNil)
		})
	})
}
