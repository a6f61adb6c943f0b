package selector_test

import (
	"testing"

	model "github.com/okian/keepsake/internal/domain/model"
	selector "github.com/okian/keepsake/internal/domain/selector"
	. "github.com/smartystreets/goconvey/convey"
)

func session(clusters ...model.Cluster) *model.Session {
	return &model.Session{
		AlbumID:          "album-test",
		MaxMatches:       12,
		MaxWarmupMatches: 6,
		Clusters:         clusters,
	}
}

func TestNextGuards(t *testing.T) {
	Convey("Given a selector", t, func() {
		sel := selector.New()

		Convey("When the session is done", func() {
			s := session(
				model.Cluster{ClusterID: 1, Size: 3},
				model.Cluster{ClusterID: 2, Size: 4},
			)
			s.Done = true

			_, ok := sel.Next(s)
			So(ok, ShouldBeFalse)
		})

		Convey("When fewer than two clusters exist", func() {
			_, ok := sel.Next(session(model.Cluster{ClusterID: 1, Size: 3}))
			So(ok, ShouldBeFalse)
		})

		Convey("When the session is nil", func() {
			_, ok := sel.Next(nil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestWarmupPhase(t *testing.T) {
	Convey("Given a fresh session with no games played", t, func() {
		sel := selector.New()
		s := session(
			model.Cluster{ClusterID: 3, Size: 12, Elo: 1050},
			model.Cluster{ClusterID: 1, Size: 4, Elo: 1032},
			model.Cluster{ClusterID: 2, Size: 9, Elo: 1046},
		)

		Convey("When selecting the first match", func() {
			m, ok := sel.Next(s)

			Convey("Then the lowest-id unseen cluster takes the left slot", func() {
				So(ok, ShouldBeTrue)
				So(m.LeftClusterID, ShouldEqual, 1)
				So(m.Reason, ShouldEqual, selector.ReasonWarmup)
			})

			Convey("Then the baseline falls back to the largest cluster", func() {
				So(m.RightClusterID, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a session where one cluster has already played", t, func() {
		sel := selector.New()
		s := session(
			model.Cluster{ClusterID: 1, Size: 4, Elo: 1044, Games: 1, Wins: 1},
			model.Cluster{ClusterID: 2, Size: 9, Elo: 1020, Games: 1, Losses: 1},
			model.Cluster{ClusterID: 7, Size: 6, Elo: 1038},
		)
		s.TotalMatches = 1

		Convey("When selecting the next match", func() {
			m, ok := sel.Next(s)

			Convey("Then the unseen cluster faces the highest-rated played cluster", func() {
				So(ok, ShouldBeTrue)
				So(m.LeftClusterID, ShouldEqual, 7)
				So(m.RightClusterID, ShouldEqual, 1)
				So(m.Reason, ShouldEqual, selector.ReasonWarmup)
			})
		})
	})

	Convey("Given an exhausted warm-up budget with clusters still unseen", t, func() {
		sel := selector.New()
		s := session(
			model.Cluster{ClusterID: 1, Size: 4, Elo: 1044, Games: 3},
			model.Cluster{ClusterID: 2, Size: 9, Elo: 1020, Games: 3},
			model.Cluster{ClusterID: 3, Size: 6, Elo: 1038},
		)
		s.MaxWarmupMatches = 3
		s.TotalMatches = 3

		Convey("When selecting the next match", func() {
			m, ok := sel.Next(s)

			Convey("Then refinement takes over", func() {
				So(ok, ShouldBeTrue)
				So(m.Reason, ShouldEqual, selector.ReasonRefinement)
			})
		})
	})
}

func TestRefinementPhase(t *testing.T) {
	Convey("Given a post-warm-up session", t, func() {
		sel := selector.New()

		Convey("When two clusters are rated much closer than the rest", func() {
			s := session(
				model.Cluster{ClusterID: 1, Size: 5, Elo: 1100, Games: 4},
				model.Cluster{ClusterID: 2, Size: 5, Elo: 1099, Games: 4},
				model.Cluster{ClusterID: 3, Size: 5, Elo: 900, Games: 4},
			)
			s.TotalMatches = 6

			m, ok := sel.Next(s)

			Convey("Then the close pair is chosen, order-normalized", func() {
				So(ok, ShouldBeTrue)
				So(m.LeftClusterID, ShouldEqual, 1)
				So(m.RightClusterID, ShouldEqual, 2)
				So(m.Reason, ShouldEqual, selector.ReasonRefinement)
			})
		})

		Convey("When a pair is heavily under-sampled", func() {
			s := session(
				model.Cluster{ClusterID: 1, Size: 5, Elo: 1105, Games: 9},
				model.Cluster{ClusterID: 2, Size: 5, Elo: 1100, Games: 9},
				model.Cluster{ClusterID: 3, Size: 5, Elo: 1103, Games: 1},
			)
			s.TotalMatches = 6

			m, ok := sel.Next(s)

			Convey("Then the exploration bonus pulls in the under-sampled cluster", func() {
				So(ok, ShouldBeTrue)
				So(m.LeftClusterID, ShouldEqual, 1)
				So(m.RightClusterID, ShouldEqual, 3)
			})
		})

		Convey("When every pair scores identically", func() {
			s := session(
				model.Cluster{ClusterID: 4, Size: 5, Elo: 1000, Games: 3},
				model.Cluster{ClusterID: 2, Size: 5, Elo: 1000, Games: 3},
				model.Cluster{ClusterID: 9, Size: 5, Elo: 1000, Games: 3},
			)
			s.TotalMatches = 6

			m, ok := sel.Next(s)

			Convey("Then the lexicographically smallest pair wins the tie", func() {
				So(ok, ShouldBeTrue)
				So(m.LeftClusterID, ShouldEqual, 2)
				So(m.RightClusterID, ShouldEqual, 4)
			})
		})

		Convey("When the top pool excludes a well-sampled straggler", func() {
			clusters := make([]model.Cluster, 0, 10)
			for i := 1; i <= 10; i++ {
				clusters = append(clusters, model.Cluster{
					ClusterID: i,
					Size:      5,
					Elo:       1000 + float64(10*i),
					Games:     4,
				})
			}
			s := session(clusters...)
			s.TotalMatches = 8

			m, ok := sel.Next(s)

			Convey("Then the chosen pair comes from the top-rated eight", func() {
				So(ok, ShouldBeTrue)
				So(m.LeftClusterID, ShouldBeGreaterThanOrEqualTo, 3)
				So(m.RightClusterID, ShouldBeGreaterThanOrEqualTo, 3)
			})
		})
	})
}

func TestDeterminism(t *testing.T) {
	Convey("Given identical session states", t, func() {
		sel := selector.New()
		build := func() *model.Session {
			s := session(
				model.Cluster{ClusterID: 1, Size: 8, Elo: 1051.25, Games: 2},
				model.Cluster{ClusterID: 2, Size: 3, Elo: 1049.75, Games: 2},
				model.Cluster{ClusterID: 3, Size: 5, Elo: 1012.5, Games: 1},
				model.Cluster{ClusterID: 4, Size: 7, Elo: 998.0, Games: 1},
			)
			s.TotalMatches = 6
			return s
		}

		Convey("When selecting repeatedly", func() {
			first, ok1 := sel.Next(build())
			second, ok2 := sel.Next(build())

			Convey("Then the same pair is returned every time", func() {
				So(ok1, ShouldBeTrue)
				So(ok2, ShouldBeTrue)
				So(second, ShouldResemble, first)
			})
		})
	})
}
