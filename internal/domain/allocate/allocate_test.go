package allocate_test

import (
	"testing"

	allocate "github.com/okian/keepsake/internal/domain/allocate"
	model "github.com/okian/keepsake/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ratioSum(clusters []model.Cluster) float64 {
	var sum float64
	for i := range clusters {
		sum += clusters[i].Ratio
	}
	return sum
}

func TestRecompute(t *testing.T) {
	Convey("Given a default allocator", t, func() {
		alloc := allocate.New()

		Convey("When clusters have identical ratings", func() {
			clusters := []model.Cluster{
				{ClusterID: 1, Size: 10, Elo: 1000},
				{ClusterID: 2, Size: 20, Elo: 1000},
				{ClusterID: 3, Size: 6, Elo: 1000},
			}
			alloc.Recompute(clusters)

			Convey("Then the allocation is uniform", func() {
				So(clusters[0].Ratio, ShouldAlmostEqual, 1.0/3.0, 1e-12)
				So(clusters[1].Ratio, ShouldAlmostEqual, 1.0/3.0, 1e-12)
				So(clusters[2].Ratio, ShouldAlmostEqual, 1.0/3.0, 1e-12)
			})

			Convey("Then ratios sum to one", func() {
				So(ratioSum(clusters), ShouldAlmostEqual, 1.0, 1e-3)
			})
		})

		Convey("When one cluster is rated well above the rest", func() {
			clusters := []model.Cluster{
				{ClusterID: 1, Size: 10, Elo: 1200},
				{ClusterID: 2, Size: 10, Elo: 1000},
				{ClusterID: 3, Size: 10, Elo: 1000},
			}
			alloc.Recompute(clusters)

			Convey("Then it receives the largest share", func() {
				So(clusters[0].Ratio, ShouldBeGreaterThan, clusters[1].Ratio)
				So(clusters[0].KeepCount, ShouldBeGreaterThanOrEqualTo, clusters[1].KeepCount)
			})

			Convey("Then keep counts never exceed cluster size", func() {
				for i := range clusters {
					So(clusters[i].KeepCount, ShouldBeLessThanOrEqualTo, clusters[i].Size)
					So(clusters[i].KeepCount, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})
		})

		Convey("When recomputing twice without a rating change", func() {
			clusters := []model.Cluster{
				{ClusterID: 1, Size: 9, Elo: 1080},
				{ClusterID: 2, Size: 4, Elo: 960},
			}
			alloc.Recompute(clusters)
			first := append([]model.Cluster(nil), clusters...)
			alloc.Recompute(clusters)

			Convey("Then the result is identical", func() {
				So(clusters, ShouldResemble, first)
			})
		})

		Convey("When a single cluster makes up the album", func() {
			clusters := []model.Cluster{{ClusterID: 1, Size: 7, Elo: 1010}}
			alloc.Recompute(clusters)

			Convey("Then it takes the whole budget", func() {
				So(clusters[0].Ratio, ShouldAlmostEqual, 1.0, 1e-12)
				So(clusters[0].KeepCount, ShouldEqual, 7)
			})
		})

		Convey("When there are no clusters", func() {
			So(func() { alloc.Recompute(nil) }, ShouldNotPanic)
		})
	})
}

func TestTemperature(t *testing.T) {
	Convey("Given allocators with different temperatures", t, func() {
		sharp := allocate.New(allocate.WithTemperature(50))
		flat := allocate.New(allocate.WithTemperature(800))

		build := func() []model.Cluster {
			return []model.Cluster{
				{ClusterID: 1, Size: 10, Elo: 1100},
				{ClusterID: 2, Size: 10, Elo: 1000},
			}
		}

		Convey("When recomputing the same ratings", func() {
			a := build()
			b := build()
			sharp.Recompute(a)
			flat.Recompute(b)

			Convey("Then the lower temperature concentrates the allocation", func() {
				So(a[0].Ratio, ShouldBeGreaterThan, b[0].Ratio)
			})
		})
	})
}

func TestSizePriorStrategy(t *testing.T) {
	Convey("Given an allocator with the size prior enabled", t, func() {
		alloc := allocate.New(allocate.WithWeightFunc(allocate.SizePriorWeight))

		Convey("When ratings are tied but sizes differ", func() {
			clusters := []model.Cluster{
				{ClusterID: 1, Size: 36, Elo: 1000},
				{ClusterID: 2, Size: 4, Elo: 1000},
			}
			alloc.Recompute(clusters)

			Convey("Then the larger cluster gets the larger share", func() {
				So(clusters[0].Ratio, ShouldAlmostEqual, 0.75, 1e-9)
				So(clusters[1].Ratio, ShouldAlmostEqual, 0.25, 1e-9)
			})

			Convey("Then ratios still sum to one", func() {
				So(ratioSum(clusters), ShouldAlmostEqual, 1.0, 1e-3)
			})
		})
	})
}
