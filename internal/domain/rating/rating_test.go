package rating_test

import (
	"math"
	"testing"

	rating "github.com/okian/keepsake/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExpectedScore(t *testing.T) {
	Convey("Given a default updater", t, func() {
		u := rating.NewUpdater()

		Convey("When both players share the same rating", func() {
			So(u.Expected(1500, 1500), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("When one player is 400 points ahead", func() {
			e := u.Expected(1900, 1500)

			Convey("Then the favorite expects about 10/11", func() {
				So(e, ShouldAlmostEqual, 10.0/11.0, 1e-9)
			})

			Convey("And the two expectations sum to one", func() {
				So(e+u.Expected(1500, 1900), ShouldAlmostEqual, 1.0, 1e-12)
			})
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given a default updater", t, func() {
		u := rating.NewUpdater()

		Convey("When an evenly rated contest is resolved", func() {
			w, l := u.Apply(1500, 1500)

			Convey("Then the winner gains half of K", func() {
				So(w, ShouldAlmostEqual, 1512, 1e-9)
				So(l, ShouldAlmostEqual, 1488, 1e-9)
			})
		})

		Convey("When the underdog wins", func() {
			w, l := u.Apply(1400, 1700)

			Convey("Then the winner gains more than half of K", func() {
				So(w-1400, ShouldBeGreaterThan, 12)
				So(w-1400, ShouldBeLessThan, 24)
			})

			Convey("And the total rating is conserved", func() {
				So(w+l, ShouldAlmostEqual, 1400+1700, 1e-9)
			})
		})

		Convey("When K is customized", func() {
			custom := rating.NewUpdater(rating.WithK(32))
			w, _ := custom.Apply(1500, 1500)
			So(w, ShouldAlmostEqual, 1516, 1e-9)
		})
	})
}

func TestInitialRating(t *testing.T) {
	Convey("Given a default updater", t, func() {
		u := rating.NewUpdater()

		Convey("When sizing the cold-start prior", func() {
			Convey("Then an empty cluster gets the base rating", func() {
				So(u.InitialRating(0, 0), ShouldAlmostEqual, 1000, 1e-9)
			})

			Convey("Then larger clusters start higher", func() {
				small := u.InitialRating(3, 0)
				large := u.InitialRating(40, 0)
				So(small, ShouldBeGreaterThan, 1000)
				So(large, ShouldBeGreaterThan, small)
			})

			Convey("Then the boost is capped", func() {
				So(u.InitialRating(1<<20, 0), ShouldBeLessThanOrEqualTo, 1120)
			})

			Convey("Then a negative size is treated as empty", func() {
				So(u.InitialRating(-5, 0), ShouldAlmostEqual, 1000, 1e-9)
			})
		})

		Convey("When an upstream preference score is present", func() {
			neutral := u.InitialRating(10, 0)

			Convey("Then positive preference raises the prior", func() {
				So(u.InitialRating(10, 0.5), ShouldBeGreaterThan, neutral)
			})

			Convey("Then negative preference lowers the prior", func() {
				So(u.InitialRating(10, -0.5), ShouldBeLessThan, neutral)
			})

			Convey("Then the preference contribution saturates", func() {
				So(u.InitialRating(10, 3.0), ShouldAlmostEqual, u.InitialRating(10, 100.0), 1e-9)
			})

			Convey("Then non-finite scores are ignored", func() {
				So(u.InitialRating(10, math.NaN()), ShouldAlmostEqual, neutral, 1e-9)
				So(u.InitialRating(10, math.Inf(1)), ShouldAlmostEqual, neutral, 1e-9)
			})
		})
	})
}
