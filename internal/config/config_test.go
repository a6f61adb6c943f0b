package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/keepsake/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.MaxMatches, convey.ShouldEqual, 12)
			convey.So(cfg.MaxWarmupMatches, convey.ShouldEqual, 6)
			convey.So(cfg.StreakThreshold, convey.ShouldEqual, 3)
			convey.So(cfg.EloK, convey.ShouldEqual, 24)
			convey.So(cfg.BaseRating, convey.ShouldEqual, 1000)
			convey.So(cfg.SizeBoost, convey.ShouldEqual, 20)
			convey.So(cfg.RatioTemperature, convey.ShouldEqual, 200)
			convey.So(cfg.SizePrior, convey.ShouldBeFalse)
			convey.So(cfg.TopPoolSize, convey.ShouldEqual, 8)
			convey.So(cfg.SnapshotQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.SnapshotWriterCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			convey.So(cfg.DataDir, convey.ShouldBeEmpty)
		})
	})
}
