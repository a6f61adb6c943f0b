package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	convey.Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(Init(WithOutput(&buf), WithJSON()), convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When logging with fields", func() {
			Get().Info(ctx, "session created",
				String("albumID", "album-1"),
				Int("clusters", 3),
			)

			convey.Convey("Then the entry carries message and fields", func() {
				var entry map[string]any
				convey.So(json.Unmarshal(buf.Bytes(), &entry), convey.ShouldBeNil)
				convey.So(entry["msg"], convey.ShouldEqual, "session created")
				convey.So(entry["albumID"], convey.ShouldEqual, "album-1")
				convey.So(entry["clusters"], convey.ShouldEqual, float64(3))
				convey.So(entry["source"], convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When logging through a named logger", func() {
			Get().Named("store").Info(ctx, "snapshot written", String("albumID", "album-1"))

			convey.Convey("Then the name shows up in the entry", func() {
				convey.So(buf.String(), convey.ShouldContainSubstring, "store")
				convey.So(buf.String(), convey.ShouldContainSubstring, "snapshot written")
			})
		})

		convey.Convey("When the level filters debug output", func() {
			convey.So(SetLevelString("warn"), convey.ShouldBeNil)
			Get().Debug(ctx, "quiet")
			Get().Warn(ctx, "loud")

			convey.Convey("Then only warnings and above appear", func() {
				convey.So(buf.String(), convey.ShouldNotContainSubstring, "quiet")
				convey.So(buf.String(), convey.ShouldContainSubstring, "loud")
			})

			convey.So(SetLevelString("info"), convey.ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	convey.Convey("Given level strings", t, func() {
		convey.Convey("Then known levels parse", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", " INFO "} {
				convey.So(SetLevelString(lvl), convey.ShouldBeNil)
			}
		})

		convey.Convey("And unknown levels are rejected", func() {
			err := SetLevelString("verbose")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(strings.Contains(err.Error(), "unknown log level"), convey.ShouldBeTrue)
		})

		convey.So(SetLevelString("info"), convey.ShouldBeNil)
	})
}
