package config_test

import (
	"testing"

	"github.com/okian/badgeboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, config.LogFormatText)
			convey.So(cfg.ExampleFile, convey.ShouldEqual, "example.jsonl")
			convey.So(cfg.AppendRatePerMinute, convey.ShouldEqual, 30)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the example dataset should be active", func() {
			convey.So(cfg.DataPath(), convey.ShouldEqual, "example.jsonl")
			convey.So(cfg.Demo(), convey.ShouldBeTrue)
		})

		convey.Convey("When a data file is set", func() {
			cfg.DataFile = "/var/lib/badges.jsonl"

			convey.Convey("Then it should be used and demo mode be off", func() {
				convey.So(cfg.DataPath(), convey.ShouldEqual, "/var/lib/badges.jsonl")
				convey.So(cfg.Demo(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the data file points at the example", func() {
			cfg.DataFile = "./example.jsonl"

			convey.Convey("Then demo mode should stay on", func() {
				convey.So(cfg.Demo(), convey.ShouldBeTrue)
			})
		})
	})
}
