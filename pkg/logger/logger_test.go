package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it is initialized with a nil writer", func() {
			err := InitWithWriter(nil)

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "population loaded", String("file", "fantasy-data.json"), Int("riders", 42))

			Convey("Then the record carries message, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "population loaded")
				So(out, ShouldContainSubstring, "riders=42")
				So(out, ShouldContainSubstring, "file=fantasy-data.json")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging an error field", func() {
			Get().Error(ctx, "fetch failed", Error(errors.New("boom")))

			Convey("Then the error text is present", func() {
				So(buf.String(), ShouldContainSubstring, "error=boom")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "visible")

			Convey("Then info records are dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When using a named logger with fixed fields", func() {
			Named("cache").With(String("request_id", "abc")).Info(ctx, "hit")

			Convey("Then the group and the fixed field are rendered", func() {
				So(buf.String(), ShouldContainSubstring, "cache.request_id=abc")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)

		Convey("Then known levels parse", func() {
			for _, l := range []string{"debug", "info", "", "WARN", "warning", "error"} {
				So(SetLevelString(l), ShouldBeNil)
			}
		})

		Convey("Then unknown levels fail", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
