package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/peloton/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CacheTTLDays, convey.ShouldEqual, 7)
				convey.So(cfg.Scoring.OutlierZ, convey.ShouldEqual, 1.5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PELOTON_ADDR", ":8080")
			_ = os.Setenv("PELOTON_DATA_FILE", "/data/riders.json")
			_ = os.Setenv("PELOTON_CACHE_TTL_DAYS", "3")
			_ = os.Setenv("PELOTON_WATCH_DATA_FILE", "false")
			_ = os.Setenv("PELOTON_SCORING__OUTLIER_Z", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataFile, convey.ShouldEqual, "/data/riders.json")
				convey.So(cfg.CacheTTLDays, convey.ShouldEqual, 3)
				convey.So(cfg.WatchDataFile, convey.ShouldBeFalse)
				convey.So(cfg.Scoring.OutlierZ, convey.ShouldEqual, 2.0)
				convey.So(cfg.Scoring.EliteZ, convey.ShouldEqual, 1.0)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
cache_path: "/tmp/cache.db"
results_limit: 5
scoring:
  elite_z: 1.5
  outlier_z: 2.5
`)
			_ = os.Setenv("PELOTON_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge the file over the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CachePath, convey.ShouldEqual, "/tmp/cache.db")
				convey.So(cfg.ResultsLimit, convey.ShouldEqual, 5)
				convey.So(cfg.Scoring.EliteZ, convey.ShouldEqual, 1.5)
				convey.So(cfg.Scoring.OutlierZ, convey.ShouldEqual, 2.5)
				convey.So(cfg.Scoring.AverageZ, convey.ShouldEqual, -1.0)
				convey.So(cfg.DataFile, convey.ShouldEqual, "fantasy-data.json")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
results_limit: 5
`)
			_ = os.Setenv("PELOTON_CONFIG", tmpFile)
			_ = os.Setenv("PELOTON_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ResultsLimit, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("PELOTON_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PELOTON_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file sets an empty addr", func() {
			tmpFile := createTempConfigFile(t, `addr: ""`)
			_ = os.Setenv("PELOTON_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric environment variable is not a number", func() {
			_ = os.Setenv("PELOTON_RESULTS_LIMIT", "ten")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	convey.Convey("Given a .env file", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()
		path := filepath.Join(t.TempDir(), ".env")
		convey.So(os.WriteFile(path, []byte("PELOTON_ADDR=:7070\n"), 0o600), convey.ShouldBeNil)

		convey.Convey("When it is loaded before the config", func() {
			convey.So(config.LoadDotEnv(path), convey.ShouldBeNil)
			cfg, err := config.Load(context.Background())

			convey.Convey("Then its values reach the config", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the file does not exist", func() {
			err := config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))

			convey.Convey("Then it is ignored", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"PELOTON_CONFIG",
		"PELOTON_ADDR",
		"PELOTON_DATA_FILE",
		"PELOTON_CACHE_TTL_DAYS",
		"PELOTON_WATCH_DATA_FILE",
		"PELOTON_RESULTS_LIMIT",
		"PELOTON_SCORING__OUTLIER_Z",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peloton.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
