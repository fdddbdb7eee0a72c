package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/peloton/internal/adapters/cache"
	"github.com/okian/peloton/internal/adapters/report"
	"github.com/okian/peloton/internal/config"
	"github.com/okian/peloton/pkg/logger"
)

const roster = `[
	{"full_name": "VOLLERING Demi", "team": "FDJ-Suez", "position": "Leader", "stars": 8, "points": 400},
	{"full_name": "KOPECKY Lotte", "team": "SD Worx", "position": "Sprint", "stars": 6, "points": 300},
	{"full_name": "REUSSER Marlen", "team": "Movistar", "position": "Climber", "stars": 5, "points": 50},
	{"full_name": "BREDEWOLD Mischa", "team": "SD Worx", "position": "All-Rounder", "stars": 4, "points": 120}
]`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	if err := logger.InitWithWriter(io.Discard); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	cfg := config.New()
	cfg.DataFile = filepath.Join(dir, "fantasy-data.json")
	cfg.CachePath = filepath.Join(dir, "race_cache.db")
	cfg.WatchDataFile = false
	if err := os.WriteFile(cfg.DataFile, []byte(roster), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestFilterFlags(t *testing.T) {
	Convey("Given filter flags with star bounds left at their defaults", t, func() {
		c := filterFlags{Team: "SD Worx", MinStars: -1, MaxStars: -1}.criteria()

		Convey("Then no star bound is applied", func() {
			So(c.Team, ShouldEqual, "SD Worx")
			So(c.MinStars, ShouldBeNil)
			So(c.MaxStars, ShouldBeNil)
		})
	})

	Convey("Given a zero max stars bound", t, func() {
		c := filterFlags{MinStars: -1, MaxStars: 0}.criteria()

		Convey("Then it is kept", func() {
			So(c.MinStars, ShouldBeNil)
			So(*c.MaxStars, ShouldEqual, 0.0)
		})
	})
}

func TestPopulationCommands(t *testing.T) {
	Convey("Given a started service over a roster file", t, func() {
		ctx := context.Background()
		svc, stop, err := startService(ctx, testConfig(t))
		So(err, ShouldBeNil)
		Reset(stop)

		noStars := filterFlags{MinStars: -1, MaxStars: -1}

		Convey("When scoring riders by name with a limit", func() {
			var buf bytes.Buffer
			cmd := &scoreCmd{filterFlags: noStars, Sort: "name", Asc: true, Limit: 2}
			So(cmd.run(ctx, svc, &buf), ShouldBeNil)

			Convey("Then only the first names are printed", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "BREDEWOLD Mischa")
				So(out, ShouldContainSubstring, "KOPECKY Lotte")
				So(out, ShouldNotContainSubstring, "VOLLERING Demi")
				So(strings.ToLower(out), ShouldContainSubstring, "2 riders")
			})
		})

		Convey("When the sort column is unknown", func() {
			cmd := &scoreCmd{filterFlags: noStars, Sort: "age"}

			Convey("Then the command fails", func() {
				So(cmd.run(ctx, svc, io.Discard), ShouldNotBeNil)
			})
		})

		Convey("When printing insights for one team", func() {
			var buf bytes.Buffer
			flags := noStars
			flags.Team = "sd worx"
			So((&insightsCmd{filterFlags: flags}).run(ctx, svc, &buf), ShouldBeNil)

			Convey("Then the summary is rendered", func() {
				So(strings.ToLower(buf.String()), ShouldContainSubstring, "summary")
			})
		})

		Convey("When exporting a workbook", func() {
			var buf bytes.Buffer
			So((&exportCmd{filterFlags: noStars}).run(ctx, svc, &buf), ShouldBeNil)

			Convey("Then it holds the rider sheets", func() {
				xl, err := excelize.OpenReader(&buf)
				So(err, ShouldBeNil)
				defer xl.Close()
				So(xl.GetSheetList(), ShouldContain, report.RidersSheet)
				So(xl.GetSheetList(), ShouldContain, report.ValuePicksSheet)

				rows, err := xl.GetRows(report.RidersSheet)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 5)
			})
		})
	})

	Convey("Given a missing roster file", t, func() {
		cfg := testConfig(t)
		cfg.DataFile = filepath.Join(t.TempDir(), "missing.json")

		Convey("Then the service does not start", func() {
			_, _, err := startService(context.Background(), cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCacheCommands(t *testing.T) {
	Convey("Given a cache with two entries", t, func() {
		ctx := context.Background()
		rc, err := cache.Open(ctx, cache.MemoryPath)
		So(err, ShouldBeNil)
		Reset(func() { _ = rc.Close() })
		So(rc.Put(ctx, "lotte-kopecky", []byte(`{}`)), ShouldBeNil)
		So(rc.Put(ctx, "demi-vollering", []byte(`{}`)), ShouldBeNil)

		Convey("When printing cache info", func() {
			info, err := rc.Info(ctx)
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			writeCacheInfo(&buf, info)

			Convey("Then the entry count is shown", func() {
				So(buf.String(), ShouldContainSubstring, "Entries")
				So(buf.String(), ShouldContainSubstring, "2")
			})
		})

		Convey("When clearing with --yes", func() {
			var buf bytes.Buffer
			So((&cacheClearCmd{Yes: true}).run(ctx, rc, &buf), ShouldBeNil)

			Convey("Then every entry is removed without asking", func() {
				So(buf.String(), ShouldContainSubstring, "removed 2 entries")
				info, err := rc.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Entries, ShouldEqual, 0)
			})
		})

		Convey("When the confirmation is declined", func() {
			orig := confirm
			asked := ""
			confirm = func(msg string) (bool, error) {
				asked = msg
				return false, nil
			}
			Reset(func() { confirm = orig })

			var buf bytes.Buffer
			So((&cacheClearCmd{}).run(ctx, rc, &buf), ShouldBeNil)

			Convey("Then the cache is left untouched", func() {
				So(asked, ShouldContainSubstring, "2 cached race results")
				So(buf.String(), ShouldContainSubstring, "untouched")
				info, err := rc.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Entries, ShouldEqual, 2)
			})
		})
	})
}

const exposition = `# HELP peloton_reloads_total Population reloads.
# TYPE peloton_reloads_total counter
peloton_reloads_total{result="ok",trigger="api"} 3
# HELP peloton_population_size Riders loaded.
# TYPE peloton_population_size gauge
peloton_population_size 42
# TYPE go_goroutines gauge
go_goroutines 7
`

func TestMetrics(t *testing.T) {
	Convey("Given a metrics endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(exposition))
		}))
		Reset(srv.Close)

		Convey("When scraping it", func() {
			mfs, err := fetchMetrics(context.Background(), srv.Client(), srv.URL)
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			writeMetrics(&buf, mfs, "peloton_")
			out := buf.String()

			Convey("Then only prefixed families are printed with their labels", func() {
				So(out, ShouldContainSubstring, "peloton_reloads_total")
				So(out, ShouldContainSubstring, "result=ok,trigger=api")
				So(out, ShouldContainSubstring, "42")
				So(out, ShouldNotContainSubstring, "go_goroutines")
				So(strings.ToLower(out), ShouldContainSubstring, "2 families")
			})
		})
	})

	Convey("Given an endpoint that fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		Reset(srv.Close)

		Convey("Then scraping returns the status", func() {
			_, err := fetchMetrics(context.Background(), srv.Client(), srv.URL)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "503")
		})
	})

	Convey("Given text that is not an exposition", t, func() {
		_, err := parseMetrics(strings.NewReader("not a metric line\n"))

		Convey("Then parsing fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
