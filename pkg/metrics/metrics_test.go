package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.ridersScored.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_scored_total")
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "peloton")
				So(m.subsystem, ShouldEqual, "riders")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When scoring is recorded", func() {
			before := testutil.ToFloat64(globalManager.ridersScored)
			RecordScoring(12, 0.4)

			Convey("Then the scored counter grows by the population size", func() {
				So(testutil.ToFloat64(globalManager.ridersScored)-before, ShouldEqual, 12)
			})
		})

		Convey("When tier counts are replaced", func() {
			UpdateTierCounts(map[string]int{"Elite": 2, "Average": 5})
			UpdateTierCounts(map[string]int{"Strong": 1})

			Convey("Then only the latest labels remain", func() {
				So(testutil.CollectAndCount(globalManager.tierRiders), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.tierRiders.WithLabelValues("Strong")), ShouldEqual, 1)
			})
		})

		Convey("When cache and fetch results are recorded", func() {
			hits := testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit"))
			RecordCacheLookup("hit")
			RecordFetch("ok", 25)

			Convey("Then the labelled counters move", func() {
				So(testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit"))-hits, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.fetches.WithLabelValues("ok")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When reloads are recorded", func() {
			before := testutil.ToFloat64(globalManager.reloads.WithLabelValues("watch", "ok"))
			RecordReloadRequest("queued")
			UpdateReloadQueueSize(1)
			RecordReload("watch", "ok", 12)

			Convey("Then the reload counters and gauge move", func() {
				So(testutil.ToFloat64(globalManager.reloads.WithLabelValues("watch", "ok"))-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.reloadQueueSize), ShouldEqual, 1)
			})
		})

		Convey("When the other recorders are called", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordValidationError()
					UpdatePopulationSize(120)
					UpdateOutlierCounts(map[string]int{"Overperformer": 3})
					RecordPopulationLoad("ok")
					RecordHTTPRequest("riders", "GET", "200")
					RecordHTTPRequestDuration("riders", "GET", "200", 3.2)
					RecordErrorByEndpoint("riders", "GET", "client_error")
					RecordErrorByType("client_error", "medium")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(8)
				}, ShouldNotPanic)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
