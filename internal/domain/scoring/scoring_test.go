package scoring_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/peloton/internal/domain/rider"
	"github.com/okian/peloton/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func records(metrics ...float64) []rider.Record {
	out := make([]rider.Record, len(metrics))
	for i, m := range metrics {
		out[i] = rider.Record{Name: string(rune('A' + i)), Cost: 2, Performance: m}
	}
	return out
}

func TestEngineScore(t *testing.T) {
	Convey("Given a default engine", t, func() {
		e := scoring.NewEngine()

		Convey("When the population is empty", func() {
			out, err := e.Score(nil)

			Convey("Then an empty result is returned", func() {
				So(err, ShouldBeNil)
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When the population has a single rider", func() {
			out, err := e.Score(records(42))

			Convey("Then the rider sits at the mean", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 1)
				So(out[0].ZScore, ShouldEqual, 0)
				So(out[0].Tier, ShouldEqual, scoring.TierAverage)
				So(out[0].OutlierClass, ShouldEqual, scoring.NotOutlier)
			})
		})

		Convey("When every rider has the same metric", func() {
			out, err := e.Score(records(10, 10, 10, 10))

			Convey("Then nobody stands out", func() {
				So(err, ShouldBeNil)
				for _, s := range out {
					So(s.ZScore, ShouldEqual, 0)
					So(s.Tier, ShouldEqual, scoring.TierAverage)
					So(s.OutlierClass, ShouldEqual, scoring.NotOutlier)
				}
			})
		})

		Convey("When one rider dominates the rest", func() {
			out, err := e.Score(records(0, 0, 0, 100))

			Convey("Then the leader is an elite overperformer", func() {
				So(err, ShouldBeNil)
				So(out[3].ZScore, ShouldAlmostEqual, math.Sqrt(3), 1e-9)
				So(out[3].Tier, ShouldEqual, scoring.TierElite)
				So(out[3].OutlierClass, ShouldEqual, scoring.Overperformer)
			})

			Convey("Then the others stay average", func() {
				for _, s := range out[:3] {
					So(s.ZScore, ShouldAlmostEqual, -1/math.Sqrt(3), 1e-9)
					So(s.Tier, ShouldEqual, scoring.TierAverage)
					So(s.OutlierClass, ShouldEqual, scoring.NotOutlier)
				}
			})

			Convey("Then the input order is preserved", func() {
				for i, s := range out {
					So(s.Name, ShouldEqual, string(rune('A'+i)))
				}
			})
		})

		Convey("When the population is spread out", func() {
			out, err := e.Score(records(3, 17, 42, 8, 95, 61, 0, 23, 12, 77))
			So(err, ShouldBeNil)

			Convey("Then z-scores average to zero", func() {
				sum := 0.0
				for _, s := range out {
					sum += s.ZScore
				}
				So(sum/float64(len(out)), ShouldAlmostEqual, 0, 1e-9)
			})

			Convey("Then a higher z never lands in a lower tier", func() {
				for _, a := range out {
					for _, b := range out {
						if a.ZScore > b.ZScore {
							So(a.Tier.Rank(), ShouldBeGreaterThanOrEqualTo, b.Tier.Rank())
						}
					}
				}
			})
		})

		Convey("When costs vary", func() {
			in := []rider.Record{
				{Name: "paid", Cost: 10, Performance: 50},
				{Name: "free", Cost: 0, Performance: 30},
			}
			out, err := e.Score(in)

			Convey("Then only positive costs get a value ratio", func() {
				So(err, ShouldBeNil)
				So(out[0].ValueRatio, ShouldNotBeNil)
				So(*out[0].ValueRatio, ShouldEqual, 5.0)
				So(out[1].ValueRatio, ShouldBeNil)
			})
		})

		Convey("When a record carries a NaN metric", func() {
			in := records(1, 2, 3)
			in[1].Performance = math.NaN()
			out, err := e.Score(in)

			Convey("Then the whole call fails naming the rider", func() {
				So(out, ShouldBeNil)
				var verr *rider.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Rider, ShouldEqual, "B")
				So(verr.Field, ShouldEqual, "points")
			})
		})

		Convey("When a record carries an infinite cost", func() {
			in := records(1, 2, 3)
			in[2].Cost = math.Inf(1)
			out, err := e.Score(in)

			Convey("Then the whole call fails naming the cost field", func() {
				So(out, ShouldBeNil)
				var verr *rider.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Rider, ShouldEqual, "C")
				So(verr.Field, ShouldEqual, "stars")
			})
		})

		Convey("When one rider trails far behind the rest", func() {
			out, err := e.Score(records(100, 100, 100, 100, 0))

			Convey("Then the trailer is a struggling underperformer", func() {
				So(err, ShouldBeNil)
				So(out[4].ZScore, ShouldAlmostEqual, -2.0, 1e-9)
				So(out[4].Tier, ShouldEqual, scoring.TierStruggling)
				So(out[4].OutlierClass, ShouldEqual, scoring.Underperformer)
				So(out[0].OutlierClass, ShouldEqual, scoring.NotOutlier)
			})
		})

		Convey("When metrics are close to the float64 limit", func() {
			out, err := e.Score(records(1e308, 1.5e308, 0))

			Convey("Then z-scores stay finite and ordered", func() {
				So(err, ShouldBeNil)
				var sum float64
				for _, r := range out {
					So(math.IsNaN(r.ZScore) || math.IsInf(r.ZScore, 0), ShouldBeFalse)
					sum += r.ZScore
				}
				So(sum, ShouldAlmostEqual, 0, 1e-9)
				So(out[1].Tier, ShouldEqual, scoring.TierElite)
				So(out[0].Tier, ShouldEqual, scoring.TierStrong)
				So(out[2].Tier, ShouldEqual, scoring.TierStruggling)
			})
		})

		Convey("When metrics differ by less than a millionth of their size", func() {
			out, err := e.Score(records(1e6, 1e6+1e-7))

			Convey("Then the difference is still scored", func() {
				So(err, ShouldBeNil)
				So(out[0].ZScore, ShouldAlmostEqual, -1.0, 1e-3)
				So(out[1].ZScore, ShouldAlmostEqual, 1.0, 1e-3)
			})
		})

		Convey("When a population is scored", func() {
			in := records(5, 9, 1, 30)
			in[1].Cost = 0
			before := append([]rider.Record(nil), in...)
			_, err := e.Score(in)

			Convey("Then the input slice is left untouched", func() {
				So(err, ShouldBeNil)
				So(in, ShouldResemble, before)
			})
		})

		Convey("When the same population is scored twice", func() {
			in := records(5, 9, 1, 30)
			first, _ := e.Score(in)
			second, _ := e.Score(in)

			Convey("Then the results are identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestEngineOptions(t *testing.T) {
	Convey("Given custom cut points", t, func() {
		e := scoring.NewEngine(
			scoring.WithTierThresholds(2, 0.5, -0.5),
			scoring.WithOutlierThreshold(1),
		)

		Convey("Then tiers follow the new bounds", func() {
			So(e.TierFor(2), ShouldEqual, scoring.TierElite)
			So(e.TierFor(1.9), ShouldEqual, scoring.TierStrong)
			So(e.TierFor(0.4), ShouldEqual, scoring.TierAverage)
			So(e.TierFor(-0.6), ShouldEqual, scoring.TierStruggling)
		})

		Convey("Then outliers are symmetric around zero", func() {
			So(e.OutlierFor(1), ShouldEqual, scoring.Overperformer)
			So(e.OutlierFor(-1), ShouldEqual, scoring.Underperformer)
			So(e.OutlierFor(0.99), ShouldEqual, scoring.NotOutlier)
		})
	})

	Convey("Given invalid cut points", t, func() {
		e := scoring.NewEngine(
			scoring.WithTierThresholds(0, 1, 2),
			scoring.WithOutlierThreshold(-3),
		)

		Convey("Then the defaults are kept", func() {
			So(e.Thresholds(), ShouldResemble, scoring.Thresholds{Elite: 1, Strong: 0, Average: -1})
			So(e.OutlierThreshold(), ShouldEqual, scoring.DefaultOutlierZ)
		})
	})
}

func TestCounts(t *testing.T) {
	Convey("Given scored riders", t, func() {
		out, err := scoring.NewEngine().Score(records(0, 0, 0, 100))
		So(err, ShouldBeNil)

		Convey("Then tiers and outlier classes are tallied", func() {
			tiers, outliers := scoring.Counts(out)
			So(tiers[scoring.TierElite], ShouldEqual, 1)
			So(tiers[scoring.TierAverage], ShouldEqual, 3)
			So(outliers[scoring.Overperformer], ShouldEqual, 1)
			So(outliers[scoring.NotOutlier], ShouldEqual, 3)
		})
	})
}
