package source_test

import (
	"testing"

	"github.com/okian/peloton/internal/adapters/source"
	. "github.com/smartystreets/goconvey/convey"
)

const prefix = "race/tour-de-france-femmes/2025/"

func seasonResults() []source.SeasonResult {
	return []source.SeasonResult{
		{StageURL: prefix + "stage-2", Date: "2025-07-27", GCPosition: source.Placing{Value: 6, Valid: true}, PCSPoints: 30, UCIPoints: 5},
		{StageURL: prefix + "stage-1", Date: "2025-07-26", GCPosition: source.Placing{Value: 10, Valid: true}, PCSPoints: 20, UCIPoints: 5},
		{StageURL: "race/giro-d-italia-donne/2025/stage-1", Date: "2025-07-10", GCPosition: source.Placing{Value: 1, Valid: true}, PCSPoints: 100},
		{StageURL: prefix + "stage-3", Date: "2025-07-28", GCPosition: source.Placing{Value: 2, Valid: true}, PCSPoints: 50, UCIPoints: 10},
		{StageURL: prefix + "stage-4", Date: "2025-07-29", PCSPoints: 0},
	}
}

func TestSeasonSummary(t *testing.T) {
	Convey("Given a season with results from several races", t, func() {
		Convey("When summarizing one race", func() {
			s := source.SeasonSummary(seasonResults(), prefix, source.DefaultResultsLimit)

			Convey("Then only that race is totalled", func() {
				So(s.Results, ShouldEqual, 4)
				So(s.PCSPoints, ShouldEqual, 100)
				So(s.UCIPoints, ShouldEqual, 20)
			})

			Convey("Then consistency is the coefficient of variation of GC positions", func() {
				So(s.Consistency, ShouldAlmostEqual, 4.0/6.0, 1e-9)
			})

			Convey("Then a rider moving up the GC has a negative trend", func() {
				So(s.Trend, ShouldAlmostEqual, -4, 1e-9)
			})
		})

		Convey("When the limit is smaller than the race", func() {
			s := source.SeasonSummary(seasonResults(), prefix, 2)

			Convey("Then only the most recent days count", func() {
				So(s.Results, ShouldEqual, 2)
				So(s.PCSPoints, ShouldEqual, 50)
				So(s.Consistency, ShouldEqual, 0)
				So(s.Trend, ShouldEqual, 0)
			})
		})

		Convey("When no result matches the race", func() {
			s := source.SeasonSummary(seasonResults(), "race/unknown/", 10)

			Convey("Then the summary is empty", func() {
				So(s, ShouldResemble, source.Summary{})
			})
		})
	})
}

func TestDecodeProfile(t *testing.T) {
	Convey("Given a results-site payload", t, func() {
		payload := `{"name": "Lotte Kopecky", "nationality": "BE", "season_results": [
			{"stage_url": "` + prefix + `stage-1", "date": "2025-07-26", "gc_position": "12", "pcs_points": 8},
			{"stage_url": "` + prefix + `stage-2", "date": "2025-07-27", "gc_position": "DNF"},
			{"stage_url": "` + prefix + `stage-3", "date": "2025-07-28", "gc_position": 3}
		]}`
		p, err := source.DecodeProfile([]byte(payload))

		Convey("Then positions accept numbers and numeric strings", func() {
			So(err, ShouldBeNil)
			So(p.Nationality, ShouldEqual, "BE")
			So(p.SeasonResults[0].GCPosition, ShouldResemble, source.Placing{Value: 12, Valid: true})
			So(p.SeasonResults[1].GCPosition.Valid, ShouldBeFalse)
			So(p.SeasonResults[2].GCPosition.Value, ShouldEqual, 3)
		})
	})

	Convey("Given a broken payload", t, func() {
		_, err := source.DecodeProfile([]byte(`{"season_results": 5}`))
		So(err, ShouldNotBeNil)
	})
}
