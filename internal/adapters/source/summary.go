package source

import (
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultResultsLimit is how many recent race days a summary keeps.
const DefaultResultsLimit = 10

const dateLayout = "2006-01-02"

// Summary aggregates a rider's results for one race.
type Summary struct {
	PCSPoints float64
	UCIPoints float64
	Results   int
	// Consistency is the coefficient of variation of GC positions. Lower is steadier.
	Consistency float64
	// Trend is the least-squares slope of GC position over days. Negative
	// means the rider is moving up.
	Trend float64
}

type datedResult struct {
	SeasonResult
	at time.Time
	ok bool
}

// SeasonSummary keeps the results whose stage URL starts with racePrefix,
// trims them to the most recent limit and aggregates them. A non-positive
// limit keeps every result.
func SeasonSummary(results []SeasonResult, racePrefix string, limit int) Summary {
	var race []datedResult
	for _, r := range results {
		if !strings.HasPrefix(r.StageURL, racePrefix) {
			continue
		}
		at, err := time.Parse(dateLayout, strings.TrimSpace(r.Date))
		race = append(race, datedResult{SeasonResult: r, at: at, ok: err == nil})
	}
	sort.SliceStable(race, func(i, j int) bool { return race[i].at.Before(race[j].at) })
	if limit > 0 && len(race) > limit {
		race = race[len(race)-limit:]
	}

	var s Summary
	s.Results = len(race)
	for _, r := range race {
		s.PCSPoints += r.PCSPoints
		s.UCIPoints += r.UCIPoints
	}
	s.Consistency, s.Trend = consistencyAndTrend(race)
	return s
}

func consistencyAndTrend(race []datedResult) (consistency, trend float64) {
	var (
		positions []float64
		days      []float64
		first     time.Time
	)
	for _, r := range race {
		if !r.GCPosition.Valid || !r.ok {
			continue
		}
		if len(positions) == 0 {
			first = r.at
		}
		positions = append(positions, float64(r.GCPosition.Value))
		days = append(days, r.at.Sub(first).Hours()/24)
	}
	if len(positions) < 2 {
		return 0, 0
	}

	mean, std := stat.MeanStdDev(positions, nil)
	if mean > 0 {
		consistency = std / mean
	}
	if days[len(days)-1] > days[0] {
		_, trend = stat.LinearRegression(days, positions, nil, false)
	}
	return consistency, trend
}
