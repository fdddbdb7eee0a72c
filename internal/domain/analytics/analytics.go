// Package analytics derives fantasy insights from a rider population:
// value tiers, efficiency outliers, value picks, a cost trend line and
// grouped statistics.
package analytics

import (
	"github.com/okian/peloton/internal/domain/rider"
	"github.com/okian/peloton/internal/domain/scoring"
)

// Defaults for Options.
const (
	DefaultEfficiencyZ    = 1.5
	DefaultValueMinPoints = 10
	DefaultValueMaxStars  = 4
	DefaultValuePickLimit = 5
)

// Options tune the insight thresholds.
type Options struct {
	EfficiencyZ    float64
	ValueMinPoints float64
	ValueMaxStars  float64
	ValuePickLimit int
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		EfficiencyZ:    DefaultEfficiencyZ,
		ValueMinPoints: DefaultValueMinPoints,
		ValueMaxStars:  DefaultValueMaxStars,
		ValuePickLimit: DefaultValuePickLimit,
	}
}

// Report bundles every insight for one population.
type Report struct {
	Summary         Summary                      `json:"summary"`
	Percentiles     Percentiles                  `json:"percentiles"`
	ValueTiers      map[ValueTier]int            `json:"value_tiers"`
	Tiers           map[scoring.Tier]int         `json:"tiers"`
	OutlierClasses  map[scoring.OutlierClass]int `json:"outlier_classes"`
	Overperformers  []Efficiency                 `json:"overperformers"`
	Underperformers []Efficiency                 `json:"underperformers"`
	ValuePicks      []ValuePick                  `json:"value_picks"`
	TrendLine       *TrendLine                   `json:"trend_line,omitempty"`
	Positions       []GroupStats                 `json:"positions"`
	Teams           []TeamStats                  `json:"teams"`
}

// Build computes a Report. scored must be the engine output for records.
func Build(records []rider.Record, scored []scoring.ScoredRider, opts Options) Report {
	pct := ComputePercentiles(records)
	valueTiers := make(map[ValueTier]int)
	for _, r := range records {
		valueTiers[pct.ValueTierOf(r)]++
	}
	tiers, outliers := scoring.Counts(scored)
	over, under := EfficiencyOutliers(records, opts.EfficiencyZ)

	rep := Report{
		Summary:         Summarize(records),
		Percentiles:     pct,
		ValueTiers:      valueTiers,
		Tiers:           tiers,
		OutlierClasses:  outliers,
		Overperformers:  over,
		Underperformers: under,
		ValuePicks:      ValuePicks(records, opts.ValueMinPoints, opts.ValueMaxStars, opts.ValuePickLimit),
		Positions:       ByPosition(records),
		Teams:           ByTeam(records),
	}
	if tl, ok := FitTrendLine(records); ok {
		rep.TrendLine = &tl
	}
	return rep
}
