package analytics

import (
	"sort"

	"github.com/okian/peloton/internal/domain/rider"
)

// ValueTier grades points per star against the rest of the field.
type ValueTier string

// Value tiers from best to worst.
const (
	ValueExceptional ValueTier = "Exceptional"
	ValueGreat       ValueTier = "Great"
	ValueGood        ValueTier = "Good"
	ValueStandard    ValueTier = "Standard"
	ValueNoData      ValueTier = "No Data"
)

// Percentiles of points per star among riders with points.
type Percentiles struct {
	P90 float64 `json:"p90"`
	P75 float64 `json:"p75"`
	P50 float64 `json:"p50"`
	P25 float64 `json:"p25"`
}

// ComputePercentiles returns zero percentiles when nobody has points.
func ComputePercentiles(records []rider.Record) Percentiles {
	_, pps := withPoints(records)
	if len(pps) == 0 {
		return Percentiles{}
	}
	sort.Float64s(pps)
	return Percentiles{
		P90: quantile(pps, 0.90),
		P75: quantile(pps, 0.75),
		P50: quantile(pps, 0.50),
		P25: quantile(pps, 0.25),
	}
}

// TierFor grades a points-per-star value.
func (p Percentiles) TierFor(pointsPerStar float64) ValueTier {
	if pointsPerStar <= 0 {
		return ValueNoData
	}
	switch {
	case pointsPerStar >= p.P90:
		return ValueExceptional
	case pointsPerStar >= p.P75:
		return ValueGreat
	case pointsPerStar >= p.P50:
		return ValueGood
	default:
		return ValueStandard
	}
}

// ValueTierOf grades a rider. Riders without a cost have no data.
func (p Percentiles) ValueTierOf(r rider.Record) ValueTier {
	ratio, ok := r.ValueRatio()
	if !ok {
		return ValueNoData
	}
	return p.TierFor(ratio)
}

// ValuePick is a cheap rider with a solid points haul.
type ValuePick struct {
	Name       string  `json:"name"`
	Team       string  `json:"team"`
	Stars      float64 `json:"stars"`
	Points     float64 `json:"points"`
	ValueScore float64 `json:"value_score"`
}

// ValuePicks returns up to limit riders with at least minPoints and at most
// maxStars, best points per star first.
func ValuePicks(records []rider.Record, minPoints, maxStars float64, limit int) []ValuePick {
	picks := make([]ValuePick, 0)
	for _, r := range records {
		if r.Performance < minPoints || r.Cost > maxStars {
			continue
		}
		ratio, ok := r.ValueRatio()
		if !ok {
			continue
		}
		picks = append(picks, ValuePick{
			Name:       r.Name,
			Team:       r.Team,
			Stars:      r.Cost,
			Points:     r.Performance,
			ValueScore: ratio,
		})
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].ValueScore > picks[j].ValueScore })
	if limit > 0 && len(picks) > limit {
		picks = picks[:limit]
	}
	return picks
}
