package analytics

import (
	"math"
	"sort"

	"github.com/okian/peloton/internal/domain/rider"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the riders that scored points.
type Summary struct {
	Riders            int     `json:"riders"`
	RidersWithPoints  int     `json:"riders_with_points"`
	MeanPoints        float64 `json:"mean_points"`
	MedianPoints      float64 `json:"median_points"`
	StdDevPoints      float64 `json:"std_dev_points"`
	BestRider         string  `json:"best_rider,omitempty"`
	BestPoints        float64 `json:"best_points"`
	MeanPointsPerStar float64 `json:"mean_points_per_star"`
	MeanStars         float64 `json:"mean_stars"`
}

// GroupStats aggregates riders with points that share a position.
type GroupStats struct {
	Key          string  `json:"key"`
	Count        int     `json:"count"`
	MeanPoints   float64 `json:"mean_points"`
	StdDevPoints float64 `json:"std_dev_points"`
	Efficiency   float64 `json:"efficiency"`
}

// TeamStats aggregates every rider of a team.
type TeamStats struct {
	Team        string  `json:"team"`
	Riders      int     `json:"riders"`
	MeanStars   float64 `json:"mean_stars"`
	TotalPoints float64 `json:"total_points"`
}

// TrendLine is the least-squares fit of points on stars.
type TrendLine struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
	N         int     `json:"n"`
}

// Expected returns the fitted points for a star cost.
func (t TrendLine) Expected(stars float64) float64 {
	return t.Intercept + t.Slope*stars
}

// minTrendRiders is the number of riders with points a trend line needs to exceed.
const minTrendRiders = 5

// Summarize computes population-wide statistics. Point statistics only
// consider riders with points.
func Summarize(records []rider.Record) Summary {
	s := Summary{Riders: len(records)}
	if len(records) == 0 {
		return s
	}

	stars := make([]float64, 0, len(records))
	for _, r := range records {
		stars = append(stars, r.Cost)
	}
	s.MeanStars = stat.Mean(stars, nil)

	points, pps := withPoints(records)
	s.RidersWithPoints = len(points)
	if len(points) == 0 {
		return s
	}

	s.MeanPoints = stat.Mean(points, nil)
	s.StdDevPoints = sampleStdDev(points)
	sorted := append([]float64(nil), points...)
	sort.Float64s(sorted)
	s.MedianPoints = quantile(sorted, 0.5)
	if len(pps) > 0 {
		s.MeanPointsPerStar = stat.Mean(pps, nil)
	}

	for _, r := range records {
		if r.Performance > s.BestPoints {
			s.BestPoints = r.Performance
			s.BestRider = r.Name
		}
	}
	return s
}

// ByPosition groups riders with points by position, most efficient first.
func ByPosition(records []rider.Record) []GroupStats {
	type acc struct {
		points []float64
		pps    []float64
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		if !r.HasPoints() {
			continue
		}
		g, ok := groups[r.Position]
		if !ok {
			g = &acc{}
			groups[r.Position] = g
		}
		g.points = append(g.points, r.Performance)
		if ratio, ok := r.ValueRatio(); ok {
			g.pps = append(g.pps, ratio)
		}
	}

	out := make([]GroupStats, 0, len(groups))
	for key, g := range groups {
		gs := GroupStats{
			Key:          key,
			Count:        len(g.points),
			MeanPoints:   stat.Mean(g.points, nil),
			StdDevPoints: sampleStdDev(g.points),
		}
		if len(g.pps) > 0 {
			gs.Efficiency = stat.Mean(g.pps, nil)
		}
		out = append(out, gs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Efficiency != out[j].Efficiency {
			return out[i].Efficiency > out[j].Efficiency
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ByTeam groups all riders by team, most expensive roster first.
func ByTeam(records []rider.Record) []TeamStats {
	idx := make(map[string]int)
	out := make([]TeamStats, 0)
	for _, r := range records {
		i, ok := idx[r.Team]
		if !ok {
			i = len(out)
			idx[r.Team] = i
			out = append(out, TeamStats{Team: r.Team})
		}
		t := &out[i]
		t.Riders++
		t.MeanStars += r.Cost
		t.TotalPoints += r.Performance
	}
	for i := range out {
		out[i].MeanStars /= float64(out[i].Riders)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MeanStars != out[j].MeanStars {
			return out[i].MeanStars > out[j].MeanStars
		}
		return out[i].Team < out[j].Team
	})
	return out
}

// FitTrendLine regresses points on stars over riders with points. ok is
// false unless more than five such riders exist and their costs vary.
func FitTrendLine(records []rider.Record) (TrendLine, bool) {
	var xs, ys []float64
	for _, r := range records {
		if r.HasPoints() {
			xs = append(xs, r.Cost)
			ys = append(ys, r.Performance)
		}
	}
	if len(xs) <= minTrendRiders {
		return TrendLine{}, false
	}
	if floats.Max(xs) == floats.Min(xs) {
		return TrendLine{}, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if math.IsNaN(r2) {
		r2 = 0
	}
	return TrendLine{Intercept: alpha, Slope: beta, RSquared: r2, N: len(xs)}, true
}

// withPoints returns the points of riders with points and the points per
// star of those among them with a positive cost.
func withPoints(records []rider.Record) (points, pps []float64) {
	for _, r := range records {
		if !r.HasPoints() {
			continue
		}
		points = append(points, r.Performance)
		if ratio, ok := r.ValueRatio(); ok {
			pps = append(pps, ratio)
		}
	}
	return points, pps
}

// sampleStdDev is zero for fewer than two values instead of NaN.
func sampleStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil)
}

// quantile interpolates linearly between closest ranks of sorted x,
// (n-1)*p positioning. x must be sorted and non-empty.
func quantile(x []float64, p float64) float64 {
	if len(x) == 1 {
		return x[0]
	}
	pos := p * float64(len(x)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return x[lo]
	}
	frac := pos - float64(lo)
	return x[lo] + frac*(x[hi]-x[lo])
}
