// Package scoring turns a rider population into z-scores, performance tiers,
// outlier classes and value ratios.
package scoring

import (
	"math"

	"github.com/okian/peloton/internal/domain/rider"
	"gonum.org/v1/gonum/stat"
)

// Default cut points. Tier thresholds must stay strictly decreasing.
const (
	DefaultEliteZ   = 1.0
	DefaultStrongZ  = 0.0
	DefaultAverageZ = -1.0
	// DefaultOutlierZ is symmetric around zero. A population of n riders can
	// never exceed a z of sqrt(n-1), so 2.0 would hide every outlier in
	// populations of four or fewer.
	DefaultOutlierZ = 1.5
)

// Tier is a discrete performance category derived from the z-score.
type Tier string

// Tiers from best to worst.
const (
	TierElite      Tier = "Elite"
	TierStrong     Tier = "Strong"
	TierAverage    Tier = "Average"
	TierStruggling Tier = "Struggling"
)

// Tiers lists every tier from best to worst.
var Tiers = []Tier{TierElite, TierStrong, TierAverage, TierStruggling}

// Rank orders tiers: higher is better. Unknown tiers rank below Struggling.
func (t Tier) Rank() int {
	switch t {
	case TierElite:
		return 3
	case TierStrong:
		return 2
	case TierAverage:
		return 1
	case TierStruggling:
		return 0
	default:
		return -1
	}
}

// OutlierClass flags riders far from the population mean.
type OutlierClass string

// Outlier classes.
const (
	Overperformer  OutlierClass = "Overperformer"
	Underperformer OutlierClass = "Underperformer"
	NotOutlier     OutlierClass = "None"
)

// ScoredRider is a rider record annotated by the engine.
type ScoredRider struct {
	rider.Record

	ZScore       float64      `json:"z_score"`
	Tier         Tier         `json:"tier"`
	ValueRatio   *float64     `json:"value_ratio,omitempty"`
	OutlierClass OutlierClass `json:"outlier_class"`
}

// Thresholds are the lower z bounds of the Elite, Strong and Average tiers.
type Thresholds struct {
	Elite   float64
	Strong  float64
	Average float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTierThresholds sets the tier cut points. Non-monotonic values are ignored.
func WithTierThresholds(elite, strong, average float64) Option {
	return func(e *Engine) {
		if elite > strong && strong > average {
			e.tiers = Thresholds{Elite: elite, Strong: strong, Average: average}
		}
	}
}

// WithOutlierThreshold sets the symmetric outlier cut point. Non-positive values are ignored.
func WithOutlierThreshold(z float64) Option {
	return func(e *Engine) {
		if z > 0 && !math.IsInf(z, 0) {
			e.outlierZ = z
		}
	}
}

// Engine scores rider populations. It holds only its cut points and is safe
// for concurrent use.
type Engine struct {
	tiers    Thresholds
	outlierZ float64
}

// NewEngine creates an engine with the default cut points.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		tiers:    Thresholds{Elite: DefaultEliteZ, Strong: DefaultStrongZ, Average: DefaultAverageZ},
		outlierZ: DefaultOutlierZ,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the tier cut points in use.
func (e *Engine) Thresholds() Thresholds { return e.tiers }

// OutlierThreshold returns the outlier cut point in use.
func (e *Engine) OutlierThreshold() float64 { return e.outlierZ }

// Score annotates every rider against the statistics of the whole slice.
// The input is not modified and the output keeps its order. An empty input
// yields an empty result. A malformed record fails the whole call with a
// *rider.ValidationError.
//
// The population is degenerate only when every metric is exactly equal;
// any difference, however small, is scored. Metrics are scaled by their
// largest magnitude before the mean and spread are taken, so z-scores stay
// finite for any finite input.
func (e *Engine) Score(riders []rider.Record) ([]ScoredRider, error) {
	out := make([]ScoredRider, 0, len(riders))
	if len(riders) == 0 {
		return out, nil
	}

	metrics := make([]float64, len(riders))
	var peak float64
	degenerate := true
	for i, r := range riders {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		metrics[i] = r.Performance
		peak = math.Max(peak, math.Abs(r.Performance))
		if r.Performance != riders[0].Performance {
			degenerate = false
		}
	}

	var mean, sigma float64
	if !degenerate {
		for i := range metrics {
			metrics[i] /= peak
		}
		mean, sigma = stat.PopMeanStdDev(metrics, nil)
	}

	for i, r := range riders {
		s := ScoredRider{Record: r}
		if degenerate {
			s.ZScore = 0
			s.Tier = TierAverage
			s.OutlierClass = NotOutlier
		} else {
			s.ZScore = stat.StdScore(metrics[i], mean, sigma)
			if math.IsNaN(s.ZScore) || math.IsInf(s.ZScore, 0) {
				return nil, &rider.ValidationError{Rider: r.Name, Field: "points", Reason: "out of range for scoring"}
			}
			s.Tier = e.TierFor(s.ZScore)
			s.OutlierClass = e.OutlierFor(s.ZScore)
		}
		if ratio, ok := r.ValueRatio(); ok {
			s.ValueRatio = &ratio
		}
		out = append(out, s)
	}
	return out, nil
}

// TierFor maps a z-score onto a tier.
func (e *Engine) TierFor(z float64) Tier {
	switch {
	case z >= e.tiers.Elite:
		return TierElite
	case z >= e.tiers.Strong:
		return TierStrong
	case z >= e.tiers.Average:
		return TierAverage
	default:
		return TierStruggling
	}
}

// OutlierFor maps a z-score onto an outlier class.
func (e *Engine) OutlierFor(z float64) OutlierClass {
	switch {
	case z >= e.outlierZ:
		return Overperformer
	case z <= -e.outlierZ:
		return Underperformer
	default:
		return NotOutlier
	}
}

// Counts tallies scored riders per tier and per outlier class.
func Counts(scored []ScoredRider) (tiers map[Tier]int, outliers map[OutlierClass]int) {
	tiers = make(map[Tier]int, len(Tiers))
	outliers = make(map[OutlierClass]int, 3)
	for _, s := range scored {
		tiers[s.Tier]++
		outliers[s.OutlierClass]++
	}
	return tiers, outliers
}
