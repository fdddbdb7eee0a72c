package analytics

import (
	"sort"

	"github.com/okian/peloton/internal/domain/rider"
	"gonum.org/v1/gonum/stat"
)

// MinEfficiencyRiders is the smallest number of riders with points for
// which efficiency outliers are reported.
const MinEfficiencyRiders = 5

// Efficiency is a rider's points per star relative to the field.
type Efficiency struct {
	Name          string  `json:"name"`
	Team          string  `json:"team"`
	Stars         float64 `json:"stars"`
	Points        float64 `json:"points"`
	PointsPerStar float64 `json:"points_per_star"`
	ZScore        float64 `json:"z_score"`
}

// EfficiencyOutliers flags riders whose points per star sit more than
// threshold sample standard deviations from the mean. Only riders with
// points and a positive cost take part. Overperformers come back best first,
// underperformers worst first.
func EfficiencyOutliers(records []rider.Record, threshold float64) (over, under []Efficiency) {
	over, under = make([]Efficiency, 0), make([]Efficiency, 0)

	field := make([]Efficiency, 0, len(records))
	for _, r := range records {
		if !r.HasPoints() {
			continue
		}
		ratio, ok := r.ValueRatio()
		if !ok {
			continue
		}
		field = append(field, Efficiency{
			Name:          r.Name,
			Team:          r.Team,
			Stars:         r.Cost,
			Points:        r.Performance,
			PointsPerStar: ratio,
		})
	}
	if len(field) < MinEfficiencyRiders {
		return over, under
	}

	ratios := make([]float64, len(field))
	for i, e := range field {
		ratios[i] = e.PointsPerStar
	}
	mean, std := stat.MeanStdDev(ratios, nil)
	if std == 0 {
		return over, under
	}

	for _, e := range field {
		e.ZScore = stat.StdScore(e.PointsPerStar, mean, std)
		switch {
		case e.ZScore > threshold:
			over = append(over, e)
		case e.ZScore < -threshold:
			under = append(under, e)
		}
	}
	sort.SliceStable(over, func(i, j int) bool { return over[i].ZScore > over[j].ZScore })
	sort.SliceStable(under, func(i, j int) bool { return under[i].ZScore < under[j].ZScore })
	return over, under
}
