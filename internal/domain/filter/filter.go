// Package filter narrows and orders a rider population the way the
// dashboard sidebar does.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/peloton/internal/domain/rider"
	"github.com/okian/peloton/internal/domain/scoring"
)

// SortKey names a sortable column.
type SortKey string

// Sort keys.
const (
	SortValue       SortKey = "value"
	SortPoints      SortKey = "points"
	SortUCIPoints   SortKey = "uci_points"
	SortStars       SortKey = "stars"
	SortConsistency SortKey = "consistency"
	SortTrend       SortKey = "trend"
	SortName        SortKey = "name"
	SortTeam        SortKey = "team"
	SortPosition    SortKey = "position"
	SortResults     SortKey = "results"
	SortZScore      SortKey = "z_score"
)

// SortKeys lists every accepted sort key.
var SortKeys = []SortKey{
	SortValue, SortPoints, SortUCIPoints, SortStars, SortConsistency, SortTrend,
	SortName, SortTeam, SortPosition, SortResults, SortZScore,
}

// ParseSortKey accepts an empty string as SortValue.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortValue, nil
	}
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortKeys {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// Criteria are the sidebar controls. Zero values disable a control.
type Criteria struct {
	Search     string
	Team       string
	Position   string
	MinStars   *float64
	MaxStars   *float64
	WithPoints bool
	HighValue  bool
}

// Validate rejects an inverted star range.
func (c Criteria) Validate() error {
	if c.MinStars != nil && c.MaxStars != nil && *c.MinStars > *c.MaxStars {
		return fmt.Errorf("%w: min_stars %.1f above max_stars %.1f", ErrInvalidCriteria, *c.MinStars, *c.MaxStars)
	}
	return nil
}

// Apply returns the records matching c in input order. Search runs first and
// the high value control compares against the mean points per star of the
// search result.
func Apply(records []rider.Record, c Criteria) []rider.Record {
	out := Search(records, c.Search)

	if c.HighValue {
		out = aboveMeanValue(out)
	}

	kept := make([]rider.Record, 0, len(out))
	for _, r := range out {
		if c.WithPoints && r.Performance <= 0 && r.UCIPoints <= 0 {
			continue
		}
		if c.MinStars != nil && r.Cost < *c.MinStars {
			continue
		}
		if c.MaxStars != nil && r.Cost > *c.MaxStars {
			continue
		}
		if c.Position != "" && !strings.EqualFold(r.Position, c.Position) {
			continue
		}
		if c.Team != "" && !strings.EqualFold(r.Team, c.Team) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// Search keeps riders whose name, team, position or nationality contains
// term, case-insensitively. A blank term keeps everything.
func Search(records []rider.Record, term string) []rider.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]rider.Record, 0, len(records))
	for _, r := range records {
		if term == "" || matches(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r rider.Record, term string) bool {
	for _, f := range []string{r.Name, r.Team, r.Position, r.Nationality} {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func aboveMeanValue(records []rider.Record) []rider.Record {
	var sum float64
	var n int
	for _, r := range records {
		if ratio, ok := r.ValueRatio(); ok {
			sum += ratio
			n++
		}
	}
	if n == 0 {
		return records
	}
	mean := sum / float64(n)
	out := make([]rider.Record, 0, len(records))
	for _, r := range records {
		if ratio, ok := r.ValueRatio(); ok && ratio >= mean {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders scored riders in place. Riders without a value ratio sort
// last for SortValue regardless of direction. Ties keep their order.
func Sort(riders []scoring.ScoredRider, key SortKey, ascending bool) {
	less := lessFunc(key)
	sort.SliceStable(riders, func(i, j int) bool {
		a, b := riders[i], riders[j]
		if key == SortValue && (a.ValueRatio == nil) != (b.ValueRatio == nil) {
			return b.ValueRatio == nil
		}
		if ascending {
			return less(a, b)
		}
		return less(b, a)
	})
}

func lessFunc(key SortKey) func(a, b scoring.ScoredRider) bool {
	switch key {
	case SortPoints:
		return func(a, b scoring.ScoredRider) bool { return a.Performance < b.Performance }
	case SortUCIPoints:
		return func(a, b scoring.ScoredRider) bool { return a.UCIPoints < b.UCIPoints }
	case SortStars:
		return func(a, b scoring.ScoredRider) bool { return a.Cost < b.Cost }
	case SortConsistency:
		return func(a, b scoring.ScoredRider) bool { return a.Consistency < b.Consistency }
	case SortTrend:
		return func(a, b scoring.ScoredRider) bool { return a.Trend < b.Trend }
	case SortName:
		return func(a, b scoring.ScoredRider) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortTeam:
		return func(a, b scoring.ScoredRider) bool { return strings.ToLower(a.Team) < strings.ToLower(b.Team) }
	case SortPosition:
		return func(a, b scoring.ScoredRider) bool { return a.Position < b.Position }
	case SortResults:
		return func(a, b scoring.ScoredRider) bool { return a.ResultsCount < b.ResultsCount }
	case SortZScore:
		return func(a, b scoring.ScoredRider) bool { return a.ZScore < b.ZScore }
	default:
		return func(a, b scoring.ScoredRider) bool {
			if a.ValueRatio == nil || b.ValueRatio == nil {
				return false
			}
			return *a.ValueRatio < *b.ValueRatio
		}
	}
}
