// Package rider defines the rider record scored by the engine and its
// validated construction.
package rider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Positions used by the fantasy game. Position stays a free-form string on
// Record because the scraped dataset is not guaranteed to stick to these.
const (
	PositionLeader     = "Leader"
	PositionSprint     = "Sprint"
	PositionClimber    = "Climber"
	PositionAllRounder = "All-Rounder"
)

// Record is one rider of the fantasy dataset joined with its season results.
type Record struct {
	Name        string  `json:"name"`
	Team        string  `json:"team"`
	Position    string  `json:"position"`
	Cost        float64 `json:"stars"`
	Performance float64 `json:"points"`

	UCIPoints    float64 `json:"uci_points"`
	Consistency  float64 `json:"consistency"`
	Trend        float64 `json:"trend"`
	ResultsCount int     `json:"results_count"`
	Nationality  string  `json:"nationality,omitempty"`
}

// New builds a validated Record.
func New(name, team, position string, cost, performance float64) (Record, error) {
	r := Record{
		Name:        strings.TrimSpace(name),
		Team:        strings.TrimSpace(team),
		Position:    strings.TrimSpace(position),
		Cost:        cost,
		Performance: performance,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate rejects records without a name or with non-finite numbers.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Reason: "empty"}
	}
	if !finite(r.Cost) {
		return &ValidationError{Rider: r.Name, Field: "stars", Reason: "not a finite number"}
	}
	if !finite(r.Performance) {
		return &ValidationError{Rider: r.Name, Field: "points", Reason: "not a finite number"}
	}
	return nil
}

// ValueRatio returns performance per star. ok is false when cost <= 0.
func (r Record) ValueRatio() (ratio float64, ok bool) {
	if r.Cost <= 0 {
		return 0, false
	}
	return r.Performance / r.Cost, true
}

// HasPoints reports whether the rider scored any performance points.
func (r Record) HasPoints() bool { return r.Performance > 0 }

// NewPopulation validates every record and enforces name uniqueness.
// The returned slice is a copy in input order.
func NewPopulation(records []Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRider, r.Name)
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// ParseNumber converts a decoded JSON value into a float64. Numbers and
// numeric strings are accepted; anything else is a ValidationError naming
// the rider and field. Decoders should use json.Decoder.UseNumber.
func ParseNumber(riderName, field string, v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case nil:
		return 0, &ValidationError{Rider: riderName, Field: field, Reason: "missing"}
	default:
		return 0, &ValidationError{Rider: riderName, Field: field, Reason: fmt.Sprintf("unexpected type %T", v)}
	}
	if err != nil {
		return 0, &ValidationError{Rider: riderName, Field: field, Reason: fmt.Sprintf("not numeric: %v", v)}
	}
	if !finite(f) {
		return 0, &ValidationError{Rider: riderName, Field: field, Reason: "not a finite number"}
	}
	return f, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
