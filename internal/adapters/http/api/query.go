package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/domain/filter"
)

// parseCriteria reads the filter controls shared by /riders and /insights.
func parseCriteria(v url.Values) (filter.Criteria, error) {
	c := filter.Criteria{
		Search:   strings.TrimSpace(v.Get("q")),
		Team:     strings.TrimSpace(v.Get("team")),
		Position: strings.TrimSpace(v.Get("position")),
	}

	var err error
	if c.MinStars, err = optionalFloat(v, "min_stars"); err != nil {
		return c, err
	}
	if c.MaxStars, err = optionalFloat(v, "max_stars"); err != nil {
		return c, err
	}
	if c.WithPoints, err = optionalBool(v, "with_points"); err != nil {
		return c, err
	}
	if c.HighValue, err = optionalBool(v, "high_value"); err != nil {
		return c, err
	}
	return c, nil
}

// parseQuery reads the full GET /riders query.
func parseQuery(v url.Values) (service.Query, error) {
	c, err := parseCriteria(v)
	if err != nil {
		return service.Query{}, err
	}
	q := service.Query{Criteria: c}

	if q.Sort, err = filter.ParseSortKey(v.Get("sort")); err != nil {
		return q, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	switch strings.ToLower(v.Get("order")) {
	case "", "desc":
	case "asc":
		q.Ascending = true
	default:
		return q, fmt.Errorf("%w: order must be asc or desc", ErrBadRequest)
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
		}
		q.Limit = n
	}
	return q, nil
}

func optionalFloat(v url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s must be a finite number", ErrBadRequest, key)
	}
	return &f, nil
}

func optionalBool(v url.Values, key string) (bool, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", ErrBadRequest, key)
	}
	return b, nil
}
