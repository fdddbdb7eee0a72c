package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/peloton/internal/domain/rider"
)

// FantasyRider is one entry of the scraped fantasy roster.
type FantasyRider struct {
	Name     string
	Team     string
	Position string
	Stars    float64
	// Points is set when the roster already carries a season total.
	Points *float64
}

var nameKeys = []string{"full_name", "name", "fantasy_name"}

// LoadFantasyFile reads a roster from disk.
func LoadFantasyFile(path string) ([]FantasyRider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fantasy file: %w", err)
	}
	defer f.Close()
	return ParseFantasy(f)
}

// ParseFantasy decodes either a JSON array of rider objects or an object
// keyed by rider name. Entry order is preserved in both shapes.
func ParseFantasy(r io.Reader) ([]FantasyRider, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFantasy, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '[' && delim != '{') {
		return nil, fmt.Errorf("%w: top level must be an array or an object", ErrUnsupportedFormat)
	}

	out := make([]FantasyRider, 0)
	for dec.More() {
		var key string
		if delim == '{' {
			kt, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedFantasy, err)
			}
			key, _ = kt.(string)
		}

		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedFantasy, len(out), err)
		}
		fr, err := fantasyFromObject(obj, key)
		if err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFantasy, err)
	}
	return out, nil
}

func fantasyFromObject(obj map[string]any, fallbackName string) (FantasyRider, error) {
	name := ""
	for _, k := range nameKeys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			name = strings.TrimSpace(s)
			break
		}
	}
	if name == "" {
		name = strings.TrimSpace(fallbackName)
	}
	if name == "" {
		return FantasyRider{}, &rider.ValidationError{Field: "name", Reason: "empty"}
	}

	stars, err := rider.ParseNumber(name, "stars", obj["stars"])
	if err != nil {
		return FantasyRider{}, err
	}
	fr := FantasyRider{
		Name:     name,
		Team:     stringField(obj, "team"),
		Position: stringField(obj, "position"),
		Stars:    stars,
	}
	if v, ok := obj["points"]; ok && v != nil {
		p, err := rider.ParseNumber(name, "points", v)
		if err != nil {
			return FantasyRider{}, err
		}
		fr.Points = &p
	}
	return fr, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// StartlistEntry is one rider of a race startlist as published by the
// results site.
type StartlistEntry struct {
	RiderName string `json:"rider_name"`
	RiderURL  string `json:"rider_url"`
	TeamName  string `json:"team_name,omitempty"`
}

// Slug returns the rider identifier from the entry URL.
func (e StartlistEntry) Slug() string {
	return strings.Trim(strings.TrimPrefix(strings.Trim(e.RiderURL, "/"), "rider/"), "/")
}

// LoadStartlistFile reads a JSON array of startlist entries.
func LoadStartlistFile(path string) ([]StartlistEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open startlist file: %w", err)
	}
	var out []StartlistEntry
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: startlist: %v", ErrMalformedFantasy, err)
	}
	return out, nil
}
