package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RiderProfile is the results-site payload for one rider.
type RiderProfile struct {
	Name          string         `json:"name"`
	Nationality   string         `json:"nationality"`
	Birthdate     string         `json:"birthdate"`
	SeasonResults []SeasonResult `json:"season_results"`
}

// SeasonResult is one race day of a rider's season.
type SeasonResult struct {
	StageURL   string  `json:"stage_url"`
	Date       string  `json:"date"`
	GCPosition Placing `json:"gc_position"`
	PCSPoints  float64 `json:"pcs_points"`
	UCIPoints  float64 `json:"uci_points"`
}

// Placing is a classification position. Valid is false for non-finishes
// such as "DNF" or a missing value.
type Placing struct {
	Value int
	Valid bool
}

// UnmarshalJSON accepts a number, a numeric string or anything else as invalid.
func (p *Placing) UnmarshalJSON(b []byte) error {
	*p = Placing{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var s string
	switch v := raw.(type) {
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		s = strings.TrimSpace(v)
	default:
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return nil
	}
	*p = Placing{Value: n, Valid: true}
	return nil
}

// MarshalJSON writes the position or null.
func (p Placing) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.Value)), nil
}

// DecodeProfile parses a results-site payload.
func DecodeProfile(b []byte) (RiderProfile, error) {
	var p RiderProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return RiderProfile{}, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	return p, nil
}
