package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius used to turn s2 angles into distances.
const earthRadiusKm = 6371.0088

// CityID identifies a city record. The API assigns it on creation.
//
// On the wire an id may be a JSON number or a JSON string. Integer ids are
// emitted as numbers, anything else as a string.
type CityID string

// String returns the id as text.
func (id CityID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id CityID) IsZero() bool { return id == "" }

// Int returns the id as an int64 when it is an integer.
func (id CityID) Int() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(id)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Equal compares ids with numeric coercion: "5", "05" and 5 are the same id.
// Non-numeric ids compare as plain strings. An empty id equals nothing.
func (id CityID) Equal(other CityID) bool {
	if id.IsZero() || other.IsZero() {
		return false
	}
	a, aErr := strconv.ParseFloat(strings.TrimSpace(string(id)), 64)
	b, bErr := strconv.ParseFloat(strings.TrimSpace(string(other)), 64)
	if aErr == nil && bErr == nil {
		return a == b
	}
	return id == other
}

// MarshalJSON emits integer ids as JSON numbers and other ids as strings.
func (id CityID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if n, ok := id.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *CityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CityID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("city id: %w", err)
	}
	*id = CityID(n.String())
	return nil
}

// Position is a geographic coordinate in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// latLng converts the position to an s2 point.
func (p Position) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// Valid reports whether the position is a finite lat/lng within range.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.latLng().IsValid()
}

// DistanceKm returns the great-circle distance to other in kilometres.
func (p Position) DistanceKm(other Position) float64 {
	return p.latLng().Distance(other.latLng()).Radians() * earthRadiusKm
}

// City is one visited-place entry.
type City struct {
	ID       CityID   `json:"id,omitempty"`
	CityName string   `json:"cityName"`
	Country  string   `json:"country"`
	Emoji    string   `json:"emoji"`
	Date     string   `json:"date"`
	Notes    string   `json:"notes"`
	Position Position `json:"position"`
}

// IsZero reports whether c is the empty record.
func (c City) IsZero() bool {
	return c == City{}
}

// Accepted layouts for City.Date.
var dateLayouts = []string{time.RFC3339Nano, time.DateOnly}

// Validate checks the fields the API requires before a city is stored.
func (c City) Validate() error {
	if strings.TrimSpace(c.CityName) == "" {
		return ErrInvalidName
	}
	if !c.Position.Valid() {
		return ErrInvalidPosition
	}
	if c.Date != "" && !validDate(c.Date) {
		return ErrInvalidDate
	}
	return nil
}

func validDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// Country is a visited country, derived from the cities in it.
type Country struct {
	Country string `json:"country"`
	Emoji   string `json:"emoji"`
}

// Countries returns the unique countries among cities in first-seen order.
// The emoji of the first city seen in a country represents it.
func Countries(cities []City) []Country {
	seen := make(map[string]bool, len(cities))
	countries := make([]Country, 0, len(cities))
	for _, c := range cities {
		if seen[c.Country] {
			continue
		}
		seen[c.Country] = true
		countries = append(countries, Country{Country: c.Country, Emoji: c.Emoji})
	}
	return countries
}
