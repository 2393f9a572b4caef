package types

import "sort"

// CityDistance pairs a city with its distance from a query position.
type CityDistance struct {
	City       City    `json:"city"`
	DistanceKm float64 `json:"distanceKm"`
}

// ByDistance returns cities sorted by distance from pos, nearest first.
// Ties keep the input order. The input slice is not modified.
func ByDistance(cities []City, pos Position) []CityDistance {
	out := make([]CityDistance, len(cities))
	for i, c := range cities {
		out[i] = CityDistance{City: c, DistanceKm: pos.DistanceKm(c.Position)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Within returns the cities no farther than radiusKm from pos, in input order.
func Within(cities []City, pos Position, radiusKm float64) []City {
	var out []City
	for _, c := range cities {
		if pos.DistanceKm(c.Position) <= radiusKm {
			out = append(out, c)
		}
	}
	return out
}
