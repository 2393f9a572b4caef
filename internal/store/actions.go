package store

import "github.com/mesh-intelligence/worldwise/pkg/types"

// Action is a state transition request. The set of variants is closed:
// Loading, CitiesLoaded, CityLoaded, CityCreated, CityDeleted and Rejected.
type Action interface {
	// Kind names the action the way it appears in logs.
	Kind() string
	sealed()
}

// Loading marks the start of a request.
type Loading struct{}

// CitiesLoaded replaces the city list.
type CitiesLoaded struct{ Cities []types.City }

// CityLoaded sets the current city.
type CityLoaded struct{ City types.City }

// CityCreated appends a new city and makes it current.
type CityCreated struct{ City types.City }

// CityDeleted removes a city and clears the current city.
type CityDeleted struct{ ID types.CityID }

// Rejected records a failed request.
type Rejected struct{ Message string }

func (Loading) Kind() string      { return "loading" }
func (CitiesLoaded) Kind() string { return "cities/loaded" }
func (CityLoaded) Kind() string   { return "city/loaded" }
func (CityCreated) Kind() string  { return "city/created" }
func (CityDeleted) Kind() string  { return "city/deleted" }
func (Rejected) Kind() string     { return "rejected" }

func (Loading) sealed()      {}
func (CitiesLoaded) sealed() {}
func (CityLoaded) sealed()   {}
func (CityCreated) sealed()  {}
func (CityDeleted) sealed()  {}
func (Rejected) sealed()     {}
