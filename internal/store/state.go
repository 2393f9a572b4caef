// Package store is the client-side cache of visited cities.
//
// A Store owns a State, changes it only through Reduce, and keeps it in step
// with the cities API through a Client. Callers construct one Store and pass
// the *Store handle to whatever needs it.
package store

import (
	"slices"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// Fixed messages stored in State.Error when an operation fails.
const (
	MsgLoadCities = "There was an error loading cities..."
	MsgLoadCity   = "There was an error loading the city..."
	MsgCreateCity = "There was an error creating the city..."
	MsgDeleteCity = "There was an error deleting the city..."
)

// State is a snapshot of the store.
type State struct {
	Cities      []types.City `json:"cities"`
	IsLoading   bool         `json:"isLoading"`
	CurrentCity types.City   `json:"currentCity"`
	Error       string       `json:"error"`
}

// Initial returns the state of a freshly constructed store.
func Initial() State {
	return State{Cities: []types.City{}}
}

// Clone returns a copy of s that shares no memory with it.
func (s State) Clone() State {
	out := s
	out.Cities = slices.Clone(s.Cities)
	if out.Cities == nil {
		out.Cities = []types.City{}
	}
	return out
}

// City returns the cached city with the given id.
func (s State) City(id types.CityID) (types.City, bool) {
	for _, c := range s.Cities {
		if c.ID.Equal(id) {
			return c, true
		}
	}
	return types.City{}, false
}
