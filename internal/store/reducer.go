package store

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// Reducer computes the next state from the current state and an action.
type Reducer func(State, Action) State

// Reduce is the store's transition function. It is pure: the returned state
// never shares slices with the input state or the action.
//
// No action clears Error; see ClearErrorOnSuccess.
func Reduce(state State, action Action) State {
	next := state.Clone()
	switch a := action.(type) {
	case Loading:
		next.IsLoading = true
	case CitiesLoaded:
		next.IsLoading = false
		next.Cities = slices.Clone(a.Cities)
		if next.Cities == nil {
			next.Cities = []types.City{}
		}
	case CityLoaded:
		next.IsLoading = false
		next.CurrentCity = a.City
	case CityCreated:
		next.IsLoading = false
		next.Cities = append(next.Cities, a.City)
		next.CurrentCity = a.City
	case CityDeleted:
		next.IsLoading = false
		next.Cities = slices.DeleteFunc(next.Cities, func(c types.City) bool {
			return c.ID.Equal(a.ID)
		})
		next.CurrentCity = types.City{}
	case Rejected:
		next.IsLoading = false
		next.Error = a.Message
	default:
		panic(fmt.Sprintf("store: unknown action %T", action))
	}
	return next
}

// ClearErrorOnSuccess wraps r so that every action other than Loading and
// Rejected also resets Error.
func ClearErrorOnSuccess(r Reducer) Reducer {
	return func(state State, action Action) State {
		next := r(state, action)
		switch action.(type) {
		case Loading, Rejected:
		default:
			next.Error = ""
		}
		return next
	}
}
