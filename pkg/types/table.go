package types

import (
	"context"
	"errors"
)

// Filter narrows CityTable.Fetch. The zero Filter matches every city.
type Filter struct {
	// Country matches cities whose country equals the value exactly.
	Country string
	// Near, when set, keeps cities within WithinKm of the position.
	Near     *Position
	WithinKm float64
}

// CityTable provides CRUD operations for city records.
type CityTable interface {
	// Get retrieves the city with the given ID.
	// Returns ErrNotFound if no city exists with that ID.
	Get(ctx context.Context, id CityID) (City, error)

	// Create validates and stores a new city. Any ID on the input is ignored;
	// the returned city carries the assigned ID.
	Create(ctx context.Context, city City) (City, error)

	// Delete removes the city with the given ID.
	// Returns ErrNotFound if no city exists with that ID.
	Delete(ctx context.Context, id CityID) error

	// Fetch returns all cities matching the filter in insertion order.
	Fetch(ctx context.Context, filter Filter) ([]City, error)
}

// Table operation errors.
var (
	ErrNotFound        = errors.New("city not found")
	ErrInvalidID       = errors.New("invalid city ID")
	ErrInvalidName     = errors.New("city name must not be empty")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidDate     = errors.New("invalid date")
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// ErrRequestFailed is the single error kind of API requests: network errors,
// unexpected status codes and undecodable bodies all wrap it.
var ErrRequestFailed = errors.New("request failed")

// Backend is a storage backend that serves a CityTable. Callers attach it to
// a data directory, use the table, and detach when done.
type Backend interface {
	// Attach connects the backend to the storage described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	Detach() error

	// Cities returns the cities table, or ErrDetached.
	Cities() (CityTable, error)
}
