// Package types defines the city record, the CityTable storage interface,
// backend configuration and the standard errors shared by the worldwise
// store, client, API service and storage backend.
package types
