// Package sqlite implements the SQLite storage backend for worldwise.
// SQLite is the query engine; cities.jsonl in the data directory is the
// source of truth and is rewritten after every change.
package sqlite

// Schema DDL.
const (
	createCities = `CREATE TABLE cities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    city_name TEXT NOT NULL,
    country TEXT NOT NULL,
    emoji TEXT NOT NULL,
    date TEXT NOT NULL,
    notes TEXT NOT NULL,
    lat REAL NOT NULL,
    lng REAL NOT NULL
);`

	idxCitiesCountry = `CREATE INDEX idx_cities_country ON cities(country);`
)

// schemaDDL lists all statements run on a fresh database, in order.
var schemaDDL = []string{
	createCities,
	idxCitiesCountry,
}

// Files in the data directory.
const (
	dbFileName     = "worldwise.db"
	citiesJSONL    = "cities.jsonl"
	citiesTableSQL = "cities"
)

// cityColumns is the column order used by every SELECT and INSERT.
var cityColumns = []string{"id", "city_name", "country", "emoji", "date", "notes", "lat", "lng"}
