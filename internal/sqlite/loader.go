package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// loadCities reads the JSONL file at path into the cities table inside one
// transaction: either every usable record loads or the table stays empty.
// Lines that are not a city with an integer id, or that fail validation,
// are skipped with a warning. A later line with the same id replaces an
// earlier one. Returns the number of rows in the table afterwards.
func loadCities(db *sql.DB, path string, logger *slog.Logger) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for i, rec := range records {
		var c types.City
		if err := json.Unmarshal(rec, &c); err != nil {
			logger.Warn("skipping unreadable city", slog.Int("line", i+1), slog.Any("error", err))
			continue
		}
		id, ok := c.ID.Int()
		if !ok {
			logger.Warn("skipping city without integer id", slog.Int("line", i+1), slog.String("id", c.ID.String()))
			continue
		}
		if err := c.Validate(); err != nil {
			logger.Warn("skipping invalid city", slog.Int("line", i+1), slog.Any("error", err))
			continue
		}

		query, args, err := sq.Replace(citiesTableSQL).
			Columns(cityColumns...).
			Values(id, c.CityName, c.Country, c.Emoji, c.Date, c.Notes, c.Position.Lat, c.Position.Lng).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("building insert: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return 0, fmt.Errorf("inserting city %d: %w", id, err)
		}
	}

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM " + citiesTableSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting cities: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return count, nil
}
