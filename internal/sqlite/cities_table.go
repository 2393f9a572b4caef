package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// Compile-time interface check.
var _ types.CityTable = (*citiesTable)(nil)

// citiesTable implements types.CityTable. Every write is followed by a full
// rewrite of cities.jsonl under the backend write lock.
type citiesTable struct {
	backend   *Backend
	jsonlPath string
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCity(row rowScanner) (types.City, error) {
	var (
		c  types.City
		id int64
	)
	err := row.Scan(&id, &c.CityName, &c.Country, &c.Emoji, &c.Date, &c.Notes, &c.Position.Lat, &c.Position.Lng)
	if err != nil {
		return types.City{}, err
	}
	c.ID = types.CityID(strconv.FormatInt(id, 10))
	return c, nil
}

// parseID converts a CityID to the integer primary key.
func parseID(id types.CityID) (int64, error) {
	n, ok := id.Int()
	if !ok || n <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, id.String())
	}
	return n, nil
}

// Get retrieves a city by ID.
func (t *citiesTable) Get(ctx context.Context, id types.CityID) (types.City, error) {
	n, err := parseID(id)
	if err != nil {
		return types.City{}, err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return types.City{}, types.ErrDetached
	}

	query, args, err := sq.Select(cityColumns...).From(citiesTableSQL).Where(sq.Eq{"id": n}).ToSql()
	if err != nil {
		return types.City{}, fmt.Errorf("building query: %w", err)
	}
	c, err := scanCity(t.backend.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.City{}, types.ErrNotFound
	}
	if err != nil {
		return types.City{}, fmt.Errorf("getting city %d: %w", n, err)
	}
	return c, nil
}

// Create validates and stores city, assigning the next integer ID.
func (t *citiesTable) Create(ctx context.Context, city types.City) (types.City, error) {
	if err := city.Validate(); err != nil {
		return types.City{}, err
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.City{}, types.ErrDetached
	}

	query, args, err := sq.Insert(citiesTableSQL).
		Columns(cityColumns[1:]...).
		Values(city.CityName, city.Country, city.Emoji, city.Date, city.Notes, city.Position.Lat, city.Position.Lng).
		ToSql()
	if err != nil {
		return types.City{}, fmt.Errorf("building insert: %w", err)
	}
	res, err := t.backend.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.City{}, fmt.Errorf("inserting city: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.City{}, fmt.Errorf("reading assigned id: %w", err)
	}
	city.ID = types.CityID(strconv.FormatInt(id, 10))

	if err := t.persistLocked(ctx); err != nil {
		return types.City{}, err
	}
	return city, nil
}

// Delete removes a city by ID.
func (t *citiesTable) Delete(ctx context.Context, id types.CityID) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrDetached
	}

	query, args, err := sq.Delete(citiesTableSQL).Where(sq.Eq{"id": n}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	res, err := t.backend.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting city %d: %w", n, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting city %d: %w", n, err)
	}
	if affected == 0 {
		return types.ErrNotFound
	}
	return t.persistLocked(ctx)
}

// Fetch returns cities matching filter, ordered by ID.
func (t *citiesTable) Fetch(ctx context.Context, filter types.Filter) ([]types.City, error) {
	if filter.Near != nil && !filter.Near.Valid() {
		return nil, types.ErrInvalidPosition
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrDetached
	}

	cities, err := t.selectLocked(ctx, filter.Country)
	if err != nil {
		return nil, err
	}
	if filter.Near != nil {
		cities = types.Within(cities, *filter.Near, filter.WithinKm)
	}
	if cities == nil {
		cities = []types.City{}
	}
	return cities, nil
}

// selectLocked runs the SELECT for Fetch and persistLocked. The caller holds
// the backend lock.
func (t *citiesTable) selectLocked(ctx context.Context, country string) ([]types.City, error) {
	q := sq.Select(cityColumns...).From(citiesTableSQL).OrderBy("id")
	if country != "" {
		q = q.Where(sq.Eq{"country": country})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := t.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cities: %w", err)
	}
	defer rows.Close()

	var cities []types.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cities: %w", err)
	}
	return cities, nil
}

// persistLocked rewrites cities.jsonl from the table. The caller holds the
// backend write lock.
func (t *citiesTable) persistLocked(ctx context.Context) error {
	cities, err := t.selectLocked(ctx, "")
	if err != nil {
		return fmt.Errorf("persisting %s: %w", citiesJSONL, err)
	}
	records := make([]json.RawMessage, 0, len(cities))
	for _, c := range cities {
		rec, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding city %s: %w", c.ID, err)
		}
		records = append(records, rec)
	}
	if err := writeJSONL(t.jsonlPath, records); err != nil {
		return fmt.Errorf("persisting %s: %w", citiesJSONL, err)
	}
	return nil
}
