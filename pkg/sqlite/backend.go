// Package sqlite exposes the SQLite backend to code outside this module
// while keeping its implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/worldwise/internal/sqlite"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*sqlite.Backend)(nil)

// NewBackend creates a new, detached SQLite backend.
//
// Example:
//
//	backend := sqlite.NewBackend(slog.Default())
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/worldwise",
//	})
//	defer backend.Detach()
func NewBackend(logger *slog.Logger) types.Backend {
	if logger == nil {
		return sqlite.NewBackend()
	}
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
