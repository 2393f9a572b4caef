package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldwise/internal/logging"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

func TestNewBackend(t *testing.T) {
	for name, b := range map[string]types.Backend{
		"nil logger":  NewBackend(nil),
		"with logger": NewBackend(logging.Discard()),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := b.Cities()
			assert.ErrorIs(t, err, types.ErrDetached)

			require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
			defer b.Detach()

			table, err := b.Cities()
			require.NoError(t, err)
			created, err := table.Create(t.Context(), types.City{CityName: "Lisbon", Position: types.Position{Lat: 38.72, Lng: -9.14}})
			require.NoError(t, err)
			assert.False(t, created.ID.IsZero())
		})
	}
}
