package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/internal/config"
	"github.com/mesh-intelligence/worldwise/internal/paths"
	"github.com/mesh-intelligence/worldwise/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize worldwise configuration and storage",
		Long:  "Create the configuration directory with a default config.yaml, then\ninitialize the data directory used by \"worldwise serve\".",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	created, err := config.WriteDefault(a.configDir)
	if err != nil {
		return sysError(err)
	}

	dataDir, err := a.dataDir()
	if err != nil {
		return err
	}

	// Attach then detach creates the data directory and cities.jsonl.
	backend := sqlite.NewBackend(sqlite.WithLogger(a.logger))
	if err := backend.Attach(a.settings.BackendConfig(dataDir)); err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := backend.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	a.logger.Debug("initialized",
		slog.String("config_dir", a.configDir),
		slog.String("data_dir", dataDir),
		slog.Bool("config_created", created))
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "worldwise initialized successfully")
	fmt.Fprintf(out, "config: %s\n", paths.ConfigFile(a.configDir))
	fmt.Fprintf(out, "data:   %s\n", dataDir)
	return nil
}
