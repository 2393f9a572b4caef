package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/internal/api"
	"github.com/mesh-intelligence/worldwise/internal/sqlite"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cities API",
		Long: "Serve the cities REST API from the data directory until interrupted.\n\n" +
			"Routes:\n" +
			"  GET    /cities[?country=&near=lat,lng&within_km=]\n" +
			"  POST   /cities\n" +
			"  GET    /cities/{id}\n" +
			"  DELETE /cities/{id}\n" +
			"  GET    /countries\n" +
			"  GET    /health\n" +
			"  GET    /metrics",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.settings.ListenAddr
			}
			return a.runServe(cmd, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides listen_addr)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, listen string) error {
	dataDir, err := a.dataDir()
	if err != nil {
		return err
	}

	backend := sqlite.NewBackend(sqlite.WithLogger(a.logger))
	if err := backend.Attach(a.settings.BackendConfig(dataDir)); err != nil {
		return sysError(fmt.Errorf("attach backend: %w", err))
	}
	defer func() {
		if err := backend.Detach(); err != nil {
			a.logger.Warn("detach backend", slog.Any("error", err))
		}
	}()

	table, err := backend.Cities()
	if err != nil {
		return sysError(fmt.Errorf("cities table: %w", err))
	}

	srv := api.New(table,
		api.WithLogger(a.logger),
		api.WithRateLimit(a.settings.RateLimit, a.settings.RateBurst),
		api.WithCORSOrigins(a.settings.CORSOrigins...),
		api.WithCacheTTL(a.settings.CacheTTL),
		api.WithHealthCheck(backend.Ping),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting api", slog.String("listen", listen), slog.String("data_dir", dataDir))
	if err := srv.ListenAndServe(ctx, listen); err != nil {
		return sysError(err)
	}
	return nil
}
