// Package cli implements the worldwise command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldwise/internal/client"
	"github.com/mesh-intelligence/worldwise/internal/config"
	"github.com/mesh-intelligence/worldwise/internal/logging"
	"github.com/mesh-intelligence/worldwise/internal/paths"
	"github.com/mesh-intelligence/worldwise/internal/store"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code a command failed with.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by bad input.
func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// sysError marks err as an environment or storage failure.
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// ExitCode maps a command error to a process exit code. Request failures
// are system errors; anything unclassified (bad flags, bad args) is a user
// error.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrRequestFailed) {
		return exitSysError
	}
	return exitUserError
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	apiURL    string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	settings  config.Settings
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "worldwise" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: logging.Discard()}

	root := &cobra.Command{
		Use:   "worldwise",
		Short: "Track the cities you have visited",
		Long: "worldwise keeps a list of visited cities behind a small REST API.\n" +
			"Run \"worldwise serve\" to host the API, then use the other commands\nto browse and edit the list.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	pf.StringVar(&a.flags.apiURL, "api-url", "", "base URL of the cities API (overrides api_url)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log_level)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newConfigCmd(a),
		newServeCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newDeleteCmd(a),
		newCountriesCmd(a),
		newNearCmd(a),
	)
	return root
}

// Run executes the CLI with args and returns the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return ExitCode(err)
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// setup resolves the config directory, loads settings and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = dir

	s, err := config.Load(dir)
	if err != nil {
		return userError("load config: %w", err)
	}
	if a.flags.apiURL != "" {
		s.APIURL = a.flags.apiURL
	}
	if a.flags.logLevel != "" {
		s.LogLevel = a.flags.logLevel
	}
	a.settings = s

	logger, err := logging.New(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
	if err != nil {
		return userError("configure logging: %w", err)
	}
	a.logger = logger
	return nil
}

// dataDir resolves the data directory from flag, config and environment.
func (a *app) dataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
	if err != nil {
		return "", sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	return dir, nil
}

// client builds the API client from the loaded settings.
func (a *app) client() (*client.Client, error) {
	c, err := client.New(a.settings.APIURL,
		client.WithTimeout(a.settings.RequestTimeout),
		client.WithLogger(a.logger))
	if err != nil {
		return nil, userError("api url: %w", err)
	}
	return c, nil
}

func (a *app) storeOptions() []store.Option {
	opts := []store.Option{store.WithLogger(a.logger)}
	if a.settings.ClearErrorOnSuccess {
		opts = append(opts, store.WithClearErrorOnSuccess())
	}
	return opts
}

// newStore returns a store that has not loaded anything yet.
func (a *app) newStore() (*store.Store, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	return store.New(c, a.storeOptions()...), nil
}

// openStore returns a store after its initial load.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(ctx, c, a.storeOptions()...)
	if err != nil {
		return nil, a.storeFailure(s, err)
	}
	return s, nil
}

// storeFailure reports the message the store recorded for a failed
// operation, keeping err for errors.Is.
func (a *app) storeFailure(s *store.Store, err error) error {
	a.logger.Debug("store operation failed", slog.Any("error", err))
	return sysError(fmt.Errorf("%s: %w", s.State().Error, err))
}
