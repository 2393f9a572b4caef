package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldwise/internal/api"
	"github.com/mesh-intelligence/worldwise/internal/sqlite"
	"github.com/mesh-intelligence/worldwise/internal/store"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// harness runs commands against a live API backed by a temp data dir.
type harness struct {
	t         *testing.T
	configDir string
	apiURL    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	table, err := b.Cities()
	require.NoError(t, err)

	srv := httptest.NewServer(api.New(table).Handler())
	t.Cleanup(srv.Close)
	return &harness{t: t, configDir: t.TempDir(), apiURL: srv.URL}
}

// run executes the CLI and returns the exit code, stdout and stderr.
func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", h.configDir, "--api-url", h.apiURL}, args...)
	code := Run(h.t.Context(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	code, out, errOut := h.run(args...)
	require.Equal(h.t, exitSuccess, code, "stderr: %s", errOut)
	return out
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	code := Run(t.Context(), []string{"version"}, &out, &out)
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out.String(), "worldwise v")
	assert.Contains(t, out.String(), "github.com/mesh-intelligence/worldwise")
}

func TestInit(t *testing.T) {
	h := newHarness(t)
	dataDir := filepath.Join(t.TempDir(), "data")

	out := h.mustRun("--data-dir", dataDir, "init")
	assert.Contains(t, out, "initialized successfully")

	_, err := os.Stat(filepath.Join(h.configDir, "config.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "cities.jsonl"))
	assert.NoError(t, err)

	// Idempotent.
	h.mustRun("--data-dir", dataDir, "init")
}

func TestCityWorkflow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("list")
	assert.Contains(t, out, "Add your first city")

	out = h.mustRun("--json", "create", "--name", "Lisbon", "--country", "Portugal", "--emoji", "🇵🇹",
		"--date", "2027-10-31", "--lat", "38.7223", "--lng", "-9.1393")
	var lisbon types.City
	require.NoError(t, json.Unmarshal([]byte(out), &lisbon))
	assert.Equal(t, types.CityID("1"), lisbon.ID)
	assert.Equal(t, "2027-10-31", lisbon.Date)

	h.mustRun("create", "--name", "Madrid", "--country", "Spain", "--emoji", "🇪🇸", "--lat", "40.4168", "--lng", "-3.7038")
	h.mustRun("create", "--name", "Porto", "--country", "Portugal", "--emoji", "🇵🇹", "--lat", "41.1579", "--lng", "-8.6291")

	out = h.mustRun("list")
	assert.Contains(t, out, "Lisbon")
	assert.Contains(t, out, "Madrid")

	out = h.mustRun("--json", "list", "--country", "portugal")
	var portugal []types.City
	require.NoError(t, json.Unmarshal([]byte(out), &portugal))
	require.Len(t, portugal, 2)
	assert.Equal(t, "Porto", portugal[1].CityName)

	out = h.mustRun("get", "1")
	assert.Contains(t, out, "Lisbon")
	assert.Contains(t, out, "38.7223, -9.1393")

	out = h.mustRun("--json", "countries")
	var countries []types.Country
	require.NoError(t, json.Unmarshal([]byte(out), &countries))
	assert.Equal(t, []types.Country{{Country: "Portugal", Emoji: "🇵🇹"}, {Country: "Spain", Emoji: "🇪🇸"}}, countries)

	out = h.mustRun("--json", "near", "--lat", "40.4", "--lng", "-3.7", "--limit", "2")
	var ranked []types.CityDistance
	require.NoError(t, json.Unmarshal([]byte(out), &ranked))
	require.Len(t, ranked, 2)
	assert.Equal(t, "Madrid", ranked[0].City.CityName)
	assert.Equal(t, "Porto", ranked[1].City.CityName)

	out = h.mustRun("--json", "delete", "1")
	var remaining []types.City
	require.NoError(t, json.Unmarshal([]byte(out), &remaining))
	assert.Len(t, remaining, 2)
	for _, c := range remaining {
		assert.NotEqual(t, "Lisbon", c.CityName)
	}
}

func TestGetUnknownCity(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("get", "42")
	assert.Equal(t, exitSysError, code)
	assert.Contains(t, errOut, store.MsgLoadCity)
}

func TestDeleteUnknownCity(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("delete", "42")
	assert.Equal(t, exitSysError, code)
	assert.Contains(t, errOut, store.MsgDeleteCity)
}

func TestAPIUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	h := &harness{t: t, configDir: t.TempDir(), apiURL: srv.URL}

	code, _, errOut := h.run("list")
	assert.Equal(t, exitSysError, code)
	assert.Contains(t, errOut, store.MsgLoadCities)
}

func TestUserErrors(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing name", []string{"create", "--lat", "1", "--lng", "1"}},
		{"bad position", []string{"create", "--name", "X", "--lat", "100", "--lng", "1"}},
		{"bad date", []string{"create", "--name", "X", "--date", "soon", "--lat", "1", "--lng", "1"}},
		{"near bad position", []string{"near", "--lat", "-91", "--lng", "0"}},
		{"near negative limit", []string{"near", "--lat", "0", "--lng", "0", "--limit", "-1"}},
		{"get without id", []string{"get"}},
		{"unknown flag", []string{"list", "--bogus"}},
		{"bad api url", []string{"--api-url", "localhost:8080", "list"}},
		{"bad log level", []string{"--log-level", "loud", "list"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := h.run(tt.args...)
			assert.Equal(t, exitUserError, code)
		})
	}
}

func TestConfigCommand(t *testing.T) {
	h := newHarness(t)
	dataDir := t.TempDir()
	out := h.mustRun("--data-dir", dataDir, "config")
	assert.Contains(t, out, "api_url: "+h.apiURL)
	assert.Contains(t, out, "data_dir: "+dataDir)
	assert.Contains(t, out, "backend: sqlite")
}

func TestClearErrorOnSuccessFromConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, "config.yaml"),
		[]byte("clear_error_on_success: true\n"), 0o644))

	a := &app{flags: rootFlags{configDir: h.configDir}}
	require.NoError(t, a.setup(&cobra.Command{Use: "list"}, nil))
	assert.True(t, a.settings.ClearErrorOnSuccess)
	assert.Len(t, a.storeOptions(), 2)
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	args := []string{"--config-dir", t.TempDir(), "--data-dir", t.TempDir(), "serve", "--listen", addr}
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan int, 1)
	go func() {
		var out bytes.Buffer
		done <- Run(ctx, args, &out, &out)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitSuccess, code)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, ExitCode(nil))
	assert.Equal(t, exitUserError, ExitCode(errors.New("bad flag")))
	assert.Equal(t, exitUserError, ExitCode(userError("bad %s", "input")))
	assert.Equal(t, exitSysError, ExitCode(sysError(errors.New("disk"))))
	assert.Equal(t, exitSysError, ExitCode(fmt.Errorf("op: %w", types.ErrRequestFailed)))
}
