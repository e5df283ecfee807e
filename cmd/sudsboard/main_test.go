package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"github.com/hylla/sudsboard/internal/adapters/identity"
	"github.com/hylla/sudsboard/internal/adapters/server"
	"github.com/hylla/sudsboard/internal/adapters/server/common"
	"github.com/hylla/sudsboard/internal/config"
	"github.com/hylla/sudsboard/internal/coverage"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("SUDSBOARD_DEV_MODE", "false")
	_ = os.Unsetenv("GEMINI_API_KEY")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// cliEnv points every invocation at one temp database and config file.
type cliEnv struct {
	dbPath  string
	cfgPath string
}

func newCLIEnv(t *testing.T, configContent string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{
		dbPath:  filepath.Join(dir, "sudsboard.db"),
		cfgPath: filepath.Join(dir, "config.toml"),
	}
	if configContent != "" {
		require.NoError(t, os.WriteFile(env.cfgPath, []byte(configContent), 0o644))
	}
	return env
}

// run invokes the CLI and returns stdout.
func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--db", e.dbPath, "--config", e.cfgPath}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

// mustRun invokes the CLI and fails the test on error.
func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "args %v", args)
	return out
}

// decodeJSON decodes CLI JSON output into T.
func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), "output %q", out)
	return v
}

// TestRunVersion verifies behavior for the covered scenario.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--version"}, &out, io.Discard)
	require.NoError(t, err)
	require.Contains(t, out.String(), version)
}

// TestRunStartsProgram verifies the root command opens the dashboard over a ready read model.
func TestRunStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	var started tea.Model
	programFactory = func(m tea.Model) program {
		started = m
		return fakeProgram{}
	}

	env := newCLIEnv(t, "")
	_, err := env.run(t)
	require.NoError(t, err)
	require.NotNil(t, started)
}

// TestRunTUIProgramError verifies program failures surface as command errors.
func TestRunTUIProgramError(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(tea.Model) program {
		return fakeProgram{runErr: errors.New("boom")}
	}

	env := newCLIEnv(t, "")
	_, err := env.run(t, "tui")
	require.ErrorContains(t, err, "boom")
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies the console stays quiet while the dashboard runs.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(tea.Model) program { return fakeProgram{} }

	root := t.TempDir()
	logDir := filepath.Join(root, "logs")
	env := newCLIEnv(t, "[logging]\nlevel = \"debug\"\n[logging.dev_file]\nenabled = true\ndir = \""+filepath.ToSlash(logDir)+"\"\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--db", env.dbPath, "--config", env.cfgPath, "--dev=true", "tui"}, &stdout, &stderr)
	require.NoError(t, err)
	require.NotContains(t, stderr.String(), "starting tui program loop")

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	content, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(content), "starting tui program loop")
	require.Contains(t, string(content), "command flow complete")
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"nope"}, io.Discard, io.Discard)
	require.Error(t, err)
}

// TestRunInvalidFlag verifies behavior for the covered scenario.
func TestRunInvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"--bogus"}, io.Discard, io.Discard)
	require.Error(t, err)
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--app", "sudsboard-test", "paths"}, &out, io.Discard)
	require.NoError(t, err)
	for _, want := range []string{"app: sudsboard-test", "dev_mode: false", "config:", "data_dir:", "db:", "snapshots:"} {
		require.Contains(t, out.String(), want)
	}
}

// TestParseBoolEnv verifies behavior for the covered scenario.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("SUDSBOARD_TEST_BOOL", "true")
	v, ok := parseBoolEnv("SUDSBOARD_TEST_BOOL")
	require.True(t, ok)
	require.True(t, v)

	t.Setenv("SUDSBOARD_TEST_BOOL", "not-a-bool")
	_, ok = parseBoolEnv("SUDSBOARD_TEST_BOOL")
	require.False(t, ok)

	_, ok = parseBoolEnv("SUDSBOARD_TEST_BOOL_UNSET")
	require.False(t, ok)
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies behavior for the covered scenario.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	env := newCLIEnv(t, "[logging]\nlevel = \"verbose\"\n")
	_, err := env.run(t, "asset", "list")
	require.ErrorContains(t, err, "logging.level")
}

// TestRunConfigAndDBEnvOverrides verifies the env fallbacks for config and database paths.
func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "env.db")
	cfgPath := filepath.Join(dir, "env.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("namespace = \"getafe\"\n"), 0o644))
	t.Setenv("SUDSBOARD_DB_PATH", dbPath)
	t.Setenv("SUDSBOARD_CONFIG", cfgPath)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"category", "add", "Limpieza"}, &out, io.Discard))
	_, err := os.Stat(dbPath)
	require.NoError(t, err)
}

// TestRunCatalogFlow walks the taxonomy, registry, record, and view commands end to end.
func TestRunCatalogFlow(t *testing.T) {
	env := newCLIEnv(t, "[identity]\nactor_id = \"tecnico\"\n")

	env.mustRun(t, "category", "add", "Limpieza")
	env.mustRun(t, "category", "add", "Vegetación")
	env.mustRun(t, "activity-name", "add", "Limpieza", "Limpieza de rejilla")
	env.mustRun(t, "activity-name", "add", "Limpieza", "Retirada de sedimentos")
	env.mustRun(t, "activity-name", "add", "Vegetación", "Siega")

	tax := decodeJSON[common.Taxonomy](t, env.mustRun(t, "--json", "category", "list"))
	require.Equal(t, []string{"Limpieza", "Vegetación"}, tax.Categories)
	require.Equal(t, []string{"Limpieza de rejilla", "Retirada de sedimentos"}, tax.Activities["Limpieza"])

	moved := decodeJSON[common.MoveResult](t, env.mustRun(t, "--json", "category", "move", "Vegetación", "up"))
	require.True(t, moved.Moved)
	edge := decodeJSON[common.MoveResult](t, env.mustRun(t, "--json", "category", "move", "Vegetación", "up"))
	require.False(t, edge.Moved)

	asset := decodeJSON[common.Asset](t, env.mustRun(t, "--json", "asset", "add", "Rejilla", "--location", "viario,acera"))
	require.NotEmpty(t, asset.ID)
	require.Equal(t, []string{"viario", "acera"}, asset.LocationTypes)
	other := decodeJSON[common.Asset](t, env.mustRun(t, "--json", "asset", "add", "Jardín de lluvia", "--location", "zona_verde"))

	filtered := decodeJSON[[]common.Asset](t, env.mustRun(t, "--json", "asset", "list", "--location", "zona_verde"))
	require.Len(t, filtered, 1)
	require.Equal(t, other.ID, filtered[0].ID)

	updated := decodeJSON[common.Asset](t, env.mustRun(t, "--json", "asset", "update", asset.ID, "--description", "Sumidero lineal"))
	require.Equal(t, "Sumidero lineal", updated.Description)
	require.Equal(t, "Rejilla", updated.Name)

	contract := decodeJSON[common.Contract](t, env.mustRun(t, "--json", "contract", "add", "Mantenimiento SUDS", "--responsible", "Parques"))
	require.NotEmpty(t, contract.ID)

	parent := decodeJSON[common.AppliesResult](t, env.mustRun(t, "--json", "record", "applies", asset.ID, "Limpieza", "Limpieza de rejilla"))
	require.True(t, parent.Created)
	require.NotNil(t, parent.Record)
	child := decodeJSON[common.AppliesResult](t, env.mustRun(t, "--json", "record", "applies", asset.ID, "Limpieza", "Retirada de sedimentos"))
	require.NotNil(t, child.Record)

	rec := decodeJSON[common.Record](t, env.mustRun(t, "--json", "record", "set", parent.Record.ID, "status", "verde"))
	require.Equal(t, "verde", rec.Status)
	require.Equal(t, "tecnico", rec.LastUpdatedBy)
	env.mustRun(t, "record", "set", parent.Record.ID, "involvedContracts", "Mantenimiento SUDS")
	env.mustRun(t, "record", "set", parent.Record.ID, "dependentActivities", child.Record.ID)
	env.mustRun(t, "record", "set", child.Record.ID, "involvedContracts", "Mantenimiento SUDS")

	validated := decodeJSON[common.Record](t, env.mustRun(t, "--json", "record", "validate", parent.Record.ID, "validated", "--comment", "ok"))
	require.Equal(t, "validated", validated.ValidationStatus)
	require.Equal(t, "tecnico", validated.ValidatedBy)

	resolved := decodeJSON[[]common.ResolvedActivity](t, env.mustRun(t, "--json", "asset", "activities", asset.ID))
	require.Len(t, resolved, 2)
	require.Equal(t, parent.Record.ID, resolved[0].Record.ID)
	require.True(t, resolved[1].IsDependent)

	report := env.mustRun(t, "contract", "report", contract.ID)
	require.Contains(t, report, "# Mantenimiento SUDS")
	require.Contains(t, report, "## Rejilla")
	require.Contains(t, report, "↳ Retirada de sedimentos")

	pivot := decodeJSON[coverage.Pivot](t, env.mustRun(t, "--json", "pivot", "--category", "Limpieza"))
	require.Equal(t, 2, pivot.Total)
	require.Len(t, pivot.Rows, 2)

	table := env.mustRun(t, "pivot")
	require.Contains(t, table, "Rejilla")
	require.Contains(t, table, "applicable activities")

	cascade := decodeJSON[common.CascadeResult](t, env.mustRun(t, "--json", "activity-name", "delete", "Limpieza", "Retirada de sedimentos"))
	require.Equal(t, 1, cascade.RemovedRecords)

	off := decodeJSON[common.AppliesResult](t, env.mustRun(t, "--json", "record", "applies", asset.ID, "Limpieza", "Limpieza de rejilla", "--off"))
	require.NotNil(t, off.Record)
	require.False(t, off.Record.Applies)

	_, err := env.run(t, "record", "set", parent.Record.ID, "status", "morado")
	require.Error(t, err)
}

// TestRunExportImportRoundTrip verifies a YAML snapshot restores into a fresh database.
func TestRunExportImportRoundTrip(t *testing.T) {
	src := newCLIEnv(t, "")
	src.mustRun(t, "category", "add", "Limpieza")
	src.mustRun(t, "activity-name", "add", "Limpieza", "Barrido")
	asset := decodeJSON[common.Asset](t, src.mustRun(t, "--json", "asset", "add", "Pavimento permeable", "--location", "acera"))
	src.mustRun(t, "record", "applies", asset.ID, "Limpieza", "Barrido")

	snapPath := filepath.Join(t.TempDir(), "snap.yaml")
	src.mustRun(t, "export", "--out", snapPath, "--format", "yaml")
	content, err := os.ReadFile(snapPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "Pavimento permeable")

	dst := newCLIEnv(t, "")
	dst.mustRun(t, "import", "--in", snapPath)
	assets := decodeJSON[[]common.Asset](t, dst.mustRun(t, "--json", "asset", "list"))
	require.Len(t, assets, 1)
	require.Equal(t, asset.ID, assets[0].ID)
	records := decodeJSON[[]common.Record](t, dst.mustRun(t, "--json", "record", "list", "--asset", asset.ID))
	require.Len(t, records, 1)

	stdout := dst.mustRun(t, "export")
	require.Contains(t, stdout, "\"Pavimento permeable\"")
}

// TestRunExportAndImportErrors verifies behavior for the covered scenario.
func TestRunExportAndImportErrors(t *testing.T) {
	env := newCLIEnv(t, "")
	_, err := env.run(t, "import")
	require.ErrorContains(t, err, "--in is required")

	_, err = env.run(t, "import", "--in", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = env.run(t, "export", "--format", "xml")
	require.Error(t, err)
}

// TestRunTokenCommand verifies issued tokens verify against the configured secret.
func TestRunTokenCommand(t *testing.T) {
	const secret = "0123456789abcdef-secret"
	env := newCLIEnv(t, "[identity]\njwt_secret = \""+secret+"\"\n")
	out := strings.TrimSpace(env.mustRun(t, "token", "validador", "--ttl", "1h"))

	verifier, err := identity.NewJWT(secret)
	require.NoError(t, err)
	actor, err := verifier.Verify(out)
	require.NoError(t, err)
	require.Equal(t, "validador", actor.ID)

	bare := newCLIEnv(t, "")
	_, err = bare.run(t, "token", "validador")
	require.ErrorContains(t, err, "jwt_secret")
}

// TestRunServeUsesRunner verifies serve wiring without opening a socket.
func TestRunServeUsesRunner(t *testing.T) {
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })

	var (
		gotCfg  server.Config
		gotDeps server.Dependencies
	)
	serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
		gotCfg = cfg
		gotDeps = deps
		if deps.OnListen != nil {
			deps.OnListen(cfg.HTTPBind)
		}
		return deps.Ready(ctx)
	}

	env := newCLIEnv(t, "[identity]\njwt_secret = \"0123456789abcdef-secret\"\n")
	out := env.mustRun(t, "serve", "--bind", "127.0.0.1:0")
	require.Equal(t, "127.0.0.1:0", gotCfg.HTTPBind)
	require.Equal(t, "/api/v1", gotCfg.APIEndpoint)
	require.Equal(t, "/mcp", gotCfg.MCPEndpoint)
	require.NotNil(t, gotDeps.Service)
	require.NotNil(t, gotDeps.JWT)
	require.Contains(t, out, "listening on 127.0.0.1:0")
}

// TestRunServeRunnerError verifies transport failures stop the command.
func TestRunServeRunnerError(t *testing.T) {
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })
	serveCommandRunner = func(context.Context, server.Config, server.Dependencies) error {
		return errors.New("address in use")
	}

	env := newCLIEnv(t, "")
	_, err := env.run(t, "serve")
	require.ErrorContains(t, err, "address in use")
}

// TestRunDraftWithoutBackend verifies drafting reports the missing completion backend.
func TestRunDraftWithoutBackend(t *testing.T) {
	env := newCLIEnv(t, "")
	_, err := env.run(t, "asset", "draft", "Cuneta vegetada")
	require.Error(t, err)
}

// TestRunNamespaceFlagIsolatesData verifies namespaces share a database without sharing rows.
func TestRunNamespaceFlagIsolatesData(t *testing.T) {
	env := newCLIEnv(t, "")
	env.mustRun(t, "--namespace", "getafe", "asset", "add", "Rejilla")
	getafe := decodeJSON[[]common.Asset](t, env.mustRun(t, "--namespace", "getafe", "--json", "asset", "list"))
	require.Len(t, getafe, 1)
	other := decodeJSON[[]common.Asset](t, env.mustRun(t, "--json", "asset", "list"))
	require.Empty(t, other)

	_, err := env.run(t, "--namespace", "a/b", "asset", "list")
	require.Error(t, err)
}

// TestRuntimeLoggerCanMuteConsoleSink verifies behavior for the covered scenario.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("/tmp/sudsboard.db").Logging

	logger, err := newRuntimeLogger(loggerOptions{Console: &console, AppName: "sudsboard", Logging: cfg})
	require.NoError(t, err)

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	require.Contains(t, out, "before")
	require.NotContains(t, out, "during")
	require.Contains(t, out, "after")
}

// TestRuntimeLoggerSetLevel verifies reloaded levels apply to existing sinks.
func TestRuntimeLoggerSetLevel(t *testing.T) {
	var console bytes.Buffer
	logger, err := newRuntimeLogger(loggerOptions{Console: &console, AppName: "sudsboard", Logging: config.LoggingConfig{Level: "info"}})
	require.NoError(t, err)

	logger.Debug("hidden")
	require.NoError(t, logger.SetLevel("debug"))
	logger.Debug("shown")
	require.Error(t, logger.SetLevel("loud"))

	require.NotContains(t, console.String(), "hidden")
	require.Contains(t, console.String(), "shown")
}

// TestRuntimeLoggerDevFileSink verifies the dev sink opens under the data dir and keeps muted events.
func TestRuntimeLoggerDevFileSink(t *testing.T) {
	dataDir := t.TempDir()
	var console bytes.Buffer
	logger, err := newRuntimeLogger(loggerOptions{
		Console: &console,
		AppName: "sudsboard",
		DevMode: true,
		Logging: config.Default(filepath.Join(dataDir, "sudsboard.db")).Logging,
		DataDir: dataDir,
		Now:     func() time.Time { return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dataDir, config.DefaultDevLogDir, "sudsboard-20260223.log"), logger.DevLogPath())
	logger.SetConsoleEnabled(false)
	require.False(t, logger.consoleActive())
	logger.Info("asset added", "asset_id", "a1")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logger.DevLogPath())
	require.NoError(t, err)
	require.Contains(t, string(content), "asset added")
	require.Contains(t, string(content), "asset_id=a1")
	require.Empty(t, console.String())
}

// TestDevLogFilePath verifies relative dirs resolve under the data dir.
func TestDevLogFilePath(t *testing.T) {
	day := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)
	dataDir := filepath.Join(t.TempDir(), "data")
	require.Equal(t, filepath.Join(dataDir, "logs", "sudsboard-20260222.log"), devLogFilePath("", dataDir, "sudsboard", day))
	require.Equal(t, filepath.Join(dataDir, "trace", "sudsboard-20260222.log"), devLogFilePath(" trace ", dataDir, "sudsboard", day))
	abs := filepath.Join(t.TempDir(), "elsewhere")
	require.Equal(t, filepath.Join(abs, "ops-20260222.log"), devLogFilePath(abs, dataDir, "ops", day))
}

// TestLogFileStem verifies app names become safe file-name segments.
func TestLogFileStem(t *testing.T) {
	require.Equal(t, "my-app", logFileStem(" my/app "))
	require.Equal(t, "sudsboard-dev", logFileStem("sudsboard:dev"))
	require.Equal(t, "sudsboard", logFileStem(" / "))
}

// TestKeyConfigFrom verifies config key overrides reach the dashboard bindings.
func TestKeyConfigFrom(t *testing.T) {
	got := keyConfigFrom(config.KeysConfig{MoveAssetUp: "U", CopyReport: "ctrl+y"})
	require.Equal(t, "U", got.MoveAssetUp)
	require.Equal(t, "ctrl+y", got.CopyReport)
	require.Empty(t, got.NextView)
}
