package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/adapters/completion/gemini"
	"github.com/hylla/sudsboard/internal/adapters/identity"
	"github.com/hylla/sudsboard/internal/adapters/server"
	"github.com/hylla/sudsboard/internal/adapters/server/common"
	"github.com/hylla/sudsboard/internal/adapters/storage/sqlite"
	"github.com/hylla/sudsboard/internal/app"
	"github.com/hylla/sudsboard/internal/config"
	"github.com/hylla/sudsboard/internal/platform"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the terminal program. Tests swap it for a scripted one.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP and MCP transports.
var serveCommandRunner = server.Run

// completerFactory builds the drafting backend from completion settings.
var completerFactory = func(ctx context.Context, cfg config.CompletionConfig) (app.TextCompleter, error) {
	completer, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.APIKey(),
		Model:   cfg.Model,
		Timeout: cfg.TimeoutDuration(),
	})
	if err != nil {
		return nil, err
	}
	return completer, nil
}

func main() {
	// fang already reported the error on stderr.
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flag values shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	namespace  string
	devMode    bool
	jsonOut    bool
	stdout     io.Writer
	stderr     io.Writer
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	root := newRootCommand(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
}

// newRootCommand wires the persistent flags and every subcommand.
func newRootCommand(opts *rootOptions) *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("SUDSBOARD_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("SUDSBOARD_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:   "sudsboard",
		Short: "Maintenance coverage dashboard for sustainable urban drainage assets",
		Long: "sudsboard tracks which maintenance activities apply to each SUDS asset type,\n" +
			"who proposed and validated them, and which contracts cover them.\n" +
			"Without a subcommand it opens the terminal dashboard.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.namespace, "namespace", "", "data namespace (overrides config)")
	flags.BoolVar(&opts.jsonOut, "json", false, "output JSON")

	root.AddCommand(
		pathsCmd(opts),
		tuiCmd(opts),
		serveCmd(opts),
		exportCmd(opts),
		importCmd(opts),
		categoryCmd(opts),
		activityNameCmd(opts),
		assetCmd(opts),
		contractCmd(opts),
		recordCmd(opts),
		pivotCmd(opts),
		tokenCmd(opts),
	)
	return root
}

// runtime bundles the resources one command flow needs.
type runtime struct {
	cfg        config.Config
	configPath string
	paths      platform.Paths
	logger     *runtimeLogger
	repo       *sqlite.Repository
	store      *sqlite.Store
	svc        *app.Service
	api        common.Service
}

// resolvePaths resolves platform paths for the selected app name and mode.
func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// openRuntime loads config, opens storage, and builds the application service.
func (o *rootOptions) openRuntime(ctx context.Context, command string) (*runtime, error) {
	paths, err := o.resolvePaths()
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(o.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("SUDSBOARD_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(o.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("SUDSBOARD_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if ns := strings.TrimSpace(o.namespace); ns != "" {
		cfg.Namespace = ns
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := newRuntimeLogger(loggerOptions{
		Console: o.stderr,
		AppName: o.appName,
		DevMode: o.devMode,
		Logging: cfg.Logging,
		DataDir: paths.DataDir,
		Now:     time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	store := repo.Store(cfg.Namespace)
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "namespace", cfg.Namespace)

	var completer app.TextCompleter
	if cfg.Completion.APIKey() != "" {
		completer, err = completerFactory(ctx, cfg.Completion)
		if err != nil {
			logger.Warn("completion backend disabled", "model", cfg.Completion.Model, "err", err)
			completer = nil
		}
	}

	svc := app.NewService(store, identity.Static{ID: cfg.Identity.ActorID}, nil, app.ServiceConfig{
		Frequencies: cfg.Frequencies,
		Completer:   completer,
		Logger:      logger,
	})
	logger.Debug("application service initialized", "frequencies", len(cfg.Frequencies), "drafting", completer != nil)

	return &runtime{
		cfg:        cfg,
		configPath: configPath,
		paths:      paths,
		logger:     logger,
		repo:       repo,
		store:      store,
		svc:        svc,
		api:        common.NewAppServiceAdapter(svc),
	}, nil
}

// Close releases storage and the dev log file.
func (rt *runtime) Close() {
	if rt == nil {
		return
	}
	if err := rt.repo.Close(); err != nil {
		rt.logger.Warn("sqlite close failed", "db_path", rt.cfg.Database.Path, "err", err)
	}
	if err := rt.logger.Close(); err != nil && rt.logger.consoleActive() {
		rt.logger.Warn("close runtime log sink failed", "err", err)
	}
}

// withRuntime opens a runtime, runs fn inside logged flow boundaries, and closes it.
func (o *rootOptions) withRuntime(cmd *cobra.Command, name string, fn func(context.Context, *runtime) error) error {
	rt, err := o.openRuntime(cmd.Context(), name)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("command flow start", "command", name)
	if err := fn(cmd.Context(), rt); err != nil {
		rt.logger.Error("command flow failed", "command", name, "err", err)
		return fmt.Errorf("run %s command: %w", name, err)
	}
	rt.logger.Info("command flow complete", "command", name)
	return nil
}

// pathsCmd prints the resolved config and data locations.
func pathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, map[string]any{
					"app":       opts.appName,
					"dev_mode":  opts.devMode,
					"config":    paths.ConfigPath,
					"data_dir":  paths.DataDir,
					"db":        paths.DBPath,
					"snapshots": paths.SnapshotDir,
				})
			}
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "snapshots: %s\n", paths.SnapshotDir)
			return nil
		},
	}
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a table writer mirrored to w.
func newTable(w io.Writer, header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	if len(header) > 0 {
		tw.AppendHeader(table.Row(header))
	}
	return tw
}
