package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/slaboard/internal/adapters/server"
	"github.com/hylla/slaboard/internal/adapters/source/bundled"
	"github.com/hylla/slaboard/internal/adapters/source/remote"
	"github.com/hylla/slaboard/internal/adapters/storage/sqlstore"
	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/config"
	"github.com/hylla/slaboard/internal/platform"
	"github.com/hylla/slaboard/internal/trend"
)

// version is stamped at build time.
var version = "dev"

// program is the part of tea.Program the tui command needs.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
	return server.Run(ctx, cfg, deps)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes one CLI invocation.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(&cli{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// cli carries global flags and output streams across commands.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	dbPath     string
	appName    string
	sourceURL  string
	devMode    bool
}

// session is the resolved runtime of one command.
type session struct {
	cfg        config.Config
	paths      platform.Paths
	configPath string
	logger     *runtimeLogger
	svc        *app.Service
	closers    []func() error
	stderr     io.Writer
}

// Close releases the source and the log sink.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close failed", "err", err)
		}
	}
	if err := s.logger.Close(); err != nil && s.logger.shouldLogToSink(s.logger.consoleSink) {
		_, _ = fmt.Fprintf(s.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// newRootCommand builds the command tree. The bare command launches the dashboard.
func newRootCommand(c *cli) *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("SLABOARD_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	appName := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("SLABOARD_APP_NAME")); envApp != "" {
		appName = envApp
	}

	root := &cobra.Command{
		Use:           "slaboard",
		Short:         "SLA operations dashboard for capital-markets activities",
		Long:          "slaboard rolls up activity definitions and run statuses into business-area, application and activity views.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd.Context())
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to config TOML")
	flags.StringVar(&c.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&c.appName, "app", appName, "application name for config/data path resolution")
	flags.StringVar(&c.sourceURL, "source-url", "", "remote base URL serving activity-definitions.json and activity-statuses.json")
	flags.BoolVar(&c.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newTUICommand(c),
		newServeCommand(c),
		newSummaryCommand(c),
		newTrendsCommand(c),
		newExportCommand(c),
		newSeedCommand(c),
		newPathsCommand(c),
		newVersionCommand(c),
	)
	return root
}

// resolvePaths resolves per-OS paths for the selected app name.
func (c *cli) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: c.appName,
		DevMode: c.devMode,
	})
}

// loadConfig resolves the config file path and applies flag and env overrides.
func (c *cli) loadConfig() (config.Config, platform.Paths, string, error) {
	paths, err := c.resolvePaths()
	if err != nil {
		return config.Config{}, platform.Paths{}, "", err
	}
	configPath := strings.TrimSpace(c.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("SLABOARD_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(c.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("SLABOARD_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return config.Config{}, platform.Paths{}, "", fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	sourceURL := strings.TrimSpace(c.sourceURL)
	if sourceURL == "" {
		sourceURL = strings.TrimSpace(os.Getenv("SLABOARD_SOURCE_URL"))
	}
	if sourceURL != "" {
		cfg.Source.Kind = config.SourceRemote
		cfg.Source.BaseURL = sourceURL
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, platform.Paths{}, "", fmt.Errorf("validate config: %w", err)
	}
	return cfg, paths, configPath, nil
}

// open resolves config, logging, the data source and the service.
func (c *cli) open(ctx context.Context, command string) (*session, error) {
	cfg, paths, configPath, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newRuntimeLogger(c.stderr, c.appName, c.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	s := &session{cfg: cfg, paths: paths, configPath: configPath, logger: logger, stderr: c.stderr}
	if command == "tui" {
		// Runtime logs go to the dev-file sink only while the dashboard owns the terminal.
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", c.appName, "dev_mode", c.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	logger.Info("configuration loaded", "config_path", configPath, "source", cfg.Source.Kind, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	source, closeSource, err := buildSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("data source setup failed", "source", cfg.Source.Kind, "err", err)
		s.Close()
		return nil, fmt.Errorf("configure data source: %w", err)
	}
	if closeSource != nil {
		s.closers = append(s.closers, closeSource)
	}

	refDate, err := cfg.ReferenceDate()
	if err != nil {
		s.Close()
		return nil, err
	}
	var trends app.TrendSource
	if cfg.Trends.Seed != 0 {
		trends = app.NewGeneratorTrendSource(trend.NewGenerator(trend.NewMathRand(cfg.Trends.Seed)))
	}
	s.svc = app.NewService(source, trends, uuid.NewString, time.Now, logger, app.ServiceConfig{
		TrendHorizonDays:   cfg.Trends.HorizonDays,
		TrendReferenceDate: refDate,
	})
	logger.Debug("application service initialized", "horizon_days", cfg.Trends.HorizonDays, "reference_date", cfg.Trends.ReferenceDate)
	return s, nil
}

// buildSource constructs the configured data source and its optional closer.
func buildSource(ctx context.Context, cfg config.Config, logger app.Logger) (app.Source, func() error, error) {
	switch cfg.Source.Kind {
	case config.SourceRemote:
		opts := []remote.Option{remote.WithLogger(logger)}
		if !cfg.Source.Fallback {
			opts = append(opts, remote.WithFallback(nil))
		}
		client, err := remote.New(remote.Config{
			BaseURL: cfg.Source.BaseURL,
			Timeout: cfg.SourceTimeout(),
		}, opts...)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("remote source configured", "base_url", cfg.Source.BaseURL, "fallback", cfg.Source.Fallback)
		return client, nil, nil
	case config.SourceSQL:
		store, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver:      cfg.Source.Driver,
			DSN:         cfg.SQLDSN(),
			ConnTimeout: cfg.SourceTimeout(),
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sql source ready", "driver", cfg.Source.Driver, "migrations", "ensured")
		return store, store.Close, nil
	default:
		return bundled.New(), nil, nil
	}
}

// refreshOrWarn loads the first snapshot; a failure is logged and returned.
func (s *session) refreshOrWarn(ctx context.Context) error {
	res, err := s.svc.Refresh(ctx)
	if err != nil {
		s.logger.Warn("initial refresh failed", "err", err)
		return err
	}
	s.logger.Info("snapshot loaded", "refresh_id", res.RefreshID, "definitions", res.Definitions, "statuses", res.Statuses, "origin", res.Origin)
	return nil
}

// parseBoolEnv reads a boolean environment variable; ok is false when unset or malformed.
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

// isCanceled reports whether err came from shutdown.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
