package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hylla/slaboard/internal/adapters/server"
	"github.com/hylla/slaboard/internal/adapters/server/common"
	"github.com/hylla/slaboard/internal/adapters/storage/sqlstore"
	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/rollup"
	"github.com/hylla/slaboard/internal/tui"
)

// Output formats of the read commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newTUICommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd.Context())
		},
	}
}

// runTUI launches the dashboard program loop.
func (c *cli) runTUI(ctx context.Context) error {
	s, err := c.open(ctx, "tui")
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.Info("command flow start", "command", "tui")
	m := tui.NewModel(
		s.svc,
		tui.WithDoubleClickWindow(s.cfg.DoubleClickWindow()),
		tui.WithDetailPanel(s.cfg.UI.ShowDetailPanel),
		tui.WithRefreshInterval(s.cfg.RefreshInterval()),
	)
	s.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		s.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	s.logger.Info("command flow complete", "command", "tui")
	return nil
}

func newServeCommand(c *cli) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP (REST + MCP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, "serve")
			if err != nil {
				return err
			}
			defer s.Close()

			s.logger.Info("command flow start", "command", "serve")
			// Readiness reports 503 until a snapshot loads, so a failed first refresh is not fatal.
			_ = s.refreshOrWarn(ctx)

			adapter := common.NewAppServiceAdapter(s.svc)
			cfg := server.Config{
				HTTPBind:      s.cfg.Server.Bind,
				APIEndpoint:   s.cfg.Server.APIEndpoint,
				MCPEndpoint:   s.cfg.Server.MCPEndpoint,
				ServerName:    "slaboard",
				ServerVersion: version,
			}
			if strings.TrimSpace(bind) != "" {
				cfg.HTTPBind = bind
			}
			deps := server.Dependencies{Reader: adapter, Refresher: adapter}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				s.logger.Info("serving", "bind", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
				return serveCommandRunner(gctx, cfg, deps)
			})
			if every := s.cfg.RefreshInterval(); every > 0 {
				g.Go(func() error {
					return s.refreshLoop(gctx, every)
				})
			}
			if err := g.Wait(); err != nil && !isCanceled(err) {
				s.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			s.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.bind)")
	return cmd
}

func newSummaryCommand(c *cli) *cobra.Command {
	var (
		area   string
		appID  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the rollup of the system, one business area, or one application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if appID != "" && area == "" {
				return fmt.Errorf("--app requires --area")
			}
			ctx := cmd.Context()
			s, err := c.open(ctx, "summary")
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.refreshOrWarn(ctx); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case appID != "":
				view, err := s.svc.Application(ctx, area, appID)
				if err != nil {
					return err
				}
				return writeFormatted(out, format, view, func(w io.Writer) error {
					return renderApplication(w, view)
				})
			case area != "":
				view, err := s.svc.BusinessArea(ctx, area)
				if err != nil {
					return err
				}
				return writeFormatted(out, format, view, func(w io.Writer) error {
					return renderArea(w, view)
				})
			default:
				view, err := s.svc.Overview(ctx)
				if err != nil {
					return err
				}
				return writeFormatted(out, format, view, func(w io.Writer) error {
					return renderOverview(w, view)
				})
			}
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "business area to summarize")
	cmd.Flags().StringVar(&appID, "app", "", "application to summarize (requires --area)")
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format (text|json|yaml)")
	return cmd
}

func newTrendsCommand(c *cli) *cobra.Command {
	var (
		area       string
		appID      string
		activityID string
		format     string
	)
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Print the historical trend series of a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, err := domain.NewScope(area, appID, activityID, "")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := c.open(ctx, "trends")
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.refreshOrWarn(ctx); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			if scope.Kind() == domain.ScopeActivity {
				if view, err := s.svc.Activity(ctx, scope.ActivityID); err == nil {
					scope.ActivityName = view.Row.Definition.ActivityName
				}
			}
			view, err := s.svc.Trends(ctx, scope)
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), format, view, func(w io.Writer) error {
				return renderTrends(w, view)
			})
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "business area scope")
	cmd.Flags().StringVar(&appID, "app", "", "application scope (requires --area)")
	cmd.Flags().StringVar(&activityID, "activity", "", "activity scope")
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format (text|json|yaml)")
	return cmd
}

func newExportCommand(c *cli) *cobra.Command {
	var (
		outPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, "export")
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.refreshOrWarn(ctx); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			snap, err := s.svc.ExportSnapshot(ctx)
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			encoded, err := encode(format, snap)
			if err != nil {
				return err
			}
			if outPath == "-" {
				if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
					return fmt.Errorf("write snapshot to stdout: %w", err)
				}
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create export output dir: %w", err)
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			s.logger.Info("snapshot exported", "path", outPath, "definitions", len(snap.Definitions), "statuses", len(snap.Statuses))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "snapshot encoding (json|yaml)")
	return cmd
}

func newSeedCommand(c *cli) *cobra.Command {
	var (
		inPath string
		driver string
		dsn    string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy a snapshot into a SQL store",
		Long:  "seed loads the configured source (or --in snapshot file) and replaces the contents of a SQLite or MySQL store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx, "seed")
			if err != nil {
				return err
			}
			defer s.Close()

			if inPath != "" {
				snap, err := readSnapshot(inPath)
				if err != nil {
					return err
				}
				if err := s.svc.ImportSnapshot(ctx, snap); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
			} else if err := s.refreshOrWarn(ctx); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			storeCfg := sqlstore.Config{
				Driver:      s.cfg.Source.Driver,
				DSN:         s.cfg.SQLDSN(),
				ConnTimeout: s.cfg.SourceTimeout(),
			}
			if driver != "" {
				storeCfg.Driver = driver
				storeCfg.DSN = ""
			}
			if dsn != "" {
				storeCfg.DSN = dsn
			}
			if storeCfg.DSN == "" && strings.EqualFold(storeCfg.Driver, sqlstore.DriverSQLite) {
				storeCfg.DSN = s.cfg.Database.Path
			}
			store, err := sqlstore.Open(ctx, storeCfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					s.logger.Warn("store close failed", "err", closeErr)
				}
			}()
			n, err := s.svc.Seed(ctx, store)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records into %s\n", n, store.Origin())
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "snapshot JSON or YAML file to seed instead of the configured source")
	cmd.Flags().StringVar(&driver, "driver", "", "store driver (sqlite|mysql), default source.driver")
	cmd.Flags().StringVar(&dsn, "dsn", "", "store DSN, default source.dsn or the database path")
	return cmd
}

func newPathsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := c.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", c.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", c.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			return nil
		},
	}
}

func newVersionCommand(_ *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "slaboard %s\n", version)
			return err
		},
	}
}

// refreshLoop refreshes the session on a fixed interval until ctx ends.
func (s *session) refreshLoop(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.svc.Refresh(ctx); err != nil && !isCanceled(err) {
				s.logger.Warn("periodic refresh failed", "err", err)
			}
		}
	}
}

// writeFormatted writes v as JSON or YAML, or calls text for the table rendering.
func writeFormatted(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", formatText:
		return text(w)
	default:
		encoded, err := encode(format, v)
		if err != nil {
			return err
		}
		_, err = w.Write(encoded)
		return err
	}
}

// encode marshals v as indented JSON or YAML.
func encode(format string, v any) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case formatJSON:
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(encoded, '\n'), nil
	case formatYAML:
		encoded, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return encoded, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// readSnapshot decodes a snapshot file; .yaml and .yml files are read as YAML.
func readSnapshot(path string) (app.Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}
	var snap app.Snapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot json: %w", err)
		}
	}
	return snap, nil
}

// newTable returns a table writer mirrored to w.
func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func countsRow(label string, counts rollup.Counts, health rollup.Health) table.Row {
	return table.Row{label, counts.Total, counts.Completed, counts.Running, counts.Success, counts.Violations, counts.Pending(), health}
}

var countsHeader = table.Row{"Scope", "Total", "Completed", "Running", "Success", "Violations", "Pending", "Health"}

func renderOverview(w io.Writer, view app.OverviewView) error {
	t := newTable(w, fmt.Sprintf("Business date %s • %d areas • %d apps • source %s",
		orDash(view.BusinessDate), view.Summary.BusinessAreas, view.Summary.Applications, orDash(view.Origin)))
	t.AppendHeader(countsHeader)
	for _, area := range view.Areas {
		t.AppendRow(countsRow(area.BusinessArea, area.Counts, area.Health))
	}
	t.AppendFooter(countsRow("ALL", view.Summary.Counts, view.Summary.Health))
	t.Render()
	return nil
}

func renderArea(w io.Writer, view app.AreaView) error {
	t := newTable(w, view.Area.BusinessArea+" - Applications")
	t.AppendHeader(countsHeader)
	for _, appSummary := range view.Applications {
		t.AppendRow(countsRow(appSummary.AppID, appSummary.Counts, appSummary.Health))
	}
	t.AppendFooter(countsRow(view.Area.BusinessArea, view.Area.Counts, view.Area.Health))
	t.Render()
	return nil
}

func renderApplication(w io.Writer, view rollup.AppSummary) error {
	t := newTable(w, fmt.Sprintf("%s / %s - %s", view.BusinessArea, view.AppID, view.Health))
	t.AppendHeader(table.Row{"Activity", "Name", "Type", "Window", "Runs", "Status"})
	for _, row := range view.Activities {
		def := row.Definition
		t.AppendRow(table.Row{def.ActivityID, def.ActivityName, def.ActivityType, def.Window(), row.Runs, row.Label})
	}
	t.Render()
	return nil
}

func renderTrends(w io.Writer, view app.TrendView) error {
	t := newTable(w, view.Title)
	t.AppendHeader(table.Row{"Date", "Success", "Violations", "Running", "Total"})
	for _, day := range view.Days {
		t.AppendRow(table.Row{day.Date, day.Success, day.Violations, day.Running, day.Total})
	}
	sum := view.Summary
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d days", sum.Days),
		fmt.Sprintf("%.1f%%", sum.SuccessRate),
		sum.TotalViolations,
		sum.Direction,
		fmt.Sprintf("%.1f/day", sum.AvgDaily),
	})
	t.Render()
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
