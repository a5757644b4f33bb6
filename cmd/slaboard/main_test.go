package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/slaboard/internal/adapters/server"
	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/config"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("SLABOARD_DEV_MODE", "false")
	_ = os.Unsetenv("SLABOARD_SOURCE_URL")
	_ = os.Unsetenv("SLABOARD_CONFIG")
	_ = os.Unsetenv("SLABOARD_DB_PATH")
	os.Exit(m.Run())
}

// fakeProgram stands in for the TUI program loop.
type fakeProgram struct {
	model  tea.Model
	runErr error
}

// Run returns the configured result without touching the terminal.
func (f fakeProgram) Run() (tea.Model, error) {
	return f.model, f.runErr
}

// testEnv holds isolated config and db paths.
type testEnv struct {
	dir     string
	cfgPath string
	dbPath  string
}

func newTestEnv(t *testing.T, cfgContent string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.toml"),
		dbPath:  filepath.Join(dir, "slaboard.db"),
	}
	if cfgContent != "" {
		if err := os.WriteFile(env.cfgPath, []byte(cfgContent), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return env
}

func (e testEnv) args(extra ...string) []string {
	return append([]string{"--config", e.cfgPath, "--db", e.dbPath}, extra...)
}

const seededTrendsConfig = `
[trends]
reference_date = "2025-11-16"
seed = 42
`

func TestRunVersionCommand(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "slaboard dev" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestRunStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	var started tea.Model
	programFactory = func(m tea.Model) program {
		started = m
		return fakeProgram{}
	}
	env := newTestEnv(t, "[ui]\ndouble_click_ms = 250\n")
	if err := run(context.Background(), env.args(), io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if started == nil {
		t.Fatal("expected tui model to be started")
	}
}

func TestRunTUIProgramErrorIsWrapped(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(tea.Model) program {
		return fakeProgram{runErr: context.DeadlineExceeded}
	}
	env := newTestEnv(t, "")
	err := run(context.Background(), env.args("tui"), io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"wat"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if err := run(context.Background(), []string{"--definitely-not-a-flag"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected invalid flag error")
	}
}

func TestRunSummaryText(t *testing.T) {
	env := newTestEnv(t, "")
	var out bytes.Buffer
	if err := run(context.Background(), env.args("summary"), &out, io.Discard); err != nil {
		t.Fatalf("run(summary) error = %v", err)
	}
	for _, want := range []string{"COMMS", "EQUITIES", "FX", "RATES", "ALL", "Violations"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected summary to contain %q, got\n%s", want, out.String())
		}
	}
}

func TestRunSummaryJSONScopes(t *testing.T) {
	env := newTestEnv(t, "")
	var out bytes.Buffer
	if err := run(context.Background(), env.args("summary", "-o", "json"), &out, io.Discard); err != nil {
		t.Fatalf("run(summary) error = %v", err)
	}
	var overview app.OverviewView
	if err := json.Unmarshal(out.Bytes(), &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(overview.Areas) != 4 || overview.Summary.Counts.Total != 11 {
		t.Fatalf("unexpected overview %+v", overview.Summary)
	}

	out.Reset()
	if err := run(context.Background(), env.args("summary", "--area", "FX", "-o", "json"), &out, io.Discard); err != nil {
		t.Fatalf("run(summary --area) error = %v", err)
	}
	var area app.AreaView
	if err := json.Unmarshal(out.Bytes(), &area); err != nil {
		t.Fatalf("decode area: %v", err)
	}
	if len(area.Applications) != 2 {
		t.Fatalf("expected 2 FX apps, got %d", len(area.Applications))
	}

	out.Reset()
	if err := run(context.Background(), env.args("summary", "--area", "FX", "--app", "1FX"), &out, io.Discard); err != nil {
		t.Fatalf("run(summary --app) error = %v", err)
	}
	if !strings.Contains(out.String(), "1FX-01") || !strings.Contains(out.String(), "FX Trade Processing") {
		t.Fatalf("expected activity rows, got\n%s", out.String())
	}

	if err := run(context.Background(), env.args("summary", "--app", "1FX"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected --app without --area to fail")
	}
	if err := run(context.Background(), env.args("summary", "--area", "NOPE"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown area to fail")
	}
}

func TestRunTrendsIsDeterministicWithSeed(t *testing.T) {
	env := newTestEnv(t, seededTrendsConfig)
	var first, second bytes.Buffer
	if err := run(context.Background(), env.args("trends", "--area", "COMMS", "-o", "json"), &first, io.Discard); err != nil {
		t.Fatalf("run(trends) error = %v", err)
	}
	if err := run(context.Background(), env.args("trends", "--area", "COMMS", "-o", "json"), &second, io.Discard); err != nil {
		t.Fatalf("run(trends) error = %v", err)
	}
	if first.String() != second.String() {
		t.Fatal("expected identical series for the same seed")
	}
	var view app.TrendView
	if err := json.Unmarshal(first.Bytes(), &view); err != nil {
		t.Fatalf("decode trends: %v", err)
	}
	if len(view.Days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(view.Days))
	}
	if view.Days[0].Date != "2025-10-18" || view.Days[29].Date != "2025-11-16" {
		t.Fatalf("unexpected date range %s..%s", view.Days[0].Date, view.Days[29].Date)
	}
	if view.Title != "Historical Trends - COMMS" {
		t.Fatalf("unexpected title %q", view.Title)
	}
}

func TestRunTrendsActivityTextAndScopeErrors(t *testing.T) {
	env := newTestEnv(t, seededTrendsConfig)
	var out bytes.Buffer
	if err := run(context.Background(), env.args("trends", "--activity", "1FX-01", "-o", "json"), &out, io.Discard); err != nil {
		t.Fatalf("run(trends --activity) error = %v", err)
	}
	var view app.TrendView
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("decode trends: %v", err)
	}
	if view.Title != "Historical Trends - FX Trade Processing (1FX-01)" {
		t.Fatalf("unexpected activity title %q", view.Title)
	}
	for _, day := range view.Days {
		if day.Total > 1 {
			t.Fatalf("expected binary activity series, got %+v", day)
		}
	}

	out.Reset()
	if err := run(context.Background(), env.args("trends"), &out, io.Discard); err != nil {
		t.Fatalf("run(trends) error = %v", err)
	}
	if !strings.Contains(out.String(), "2025-11-16") {
		t.Fatalf("expected dated rows, got\n%s", out.String())
	}
	if err := run(context.Background(), env.args("trends", "--activity", "1FX-01", "--area", "FX"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected mixed scope to fail")
	}
	if err := run(context.Background(), env.args("trends", "--app", "1FX"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected app scope without area to fail")
	}
}

func TestRunExportWritesSnapshot(t *testing.T) {
	env := newTestEnv(t, "")
	outPath := filepath.Join(env.dir, "out", "snapshot.json")
	if err := run(context.Background(), env.args("export", "--out", outPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Version != app.SnapshotVersion || len(snap.Definitions) != 11 || len(snap.Statuses) != 11 {
		t.Fatalf("unexpected snapshot version=%q defs=%d statuses=%d", snap.Version, len(snap.Definitions), len(snap.Statuses))
	}

	var yamlOut bytes.Buffer
	if err := run(context.Background(), env.args("export", "--format", "yaml"), &yamlOut, io.Discard); err != nil {
		t.Fatalf("run(export yaml) error = %v", err)
	}
	if !strings.Contains(yamlOut.String(), "version: "+app.SnapshotVersion) {
		t.Fatalf("expected yaml snapshot, got %q", yamlOut.String())
	}
	if err := run(context.Background(), env.args("export", "--format", "xml"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestRunSeedThenReadFromSQLSource(t *testing.T) {
	env := newTestEnv(t, "")
	storePath := filepath.Join(env.dir, "store.db")
	var out bytes.Buffer
	if err := run(context.Background(), env.args("seed", "--driver", "sqlite", "--dsn", storePath), &out, io.Discard); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	if !strings.Contains(out.String(), "seeded 22 records into sql:sqlite") {
		t.Fatalf("unexpected seed output %q", out.String())
	}

	sqlEnv := newTestEnv(t, "[source]\nkind = \"sql\"\ndriver = \"sqlite\"\ndsn = \""+filepath.ToSlash(storePath)+"\"\n")
	out.Reset()
	if err := run(context.Background(), sqlEnv.args("summary", "-o", "json"), &out, io.Discard); err != nil {
		t.Fatalf("run(summary sql) error = %v", err)
	}
	var overview app.OverviewView
	if err := json.Unmarshal(out.Bytes(), &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if overview.Origin != "sql:sqlite" || overview.Summary.Counts.Total != 11 {
		t.Fatalf("unexpected sql overview origin=%q total=%d", overview.Origin, overview.Summary.Counts.Total)
	}
}

func TestRunSeedFromSnapshotFile(t *testing.T) {
	env := newTestEnv(t, "")
	snapPath := filepath.Join(env.dir, "snap.yaml")
	if err := run(context.Background(), env.args("export", "--format", "yaml", "--out", snapPath), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), env.args("seed", "--in", snapPath), &out, io.Discard); err != nil {
		t.Fatalf("run(seed --in) error = %v", err)
	}
	if !strings.Contains(out.String(), "seeded 22 records") {
		t.Fatalf("unexpected seed output %q", out.String())
	}
	if _, err := os.Stat(env.dbPath); err != nil {
		t.Fatalf("expected default sqlite store at db path: %v", err)
	}
}

func TestRunRemoteSourceFallsBackToBundled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	env := newTestEnv(t, "")
	var out bytes.Buffer
	if err := run(context.Background(), env.args("--source-url", srv.URL, "summary", "-o", "json"), &out, io.Discard); err != nil {
		t.Fatalf("run(summary remote) error = %v", err)
	}
	var overview app.OverviewView
	if err := json.Unmarshal(out.Bytes(), &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if !strings.Contains(overview.Origin, "bundled") || len(overview.Areas) != 4 {
		t.Fatalf("expected bundled fallback, got origin=%q areas=%d", overview.Origin, len(overview.Areas))
	}
}

func TestRunRemoteSourceWithoutFallbackFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	env := newTestEnv(t, "[source]\nkind = \"remote\"\nbase_url = \""+srv.URL+"\"\nfallback = false\n")
	if err := run(context.Background(), env.args("summary"), io.Discard, io.Discard); err == nil {
		t.Fatal("expected refresh failure without fallback")
	}
}

func TestRunServeWiresDependencies(t *testing.T) {
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })

	var (
		gotCfg  server.Config
		gotDeps server.Dependencies
	)
	serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
		gotCfg = cfg
		gotDeps = deps
		return nil
	}
	env := newTestEnv(t, "")
	if err := run(context.Background(), env.args("serve", "--bind", "127.0.0.1:0"), io.Discard, io.Discard); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if gotCfg.HTTPBind != "127.0.0.1:0" || gotCfg.APIEndpoint != "/api/v1" || gotCfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected serve config %+v", gotCfg)
	}
	if gotDeps.Reader == nil || gotDeps.Refresher == nil {
		t.Fatal("expected reader and refresher dependencies")
	}
	state, err := gotDeps.Reader.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if !state.Loaded {
		t.Fatal("expected the first refresh to load a snapshot before serving")
	}
}

func TestRunPathsCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"paths", "--app", "slaboard-test"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	for _, want := range []string{"app: slaboard-test", "dev_mode: false", "config:", "data_dir:", "db:"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in paths output, got %q", want, out.String())
		}
	}
}

func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	env := newTestEnv(t, "")
	t.Setenv("SLABOARD_CONFIG", env.cfgPath)
	t.Setenv("SLABOARD_DB_PATH", env.dbPath)
	if err := run(context.Background(), []string{"seed"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	if _, err := os.Stat(env.dbPath); err != nil {
		t.Fatalf("expected env db path to be used: %v", err)
	}
}

func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	env := newTestEnv(t, "[logging]\nlevel = \"verbose\"\n")
	err := run(context.Background(), env.args("summary"), io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "invalid logging.level") {
		t.Fatalf("expected logging level validation error, got %v", err)
	}
}

func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(tea.Model) program { return fakeProgram{} }

	workspace := t.TempDir()
	t.Chdir(workspace)
	env := newTestEnv(t, "")
	var stderr bytes.Buffer
	if err := run(context.Background(), env.args("--dev"), io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".slaboard", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var logPath string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			logPath = filepath.Join(logDir, entry.Name())
			break
		}
	}
	if logPath == "" {
		t.Fatalf("expected a .log file in %s", logDir)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "starting tui program loop") {
		t.Fatalf("expected tui lifecycle entries in log file, got %q", content)
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("SLABOARD_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("SLABOARD_TEST_BOOL"); !ok || !v {
		t.Fatalf("expected true, got %v %v", v, ok)
	}
	t.Setenv("SLABOARD_TEST_BOOL", "maybe")
	if _, ok := parseBoolEnv("SLABOARD_TEST_BOOL"); ok {
		t.Fatal("expected malformed value to be ignored")
	}
	t.Setenv("SLABOARD_TEST_BOOL", "")
	if _, ok := parseBoolEnv("SLABOARD_TEST_BOOL"); ok {
		t.Fatal("expected empty value to be ignored")
	}
}

func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "cmd", "slaboard")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); filepath.Clean(got) != filepath.Clean(root) {
		t.Fatalf("expected workspace root %q, got %q", root, got)
	}
}

func TestDevLogFilePathResolvesAgainstWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "internal", "tui")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	t.Chdir(nested)
	got, err := devLogFilePath(".slaboard/log", "slaboard", time.Date(2025, 11, 16, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	normalize := func(p string) string {
		return strings.TrimPrefix(filepath.Clean(p), "/private")
	}
	want := filepath.Join(root, ".slaboard", "log", "slaboard-20251116.log")
	if normalize(got) != normalize(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"":              "slaboard",
		" / ":           "slaboard",
		"sla board":     "sla-board",
		"team/slaboard": "team-slaboard",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("/tmp/slaboard.db").Logging
	logger, err := newRuntimeLogger(&console, "slaboard", false, cfg, func() time.Time {
		return time.Date(2025, 11, 16, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Fatalf("expected console log to include before/after, got %q", out)
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit 'during', got %q", out)
	}
	if logger.DevLogPath() != "" {
		t.Fatal("expected no dev log path outside dev mode")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
