package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type SourceKind string

const (
	SourceBundled SourceKind = "bundled"
	SourceRemote  SourceKind = "remote"
	SourceSQL     SourceKind = "sql"
)

const referenceDateLayout = "2006-01-02"

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Source   SourceConfig   `toml:"source"`
	Trends   TrendsConfig   `toml:"trends"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	UI       UIConfig       `toml:"ui"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type SourceConfig struct {
	Kind           SourceKind `toml:"kind"`
	BaseURL        string     `toml:"base_url"`
	TimeoutSeconds int        `toml:"timeout_seconds"`
	Fallback       bool       `toml:"fallback"`
	Driver         string     `toml:"driver"` // sqlite | mysql
	DSN            string     `toml:"dsn"`
}

type TrendsConfig struct {
	ReferenceDate string `toml:"reference_date"`
	HorizonDays   int    `toml:"horizon_days"`
	Seed          uint64 `toml:"seed"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type UIConfig struct {
	DoubleClickMillis      int  `toml:"double_click_ms"`
	ShowDetailPanel        bool `toml:"show_detail_panel"`
	RefreshIntervalSeconds int  `toml:"refresh_interval_seconds"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Source: SourceConfig{
			Kind:           SourceBundled,
			TimeoutSeconds: 10,
			Fallback:       true,
			Driver:         "sqlite",
		},
		Trends: TrendsConfig{
			HorizonDays: 30,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".slaboard/log",
			},
		},
		UI: UIConfig{
			DoubleClickMillis: 400,
			ShowDetailPanel:   true,
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	switch SourceKind(strings.ToLower(strings.TrimSpace(string(c.Source.Kind)))) {
	case SourceBundled:
	case SourceRemote:
		raw := strings.TrimSpace(c.Source.BaseURL)
		if raw == "" {
			return errors.New("source.base_url is required for remote sources")
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid source.base_url: %q", c.Source.BaseURL)
		}
	case SourceSQL:
		switch strings.ToLower(strings.TrimSpace(c.Source.Driver)) {
		case "sqlite":
		case "mysql":
			if strings.TrimSpace(c.Source.DSN) == "" {
				return errors.New("source.dsn is required for the mysql driver")
			}
		default:
			return fmt.Errorf("invalid source.driver: %q", c.Source.Driver)
		}
	default:
		return fmt.Errorf("invalid source.kind: %q", c.Source.Kind)
	}
	if c.Source.TimeoutSeconds < 0 {
		return errors.New("source.timeout_seconds must be >= 0")
	}

	if _, err := c.ReferenceDate(); err != nil {
		return err
	}
	if c.Trends.HorizonDays < 0 {
		return errors.New("trends.horizon_days must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.UI.DoubleClickMillis < 0 {
		return errors.New("ui.double_click_ms must be >= 0")
	}
	if c.UI.RefreshIntervalSeconds < 0 {
		return errors.New("ui.refresh_interval_seconds must be >= 0")
	}
	return nil
}

// ReferenceDate returns the configured trend anchor, or the zero time when unset.
func (c Config) ReferenceDate() (time.Time, error) {
	raw := strings.TrimSpace(c.Trends.ReferenceDate)
	if raw == "" {
		return time.Time{}, nil
	}
	ref, err := time.ParseInLocation(referenceDateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid trends.reference_date %q: %w", raw, err)
	}
	return ref, nil
}

func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

func (c Config) DoubleClickWindow() time.Duration {
	return time.Duration(c.UI.DoubleClickMillis) * time.Millisecond
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshIntervalSeconds) * time.Second
}

// SQLDSN resolves the sql source DSN, defaulting sqlite to the database path.
func (c Config) SQLDSN() string {
	if dsn := strings.TrimSpace(c.Source.DSN); dsn != "" {
		return dsn
	}
	if strings.EqualFold(strings.TrimSpace(c.Source.Driver), "sqlite") {
		return c.Database.Path
	}
	return ""
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
