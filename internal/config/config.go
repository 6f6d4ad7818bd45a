package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server and CLI configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Timer     TimerConfig     `yaml:"timer"`
	Goals     GoalsConfig     `yaml:"goals"`
	Time      TimeConfig      `yaml:"time"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TransportConfig selects how the MCP server is exposed: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// Owner is used for every request when auth is disabled.
	Owner string `yaml:"owner"`
}

type TimerConfig struct {
	DefaultDuration int           `yaml:"default_duration"`
	MinDuration     int           `yaml:"min_duration"`
	MaxDuration     int           `yaml:"max_duration"`
	StartPolicy     string        `yaml:"start_policy"`
	CommitTimeout   time.Duration `yaml:"commit_timeout"`
	SnapshotPath    string        `yaml:"snapshot_path"`
}

type GoalsConfig struct {
	DefaultMinutes int `yaml:"default_minutes"`
	MinMinutes     int `yaml:"min_minutes"`
	MaxMinutes     int `yaml:"max_minutes"`
}

type TimeConfig struct {
	Zone string `yaml:"zone"`
}

// Location resolves the configured IANA zone, falling back to the local zone.
func (c TimeConfig) Location() (*time.Location, error) {
	if c.Zone == "" || c.Zone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Zone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.Zone, err)
	}
	return loc, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "timeflow.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Owner: "local",
		},
		Timer: TimerConfig{
			DefaultDuration: 25,
			MinDuration:     1,
			MaxDuration:     240,
			StartPolicy:     "reject",
			CommitTimeout:   10 * time.Second,
			SnapshotPath:    "timeflow-timer.json",
		},
		Goals: GoalsConfig{
			DefaultMinutes: 60,
			MinMinutes:     1,
			MaxMinutes:     1440,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TIMEFLOW_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("TIMEFLOW_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TIMEFLOW_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIMEFLOW_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("TIMEFLOW_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("TIMEFLOW_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("TIMEFLOW_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("TIMEFLOW_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIMEFLOW_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if owner := os.Getenv("TIMEFLOW_OWNER"); owner != "" {
		cfg.Auth.Owner = owner
	}
	if zone := os.Getenv("TIMEFLOW_TIMEZONE"); zone != "" {
		cfg.Time.Zone = zone
	}
	if path := os.Getenv("TIMEFLOW_SNAPSHOT_PATH"); path != "" {
		cfg.Timer.SnapshotPath = path
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the timer and goal logic cannot honor.
func (c Config) Validate() error {
	t := c.Timer
	if t.MinDuration < 1 || t.MaxDuration < t.MinDuration {
		return fmt.Errorf("invalid timer duration bounds %d..%d", t.MinDuration, t.MaxDuration)
	}
	if t.DefaultDuration < t.MinDuration || t.DefaultDuration > t.MaxDuration {
		return fmt.Errorf("timer default_duration %d outside %d..%d", t.DefaultDuration, t.MinDuration, t.MaxDuration)
	}
	switch t.StartPolicy {
	case "reject", "reset":
	default:
		return fmt.Errorf("invalid timer start_policy %q", t.StartPolicy)
	}
	if t.CommitTimeout <= 0 {
		return fmt.Errorf("timer commit_timeout must be positive")
	}
	g := c.Goals
	if g.MinMinutes < 1 || g.MaxMinutes > 1440 || g.MinMinutes > g.MaxMinutes {
		return fmt.Errorf("invalid goal bounds %d..%d", g.MinMinutes, g.MaxMinutes)
	}
	if g.DefaultMinutes < g.MinMinutes || g.DefaultMinutes > g.MaxMinutes {
		return fmt.Errorf("goals default_minutes %d outside %d..%d", g.DefaultMinutes, g.MinMinutes, g.MaxMinutes)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if _, err := c.Time.Location(); err != nil {
		return err
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
