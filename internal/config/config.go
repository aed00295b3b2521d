// Package config provides configuration loading and structs for the duplo server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	MaxUploadMB    int           `yaml:"max_upload_mb"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	// RateLimit is the sustained number of analyze requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// StoreConfig selects where analysis results are kept until downloaded.
type StoreConfig struct {
	Backend             string        `yaml:"backend"`
	TTL                 time.Duration `yaml:"ttl"`
	Capacity            int           `yaml:"capacity"`
	SQLitePath          string        `yaml:"sqlite_path"`
	PostgresDSN         string        `yaml:"postgres_dsn"`
	DeleteAfterDownload *bool         `yaml:"delete_after_download"`
}

// DeleteAfterDownloadOrDefault reports whether results are one-shot; defaults to true when unset.
func (s *StoreConfig) DeleteAfterDownloadOrDefault() bool {
	if s.DeleteAfterDownload != nil {
		return *s.DeleteAfterDownload
	}
	return true
}

// AnalysisConfig holds spreadsheet reading and result shaping settings.
type AnalysisConfig struct {
	PreviewRows int    `yaml:"preview_rows"`
	HeaderRow   int    `yaml:"header_row"`
	SheetName   string `yaml:"sheet_name"`
}

// WatchConfig holds inbox directory settings. Every spreadsheet dropped into
// Directories is analyzed and its grouped export written to OutputDir.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	OutputDir   string   `yaml:"output_dir"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults and
// environment overrides, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Store.SQLitePath = expandPath(cfg.Store.SQLitePath, configDir)
	cfg.Watch.OutputDir = expandPath(cfg.Watch.OutputDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
func Default() (*Config, error) {
	var cfg Config
	ApplyDefaults(&cfg)
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides settings from the environment: PORT, DUPLO_STORE_BACKEND,
// DUPLO_POSTGRES_DSN and DUPLO_TASK_TTL.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Server.Port = port
	}
	if v := getenv("DUPLO_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := getenv("DUPLO_POSTGRES_DSN"); v != "" {
		cfg.Store.PostgresDSN = v
	}
	if v := getenv("DUPLO_TASK_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("invalid DUPLO_TASK_TTL %q", v)
		}
		cfg.Store.TTL = ttl
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
