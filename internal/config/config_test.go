package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
store:
  backend: sqlite
  ttl: 30m
  sqlite_path: "tasks.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || (os.Getenv("PORT") == "" && cfg.Server.Port != 9000) {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Store.TTL != 30*time.Minute {
		t.Errorf("ttl = %v, want 30m", cfg.Store.TTL)
	}
	if !filepath.IsAbs(cfg.Store.SQLitePath) {
		t.Errorf("sqlite_path should be absolute: %s", cfg.Store.SQLitePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  sqlite_path: "./data/tasks.db"
watch:
  directories: ["./inbox"]
  output_dir: "./out"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "tasks.db"); cfg.Store.SQLitePath != want {
		t.Errorf("sqlite_path = %s, want %s", cfg.Store.SQLitePath, want)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
	if want := filepath.Join(dir, "out"); cfg.Watch.OutputDir != want {
		t.Errorf("output_dir = %s, want %s", cfg.Watch.OutputDir, want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 5001 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "memory" || cfg.Store.TTL != time.Hour {
		t.Errorf("default store: %+v", cfg.Store)
	}
	if !cfg.Store.DeleteAfterDownloadOrDefault() {
		t.Error("results should be one-shot by default")
	}
	if cfg.Analysis.PreviewRows != 200 || cfg.Analysis.HeaderRow != 2 {
		t.Errorf("default analysis: %+v", cfg.Analysis)
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[0] != ".xlsx" || cfg.Watch.Extensions[1] != ".xls" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Server.RateBurst != 0 {
		t.Errorf("burst should stay zero when rate limiting is off")
	}
}

func TestApplyDefaults_KeepsExplicitFalse(t *testing.T) {
	f := false
	cfg := &Config{Store: StoreConfig{DeleteAfterDownload: &f}}
	ApplyDefaults(cfg)
	if cfg.Store.DeleteAfterDownloadOrDefault() {
		t.Error("explicit delete_after_download: false must be kept")
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/inbox"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                "8081",
		"DUPLO_STORE_BACKEND": "postgres",
		"DUPLO_POSTGRES_DSN":  "postgres://u:p@db/duplo",
		"DUPLO_TASK_TTL":      "90m",
	}
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8081 || cfg.Store.Backend != "postgres" || cfg.Store.PostgresDSN != env["DUPLO_POSTGRES_DSN"] {
		t.Errorf("env not applied: %+v %+v", cfg.Server, cfg.Store)
	}
	if cfg.Store.TTL != 90*time.Minute {
		t.Errorf("ttl = %v", cfg.Store.TTL)
	}

	if err := ApplyEnv(cfg, func(k string) string {
		if k == "PORT" {
			return "http"
		}
		return ""
	}); err == nil {
		t.Error("expected error for invalid PORT")
	}

	before := *cfg
	if err := ApplyEnv(cfg, noEnv); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != before.Server.Port {
		t.Error("empty environment should change nothing")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etc", "saved.yaml")
	cfg := &Config{
		Server: ServerConfig{Host: "localhost", Port: 9090},
		Store:  StoreConfig{Backend: "sqlite", TTL: 2 * time.Hour},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if os.Getenv("PORT") == "" && loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Store.TTL != 2*time.Hour {
		t.Errorf("loaded ttl: got %v", loaded.Store.TTL)
	}
}
