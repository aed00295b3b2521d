package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 1
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.TTL == 0 {
		cfg.Store.TTL = time.Hour
	}
	if cfg.Store.Capacity == 0 {
		cfg.Store.Capacity = 1000
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "/usr/local/var/duplo/tasks.db"
	}
	if cfg.Store.DeleteAfterDownload == nil {
		t := true
		cfg.Store.DeleteAfterDownload = &t
	}
	if cfg.Analysis.PreviewRows == 0 {
		cfg.Analysis.PreviewRows = 200
	}
	if cfg.Analysis.HeaderRow == 0 {
		cfg.Analysis.HeaderRow = 2
	}
	if cfg.Analysis.SheetName == "" {
		cfg.Analysis.SheetName = "Análise de Endereços Agrupados"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".xlsx", ".xls"}
	}
	if cfg.Watch.OutputDir == "" {
		cfg.Watch.OutputDir = "/usr/local/var/duplo/out"
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
