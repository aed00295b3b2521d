// Package main is the duplo CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/duplo/internal/analysis"
	"github.com/hyperjump/duplo/internal/config"
	"github.com/hyperjump/duplo/internal/metrics"
	"github.com/hyperjump/duplo/internal/server"
	"github.com/hyperjump/duplo/internal/taskstore"
	"github.com/hyperjump/duplo/internal/watcher"
	"github.com/hyperjump/duplo/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/duplo/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence, and when neither file exists the
// built-in defaults are used. Returns the config and the path actually loaded,
// empty when running on defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// serviceOptions maps configuration onto analysis.Options.
func serviceOptions(cfg *config.Config) analysis.Options {
	return analysis.Options{
		PreviewRows:         cfg.Analysis.PreviewRows,
		HeaderRow:           cfg.Analysis.HeaderRow,
		TTL:                 cfg.Store.TTL,
		DeleteAfterDownload: cfg.Store.DeleteAfterDownloadOrDefault(),
		SheetName:           cfg.Analysis.SheetName,
	}
}

func storeConfig(cfg *config.Config, logger *zap.Logger) taskstore.Config {
	return taskstore.Config{
		Backend:     taskstore.Backend(cfg.Store.Backend),
		Capacity:    cfg.Store.Capacity,
		SQLitePath:  cfg.Store.SQLitePath,
		PostgresDSN: cfg.Store.PostgresDSN,
		Logger:      logger,
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		if err := runAnalyze(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case "watch":
		if err := runWatch(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case "status":
		if err := runStatus(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case "init":
		if err := runInit(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("duplo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("store", cfg.Store.Backend),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := taskstore.New(ctx, storeConfig(cfg, logger))
	if err != nil {
		logger.Fatal("Failed to open task store", zap.Error(err))
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc := analysis.NewService(store, serviceOptions(cfg), logger, metrics.NewMetrics(reg))

	inbox := watcher.NewInbox(svc, cfg.Watch.OutputDir, logger)
	watchOpts := []watcher.Option{watcher.WithExclude(cfg.Watch.OutputDir)}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		inbox.OnFile(ctx),
		inbox.OnRemove(ctx),
		watchOpts...,
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.ScanExisting()

	srv := server.NewServer(svc, cfg, logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
		server.WithMetrics(reg),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	watchSvc.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func printUsage() {
	fmt.Println(`duplo - Duplicate address finder for proposal spreadsheets

Usage:
  duplo server [flags]            Start the HTTP server and inbox watcher
  duplo analyze [flags] <file>    Analyze a spreadsheet locally
  duplo watch <add|remove|list>   Manage inbox directories of a running server
  duplo status [flags]            Show the status of a running server
  duplo init [flags]              Write a config file with the default settings
  duplo version                   Show version
  duplo help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/duplo/config.yaml)
  --debug            Enable debug logging

Analyze Flags:
  --config string    Config file path
  --out string       Write the grouped export to this .xlsx file
  --output string    Summary format: text or json (default: text)

Watch Flags:
  --server string    Server URL (default: http://localhost:5001)

Status Flags:
  --server string    Server URL (default: http://localhost:5001)
  --output string    Output format: text or json (default: text)

Init Flags:
  --out string       Where to write the config (default: ./config.yaml)
  --force            Overwrite an existing file

Environment:
  PORT                 Overrides server.port
  DUPLO_STORE_BACKEND  Overrides store.backend (memory, sqlite, postgres)
  DUPLO_POSTGRES_DSN   Overrides store.postgres_dsn
  DUPLO_TASK_TTL       Overrides store.ttl (e.g. 30m)

Examples:
  duplo server
  duplo analyze propostas.xlsx
  duplo analyze --out agrupado.xlsx --output json propostas.xls
  duplo watch add ./inbox`)
}
