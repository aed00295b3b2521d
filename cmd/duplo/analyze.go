package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/duplo/internal/analysis"
	"github.com/hyperjump/duplo/internal/cli"
	"github.com/hyperjump/duplo/internal/taskstore"
	"github.com/hyperjump/duplo/pkg/utils"
	"go.uber.org/zap"
)

// valueFlags are the flags that consume the next argument.
var valueFlags = map[string]bool{
	"-config": true, "--config": true,
	"-out": true, "--out": true,
	"-output": true, "--output": true,
	"-server": true, "--server": true,
}

// argsReorder moves flags (and their values) that appear after positional
// arguments to the front, since flag.Parse stops at the first positional one.
func argsReorder(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) > 1 && a[0] == '-' {
			flags = append(flags, a)
			if valueFlags[a] && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positional = append(positional, a)
	}
	return append(flags, positional...)
}

// runAnalyze analyzes one spreadsheet against an in-memory store and prints
// the summary to stdout.
func runAnalyze(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	out := fs.String("out", "", "write the grouped export to this .xlsx file")
	output := fs.String("output", "text", "summary format: text or json")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: duplo analyze [flags] <file>")
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := zap.NewNop()
	if cfg.Debug {
		if logger, err = utils.NewLogger(true); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()
	}

	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	opts := serviceOptions(cfg)
	opts.DeleteAfterDownload = true
	svc := analysis.NewService(taskstore.NewMemoryStore(1), opts, logger, nil)

	ctx := context.Background()
	resp, err := svc.AnalyzeFile(ctx, filepath.Base(path), content)
	if err != nil {
		kind, msg := analysis.Classify(err)
		if kind == analysis.KindInternal {
			return err
		}
		logger.Debug("analysis rejected", zap.Error(err))
		return errors.New(msg)
	}
	if err := cli.WriteSummary(stdout, resp, format); err != nil {
		return err
	}

	if *out == "" {
		return nil
	}
	dl, err := svc.Download(ctx, resp.TaskID)
	if err != nil {
		return fmt.Errorf("failed to render export: %w", err)
	}
	if err := os.WriteFile(*out, dl.Content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	if format == cli.OutputText {
		fmt.Fprintf(stdout, "\nExport written to %s\n", *out)
	}
	return nil
}
