package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/duplo/internal/analysis"
	"github.com/hyperjump/duplo/internal/models"
	"github.com/hyperjump/duplo/internal/taskid"
	"go.uber.org/zap"
)

// Analyzer is the part of analysis.Service an Inbox drives.
type Analyzer interface {
	AnalyzeFileAs(ctx context.Context, id, filename string, content []byte) (*models.AnalyzeResponse, error)
	Download(ctx context.Context, id string) (*analysis.Download, error)
	Discard(ctx context.Context, id string) error
}

// Inbox turns spreadsheets dropped into a watched directory into grouped
// exports written to an output directory.
type Inbox struct {
	analyzer  Analyzer
	outputDir string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewInbox creates an inbox writing exports to outputDir.
func NewInbox(a Analyzer, outputDir string, logger *zap.Logger) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{analyzer: a, outputDir: outputDir, timeout: 2 * time.Minute, logger: logger}
}

// OutputPath returns where the export for input is written.
func (b *Inbox) OutputPath(input string) string {
	return filepath.Join(b.outputDir, taskid.GroupedFilename(input))
}

// Process analyzes the spreadsheet at path and writes its grouped export.
func (b *Inbox) Process(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", abs, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	id := taskid.ForPath(abs)
	resp, err := b.analyzer.AnalyzeFileAs(ctx, id, filepath.Base(abs), content)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", abs, err)
	}
	dl, err := b.analyzer.Download(ctx, id)
	if err != nil {
		return fmt.Errorf("export %s: %w", abs, err)
	}

	out := b.OutputPath(abs)
	if err := writeFileAtomic(out, dl.Content); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	b.logger.Info("inbox file processed",
		zap.String("input", abs),
		zap.String("output", out),
		zap.Int("groups", resp.TotalGroups),
		zap.Int("grouped_items", resp.TotalGroupedItems),
	)
	return nil
}

// Forget drops the stored result and the export of a removed input.
func (b *Inbox) Forget(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := b.analyzer.Discard(ctx, taskid.ForPath(abs)); err != nil {
		return err
	}
	if err := os.Remove(b.OutputPath(abs)); err != nil && !os.IsNotExist(err) {
		return err
	}
	b.logger.Info("inbox file forgotten", zap.String("input", abs))
	return nil
}

// OnFile adapts Process to a Watcher callback, logging failures.
func (b *Inbox) OnFile(ctx context.Context) func(string) {
	return func(path string) {
		if err := b.Process(ctx, path); err != nil {
			kind, msg := analysis.Classify(err)
			b.logger.Warn("inbox file rejected",
				zap.String("path", path),
				zap.String("kind", kind.String()),
				zap.String("reason", msg),
				zap.Error(err),
			)
		}
	}
}

// OnRemove adapts Forget to a Watcher callback, logging failures.
func (b *Inbox) OnRemove(ctx context.Context) func(string) {
	return func(path string) {
		if err := b.Forget(ctx, path); err != nil {
			b.logger.Warn("inbox cleanup failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".duplo-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
