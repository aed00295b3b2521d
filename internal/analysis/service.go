package analysis

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/duplo/internal/address"
	"github.com/hyperjump/duplo/internal/grouping"
	"github.com/hyperjump/duplo/internal/metrics"
	"github.com/hyperjump/duplo/internal/models"
	"github.com/hyperjump/duplo/internal/schema"
	"github.com/hyperjump/duplo/internal/sheet"
	"github.com/hyperjump/duplo/internal/taskid"
	"github.com/hyperjump/duplo/internal/taskstore"
	"go.uber.org/zap"
)

// Options tunes a Service.
type Options struct {
	PreviewRows         int
	HeaderRow           int
	TTL                 time.Duration
	DeleteAfterDownload bool
	SheetName           string
}

// Service analyzes spreadsheets and serves exports of the stored results.
type Service struct {
	store   taskstore.Store
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a service backed by store. logger and m may be nil.
func NewService(store taskstore.Store, opts Options, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		opts:    opts,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Download is a rendered export ready to be sent to a client.
type Download struct {
	Filename string
	Content  []byte
}

// AnalyzeFile reads an uploaded spreadsheet and analyzes it under a new task id.
func (s *Service) AnalyzeFile(ctx context.Context, filename string, content []byte) (*models.AnalyzeResponse, error) {
	return s.AnalyzeFileAs(ctx, taskid.New(), filename, content)
}

// AnalyzeFileAs is AnalyzeFile with a caller-chosen task id.
func (s *Service) AnalyzeFileAs(ctx context.Context, id, filename string, content []byte) (resp *models.AnalyzeResponse, err error) {
	start := s.now()
	defer func() { s.observeAnalysis(start, err) }()

	if strings.TrimSpace(filename) == "" {
		return nil, ErrEmptyFilename
	}
	format, err := sheet.FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	table, err := sheet.Read(content, format, sheet.ReadOptions{HeaderRow: s.opts.HeaderRow})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("spreadsheet read",
		zap.String("filename", filename),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", table.Len()),
	)
	return s.analyze(ctx, id, table)
}

// Analyze groups the rows of an already-read table under a new task id.
func (s *Service) Analyze(ctx context.Context, table *models.Table) (resp *models.AnalyzeResponse, err error) {
	start := s.now()
	defer func() { s.observeAnalysis(start, err) }()
	return s.analyze(ctx, taskid.New(), table)
}

func (s *Service) analyze(ctx context.Context, id string, table *models.Table) (*models.AnalyzeResponse, error) {
	if len(table.Columns) == 0 {
		return nil, ErrUnreadableHeaders
	}
	if table.Len() == 0 {
		return nil, ErrEmptySheet
	}

	mapping := schema.Reconcile(table.Columns)
	if err := mapping.Require(); err != nil {
		return nil, err
	}

	keys := make([]string, table.Len())
	for i, row := range table.Rows {
		keys[i] = address.Canonical(row, mapping)
	}
	res := grouping.Find(keys)
	proj := Project(table, res, s.opts.PreviewRows)

	var buf bytes.Buffer
	if err := models.WriteCSV(&buf, proj.Stored); err != nil {
		return nil, fmt.Errorf("serialize result: %w", err)
	}
	if err := s.store.Put(ctx, id, buf.Bytes(), s.opts.TTL); err != nil {
		s.storeError("put")
		return nil, fmt.Errorf("store result %s: %w", id, err)
	}

	s.observeRows(table.Len(), res)
	s.logger.Info("analysis complete",
		zap.String("task_id", id),
		zap.Int("rows", table.Len()),
		zap.Int("valid_rows", res.ValidRows),
		zap.Int("groups", len(res.Groups)),
		zap.Int("grouped_items", res.GroupedItems()),
	)

	return &models.AnalyzeResponse{
		TaskID:             id,
		PreviewData:        proj.Preview,
		TotalGroupedItems:  res.GroupedItems(),
		TotalGroups:        len(res.Groups),
		GroupColorsPresent: proj.ColorsPresent,
	}, nil
}

// Download renders the stored result for id as an xlsx workbook. Unless the
// service keeps results after download, the result is deleted once rendered.
func (s *Service) Download(ctx context.Context, id string) (dl *Download, err error) {
	defer func() {
		if s.metrics != nil {
			kind := "success"
			if err != nil {
				k, _ := Classify(err)
				kind = k.String()
			}
			s.metrics.Downloads.WithLabelValues(kind).Inc()
		}
	}()

	if !taskid.Valid(id) {
		return nil, fmt.Errorf("%w: %q", taskstore.ErrNotFound, id)
	}
	payload, err := s.store.Get(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			s.storeError("get")
		}
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}
	stored, err := models.ReadCSV(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}

	exp := Reproject(stored)
	var buf bytes.Buffer
	if err := sheet.Write(&buf, exp.Header, exp.Rows, sheet.WriteOptions{
		SheetName: s.opts.SheetName,
		RowFills:  exp.Fills(),
	}); err != nil {
		return nil, fmt.Errorf("render export %s: %w", id, err)
	}

	if s.opts.DeleteAfterDownload {
		if err := s.store.Delete(ctx, id); err != nil {
			s.storeError("delete")
			s.logger.Warn("failed to delete downloaded task", zap.String("task_id", id), zap.Error(err))
		}
	}
	s.logger.Info("export rendered", zap.String("task_id", id), zap.Int("rows", len(exp.Rows)))
	return &Download{Filename: taskid.ExportFilename(s.now()), Content: buf.Bytes()}, nil
}

// Discard removes the stored result for id, if any.
func (s *Service) Discard(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil && !isNotFound(err) {
		s.storeError("delete")
		return fmt.Errorf("discard result %s: %w", id, err)
	}
	return nil
}

// Ping reports whether the task store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) observeAnalysis(start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		k, _ := Classify(err)
		status = k.String()
	}
	s.metrics.Analyses.WithLabelValues(status).Inc()
	s.metrics.AnalysisSeconds.Observe(s.now().Sub(start).Seconds())
}

func (s *Service) observeRows(total int, res *grouping.Result) {
	if s.metrics == nil {
		return
	}
	grouped := res.GroupedItems()
	s.metrics.RowsProcessed.WithLabelValues(metrics.RowsGrouped).Add(float64(grouped))
	s.metrics.RowsProcessed.WithLabelValues(metrics.RowsUngrouped).Add(float64(res.ValidRows - grouped))
	s.metrics.RowsProcessed.WithLabelValues(metrics.RowsNoAddress).Add(float64(total - res.ValidRows))
	s.metrics.GroupsFound.Add(float64(len(res.Groups)))
}

func (s *Service) storeError(op string) {
	if s.metrics != nil {
		s.metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}

func isNotFound(err error) bool {
	k, _ := Classify(err)
	return k == KindNotFound
}
