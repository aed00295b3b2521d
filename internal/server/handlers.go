package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/duplo/internal/analysis"
	"github.com/hyperjump/duplo/internal/config"
	"github.com/hyperjump/duplo/internal/models"
	"github.com/hyperjump/duplo/internal/taskstore"
	"go.uber.org/zap"
)

const (
	msgNoFile          = "Nenhum arquivo enviado"
	msgTooLarge        = "Arquivo excede o tamanho máximo permitido"
	msgTooManyRequests = "Muitas requisições. Tente novamente em instantes."
	msgInvalidBody     = "Corpo da requisição inválido"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.config.Server.MaxUploadMB) << 20
	if r.ContentLength > limit {
		s.respondError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		s.respondError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part sent with filename="" is parsed as a plain form value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			s.respondFailure(w, analysis.ErrEmptyFilename)
			return
		}
		s.respondError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.logger.Debug("analyze request", zap.String("filename", header.Filename), zap.Int("bytes", len(content)))

	resp, err := s.analyzer.AnalyzeFile(r.Context(), header.Filename, content)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	dl, err := s.analyzer.Download(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(dl.Content); err != nil {
		s.logger.Debug("download write failed", zap.String("task_id", id), zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.analyzer.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse describes the running configuration.
type StatusResponse struct {
	Store          string   `json:"store"`
	StoreReachable bool     `json:"store_reachable"`
	TaskTTL        string   `json:"task_ttl"`
	PreviewRows    int      `json:"preview_rows"`
	HeaderRow      int      `json:"header_row"`
	MaxUploadMB    int      `json:"max_upload_mb"`
	Watching       []string `json:"watching"`
	OutputDir      string   `json:"output_dir,omitempty"`
	DiskUsageBytes int64    `json:"disk_usage_bytes"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.config
	resp := StatusResponse{
		Store:          cfg.Store.Backend,
		StoreReachable: s.analyzer.Ping(r.Context()) == nil,
		TaskTTL:        cfg.Store.TTL.String(),
		PreviewRows:    cfg.Analysis.PreviewRows,
		HeaderRow:      cfg.Analysis.HeaderRow,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		Watching:       []string{},
	}
	var paths []string
	if cfg.Store.Backend == string(taskstore.BackendSQLite) {
		paths = taskstore.SQLiteFiles(cfg.Store.SQLitePath)
	}
	if s.watch != nil {
		resp.Watching = s.watch.Directories()
		resp.OutputDir = cfg.Watch.OutputDir
		paths = append(paths, cfg.Watch.OutputDir)
	}
	usage, err := taskstore.DiskUsage(paths...)
	if err != nil {
		s.logger.Debug("status: disk usage failed", zap.Error(err))
	}
	resp.DiskUsageBytes = usage
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Scan *bool  `json:"scan,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondFailure(w, err)
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	scan := true
	if req.Scan != nil {
		scan = *req.Scan
	}
	if err := s.watch.AddDirectory(abs, scan); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// respondFailure maps err to a status code and a message safe to show a user.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	kind, msg := analysis.Classify(err)
	status := http.StatusInternalServerError
	switch kind {
	case analysis.KindInvalid:
		status = http.StatusBadRequest
		s.logger.Debug("request rejected", zap.Error(err))
	case analysis.KindNotFound:
		status = http.StatusNotFound
		s.logger.Debug("task not found", zap.Error(err))
	case analysis.KindUnavailable:
		status = http.StatusServiceUnavailable
		s.logger.Warn("store unavailable", zap.Error(err))
	default:
		s.logger.Error("request failed", zap.Error(err))
	}
	s.respondError(w, status, msg)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("response encode failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Message: message})
}
