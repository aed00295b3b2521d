package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/duplo/internal/analysis"
	"github.com/hyperjump/duplo/internal/config"
	"github.com/hyperjump/duplo/internal/server"
	"github.com/hyperjump/duplo/internal/taskstore"
	"github.com/xuri/excelize/v2"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after file are moved first",
			args:     []string{"propostas.xlsx", "--out", "agrupado.xlsx"},
			expected: []string{"--out", "agrupado.xlsx", "propostas.xlsx"},
		},
		{
			name:     "flags first returns same order",
			args:     []string{"-output", "json", "propostas.xlsx"},
			expected: []string{"-output", "json", "propostas.xlsx"},
		},
		{
			name:     "boolean flag keeps next positional",
			args:     []string{"--force", "propostas.xlsx"},
			expected: []string{"--force", "propostas.xlsx"},
		},
		{
			name:     "empty args",
			args:     []string{},
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duplo.yaml")
	if err := os.WriteFile(path, []byte("analysis:\n  preview_rows: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path || cfg.Analysis.PreviewRows != 7 {
		t.Errorf("loadConfig(%s) = %+v, %s", path, cfg.Analysis, resolved)
	}
	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestLoadConfig_defaultPrefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || filepath.Base(resolved) != "config.yaml" {
		t.Errorf("expected ./config.yaml to be used, got %s", resolved)
	}
}

func writeProposals(t *testing.T, path string) {
	t.Helper()
	grid := [][]string{
		{"Exportado em 01/03"},
		{"Proposta", "Endereco", "Num", "Bairro", "Municipio", "Estado", "Zip", "Cliente"},
		{"1", "Rua do Sol", "100", "Centro", "Natal", "RN", "59000-000", "Ana"},
		{"2", "Av. Brasil", "9", "Lagoa", "Natal", "RN", "59010-000", "Beto"},
		{"3", "rua do sol", "100", "centro", "natal", "rn", "59000-000", "Caio"},
	}
	f := excelize.NewFile()
	defer f.Close()
	for i, cells := range grid {
		for j, v := range cells {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellStr("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestRunAnalyze_TextAndExport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	input := filepath.Join(dir, "propostas.xlsx")
	writeProposals(t, input)
	out := filepath.Join(dir, "agrupado.xlsx")

	var stdout bytes.Buffer
	if err := runAnalyze([]string{input, "--out", out}, &stdout); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Found 1 duplicate groups covering 2 rows") {
		t.Errorf("unexpected summary:\n%s", stdout.String())
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Análise de Endereços Agrupados")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][0] != "1" || rows[2][0] != "3" {
		t.Errorf("export rows = %v", rows)
	}
}

func TestRunAnalyze_JSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	input := filepath.Join(dir, "propostas.xlsx")
	writeProposals(t, input)

	var stdout bytes.Buffer
	if err := runAnalyze([]string{"--output", "json", input}, &stdout); err != nil {
		t.Fatal(err)
	}
	var resp struct {
		TotalGroups       int `json:"total_groups"`
		TotalGroupedItems int `json:"total_grouped_items"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout.String())
	}
	if resp.TotalGroups != 1 || resp.TotalGroupedItems != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRunAnalyze_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := runAnalyze(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected usage error without a file")
	}
	csv := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(csv, []byte("a,b"), 0600); err != nil {
		t.Fatal(err)
	}
	err := runAnalyze([]string{csv}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "Formato de arquivo inválido") {
		t.Errorf("expected format error, got %v", err)
	}
	if err := runAnalyze([]string{"--output", "yaml", csv}, &bytes.Buffer{}); err == nil {
		t.Error("expected output format error")
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var stdout bytes.Buffer
	if err := runInit([]string{"--out", path}, &stdout); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.SheetName != "Análise de Endereços Agrupados" {
		t.Errorf("sheet name = %q", cfg.Analysis.SheetName)
	}
	if err := runInit([]string{"--out", path}, &stdout); err == nil {
		t.Error("existing file should not be overwritten without --force")
	}
	if err := runInit([]string{"--out", path, "--force"}, &stdout); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}

type fakeWatch struct{ dirs []string }

func (f *fakeWatch) Directories() []string { return append([]string(nil), f.dirs...) }
func (f *fakeWatch) AddDirectory(path string, _ bool) error {
	f.dirs = append(f.dirs, path)
	return nil
}
func (f *fakeWatch) RemoveDirectory(path string) error {
	for i, d := range f.dirs {
		if d == path {
			f.dirs = append(f.dirs[:i], f.dirs[i+1:]...)
		}
	}
	return nil
}

func TestRunWatch(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	svc := analysis.NewService(taskstore.NewMemoryStore(0), serviceOptions(cfg), nil, nil)
	watch := &fakeWatch{}
	ts := httptest.NewServer(server.NewServer(svc, cfg, nil, server.WithWatch(watch, "")).Router())
	defer ts.Close()

	inbox := t.TempDir()
	var stdout bytes.Buffer
	if err := runWatch([]string{"add", inbox, "--server", ts.URL}, &stdout); err != nil {
		t.Fatal(err)
	}
	stdout.Reset()
	if err := runWatch([]string{"list", "--server", ts.URL}, &stdout); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout.String()) != inbox {
		t.Errorf("list = %q, want %q", stdout.String(), inbox)
	}
	if err := runWatch([]string{"remove", inbox, "--server", ts.URL}, &stdout); err != nil {
		t.Fatal(err)
	}
	if len(watch.dirs) != 0 {
		t.Errorf("dirs after remove = %v", watch.dirs)
	}
	if err := runWatch([]string{"add", filepath.Join(inbox, "missing"), "--server", ts.URL}, &stdout); err == nil {
		t.Error("adding a missing directory should fail")
	}
	if err := runWatch([]string{"rename"}, &stdout); err == nil {
		t.Error("unknown subcommand should fail")
	}
}

func TestRunStatus(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	svc := analysis.NewService(taskstore.NewMemoryStore(0), serviceOptions(cfg), nil, nil)
	ts := httptest.NewServer(server.NewServer(svc, cfg, nil).Router())
	defer ts.Close()

	var stdout bytes.Buffer
	if err := runStatus([]string{"--server", ts.URL}, &stdout); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Store:        memory (reachable), results kept 1h0m0s") {
		t.Errorf("unexpected status output:\n%s", stdout.String())
	}

	stdout.Reset()
	if err := runStatus([]string{"--server", ts.URL, "--output", "json"}, &stdout); err != nil {
		t.Fatal(err)
	}
	var status server.StatusResponse
	if err := json.Unmarshal(stdout.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Store != "memory" || status.HeaderRow != 2 {
		t.Errorf("status = %+v", status)
	}
}
