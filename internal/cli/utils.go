// Package cli provides output helpers for the duplo command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/duplo/internal/analysis"
	"github.com/hyperjump/duplo/internal/models"
	"github.com/hyperjump/duplo/pkg/utils"
)

// OutputFormat is the format for analysis summaries.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the same JSON the HTTP API returns.
	OutputJSON OutputFormat = "json"
)

const lineWidth = 120

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// WriteSummary writes an analysis result to w in the given format.
func WriteSummary(w io.Writer, resp *models.AnalyzeResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	writeSummaryText(w, resp)
	return nil
}

func writeSummaryText(w io.Writer, resp *models.AnalyzeResponse) {
	fmt.Fprintf(w, "\nTask %s\n", resp.TaskID)
	if resp.TotalGroups == 0 {
		fmt.Fprintln(w, "No duplicate addresses found.")
		return
	}
	fmt.Fprintf(w, "Found %d duplicate groups covering %d rows (colors: %s)\n\n",
		resp.TotalGroups, resp.TotalGroupedItems, strings.Join(resp.GroupColorsPresent, ", "))

	last := ""
	for _, rec := range resp.PreviewData {
		color := rec.Values[analysis.ColorColumn]
		if color != last {
			fmt.Fprintf(w, "── %s ──\n", color)
			last = color
		}
		fmt.Fprintf(w, "  %s\n", utils.Truncate(formatRecord(rec), lineWidth))
	}
	if shown := len(resp.PreviewData); shown < resp.TotalGroupedItems {
		fmt.Fprintf(w, "\n(%d of %d grouped rows shown)\n", shown, resp.TotalGroupedItems)
	}
}

// formatRecord joins the non-empty cells of rec, skipping the color column.
func formatRecord(rec models.Record) string {
	var cells []string
	for _, col := range rec.Columns {
		if col == analysis.ColorColumn {
			continue
		}
		if v, ok := rec.Values.Value(col); ok {
			cells = append(cells, v)
		}
	}
	return strings.Join(cells, " | ")
}
