// Package analysis runs the duplicate-address pipeline over a table and
// manages the stored results it produces.
package analysis

import (
	"github.com/hyperjump/duplo/internal/grouping"
	"github.com/hyperjump/duplo/internal/models"
)

// ColorColumn is appended to stored results and holds each row's group color.
const ColorColumn = "groupColor"

// Projection is the grouping result shaped for the caller and for storage.
type Projection struct {
	// Stored holds every grouped row, group by group, with ColorColumn set.
	Stored *models.Table
	// Preview is the head of Stored, capped at the preview size.
	Preview []models.Record
	// ColorsPresent lists the distinct group colors in first-seen order.
	ColorsPresent []string
}

// Project builds the stored dataset and the preview from a grouping result.
// Rows outside any group are dropped.
func Project(table *models.Table, res *grouping.Result, previewRows int) *Projection {
	columns := make([]string, 0, len(table.Columns)+1)
	for _, c := range table.Columns {
		if c != ColorColumn {
			columns = append(columns, c)
		}
	}
	columns = append(columns, ColorColumn)

	stored := &models.Table{Columns: columns, Rows: make([]models.Row, 0, res.GroupedItems())}
	for _, idx := range res.Ordered() {
		color, _ := res.ColorOf(idx)
		src := table.Rows[idx]
		row := make(models.Row, len(src)+1)
		for k, v := range src {
			row[k] = v
		}
		row[ColorColumn] = string(color)
		stored.Rows = append(stored.Rows, row)
	}

	n := len(stored.Rows)
	if previewRows >= 0 && n > previewRows {
		n = previewRows
	}
	preview := make([]models.Record, n)
	for i := 0; i < n; i++ {
		preview[i] = models.Record{Columns: columns, Values: stored.Rows[i]}
	}

	colors := make([]string, 0, len(grouping.Palette))
	for _, c := range res.ColorsPresent() {
		colors = append(colors, string(c))
	}

	return &Projection{Stored: stored, Preview: preview, ColorsPresent: colors}
}
