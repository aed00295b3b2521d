package analysis

import (
	"github.com/hyperjump/duplo/internal/grouping"
	"github.com/hyperjump/duplo/internal/models"
	"github.com/hyperjump/duplo/internal/schema"
)

// Export is a stored result laid out in schema.OutputOrder.
type Export struct {
	Header []string
	Rows   [][]string
	// Colors[i] is the group color of Rows[i].
	Colors []grouping.Color
}

// Fills returns the background color of each row for the spreadsheet writer.
func (e *Export) Fills() []string {
	fills := make([]string, len(e.Colors))
	for i, c := range e.Colors {
		fills[i] = c.Fill()
	}
	return fills
}

// Reproject re-keys a stored dataset onto the fixed output columns. Each
// field takes the value of its reconciled column, else of a column carrying
// the field's own name, else stays empty. Rows whose stored color is not a
// palette label are exported without a color.
func Reproject(stored *models.Table) *Export {
	mapping := schema.Reconcile(stored.Columns)
	colored := stored.HasColumn(ColorColumn)
	exp := &Export{
		Header: schema.OutputHeader(),
		Rows:   make([][]string, 0, stored.Len()),
		Colors: make([]grouping.Color, 0, stored.Len()),
	}
	for _, row := range stored.Rows {
		out := make([]string, len(schema.OutputOrder))
		for i, f := range schema.OutputOrder {
			if col, ok := mapping.Column(f); ok {
				out[i] = row[col]
			} else {
				out[i] = row[f.Name()]
			}
		}
		exp.Rows = append(exp.Rows, out)
		var color grouping.Color
		if colored {
			if c, ok := grouping.ParseColor(row[ColorColumn]); ok {
				color = c
			}
		}
		exp.Colors = append(exp.Colors, color)
	}
	return exp
}
