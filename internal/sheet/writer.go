package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	headerFill   = "#4472C4"
	columnWidth  = 22
)

// WriteOptions controls the layout of an exported workbook.
type WriteOptions struct {
	// SheetName renames the single worksheet. Empty keeps excelize's default.
	SheetName string
	// RowFills holds an optional "#RRGGBB" background per data row.
	RowFills []string
}

func (o WriteOptions) fill(i int) string {
	if i < len(o.RowFills) {
		return o.RowFills[i]
	}
	return ""
}

// Write renders header and rows as a single-sheet xlsx workbook to w.
// Rows shorter than header are padded with empty cells.
func Write(w io.Writer, header []string, rows [][]string, opts WriteOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if opts.SheetName != "" && opts.SheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, opts.SheetName); err != nil {
			return fmt.Errorf("set sheet name: %w", err)
		}
		sheet = opts.SheetName
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}
	if len(header) > 0 {
		if err := sw.SetColWidth(1, len(header), columnWidth); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	styles := make(map[string]int)
	styleFor := func(fill string) (int, error) {
		if fill == "" {
			return 0, nil
		}
		if id, ok := styles[fill]; ok {
			return id, nil
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
		})
		if err != nil {
			return 0, err
		}
		styles[fill] = id
		return id, nil
	}

	cells := make([]interface{}, len(header))
	for j, h := range header {
		cells[j] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		style, err := styleFor(opts.fill(i))
		if err != nil {
			return fmt.Errorf("create row style: %w", err)
		}
		values := make([]interface{}, len(header))
		for j := range header {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			values[j] = excelize.Cell{StyleID: style, Value: v}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
