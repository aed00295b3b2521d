package sheet

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// maxXLSColumns is the BIFF8 column limit.
const maxXLSColumns = 256

// readXLS decodes a legacy BIFF workbook. The decoder panics on some
// malformed files, so panics are turned into ErrUnreadable.
func readXLS(content []byte) (grid [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid = nil
			err = fmt.Errorf("%w: decode xls: %v", ErrUnreadable, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: open xls: %w", ErrUnreadable, err)
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, nil
	}
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := rowAt(ws, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		width := row.LastCol()
		if width == 0 {
			// Rows built from cell records alone carry no extent.
			width = maxXLSColumns
		}
		cells := make([]string, 0, width)
		for j := 0; j < width; j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, trimTrailing(cells))
	}
	return grid, nil
}

// rowAt returns row i, or nil when the sheet holds nothing for it. Excel
// writes no ROW record for blank rows and WorkSheet.Row panics on those.
func rowAt(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}
