// Package sheet reads spreadsheets into tables and writes tables back out as xlsx.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/duplo/internal/models"
)

// Format identifies a supported spreadsheet container.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	// ErrUnsupportedFormat is returned for file names without a known extension.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrUnreadable wraps any failure to decode the workbook itself.
	ErrUnreadable = errors.New("unreadable spreadsheet")
)

// FormatFromFilename picks the format from the file extension, case-insensitively.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// ReadOptions controls how the first worksheet is turned into a table.
type ReadOptions struct {
	// HeaderRow is the 1-based row holding column names. Rows above it are
	// skipped. Zero means 1.
	HeaderRow int
}

// Read decodes the first worksheet of content. Rows after the header row
// become table rows; rows with no non-empty cell are dropped. The returned
// table has no columns when the header row is missing or blank.
func Read(content []byte, format Format, opts ReadOptions) (*models.Table, error) {
	var (
		grid [][]string
		err  error
	)
	switch format {
	case FormatXLSX:
		grid, err = readXLSX(content)
	case FormatXLS:
		grid, err = readXLS(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return buildTable(grid, opts.HeaderRow), nil
}

func buildTable(grid [][]string, headerRow int) *models.Table {
	if headerRow <= 0 {
		headerRow = 1
	}
	table := &models.Table{Columns: []string{}, Rows: []models.Row{}}
	if len(grid) < headerRow || blank(grid[headerRow-1]) {
		return table
	}
	header := grid[headerRow-1]
	data := grid[headerRow:]

	width := len(header)
	for _, cells := range data {
		if len(cells) > width {
			width = len(cells)
		}
	}
	table.Columns = columnNames(header, width)

	for _, cells := range data {
		if blank(cells) {
			continue
		}
		row := make(models.Row, len(cells))
		for j, v := range cells {
			if v != "" {
				row[table.Columns[j]] = v
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// columnNames labels unnamed header cells "Unnamed: <index>" and suffixes
// repeated names with ".1", ".2", ...
func columnNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	suffix := make(map[string]int)
	for j := 0; j < width; j++ {
		name := ""
		if j < len(header) {
			name = strings.TrimSpace(header[j])
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(j)
		}
		if used[name] {
			base := name
			for used[name] {
				suffix[base]++
				name = base + "." + strconv.Itoa(suffix[base])
			}
		}
		used[name] = true
		names[j] = name
	}
	return names
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
