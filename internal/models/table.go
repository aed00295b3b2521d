// Package models defines the tabular data passed between spreadsheet reading,
// duplicate analysis and export.
package models

import (
	"bytes"
	"encoding/json"
)

// Row maps a column name to its raw cell value. A missing key and an empty
// string both mean the cell is absent.
type Row map[string]string

// Value returns the cell under col and whether it is present and non-empty.
func (r Row) Value(col string) (string, bool) {
	v, ok := r[col]
	return v, ok && v != ""
}

// Table is an ordered set of columns and the rows read under them.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Record is a row bound to a column order. It encodes as a JSON object whose
// keys follow Columns; absent cells encode as null.
type Record struct {
	Columns []string
	Values  Row
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v, ok := r.Values.Value(col)
		if !ok {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
