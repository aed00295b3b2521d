package address

import (
	"strings"

	"github.com/hyperjump/duplo/internal/schema"
)

// Canonical builds the canonical address of one row: the normalized values of
// the address fields, in schema.AddressFields order, joined by single spaces.
// Unmapped, empty and fully-stripped fields are skipped.
func Canonical(row map[string]string, mapping schema.Mapping) string {
	parts := make([]string, 0, len(schema.AddressFields))
	for _, f := range schema.AddressFields {
		col, ok := mapping[f]
		if !ok {
			continue
		}
		raw, ok := row[col]
		if !ok || raw == "" {
			continue
		}
		if v := Normalize(raw); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
