package schema

import (
	"fmt"
	"strings"
)

// Mapping resolves standard fields to the input column that carries them.
// Fields without a matching column are absent.
type Mapping map[Field]string

// Column returns the mapped column for f.
func (m Mapping) Column(f Field) (string, bool) {
	col, ok := m[f]
	return col, ok
}

// Missing returns the fields of want that have no column, preserving want's order.
func (m Mapping) Missing(want []Field) []Field {
	var missing []Field
	for _, f := range want {
		if _, ok := m[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// Require returns a *MissingFieldsError when any of RequiredFields is unmapped.
func (m Mapping) Require() error {
	if missing := m.Missing(RequiredFields); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Reconcile maps each standard field onto at most one of columns. A field's own
// display name is tried first, then its aliases in order. Column names are
// compared lower-cased with spaces removed; when two columns collapse to the
// same key the later one wins.
func Reconcile(columns []string) Mapping {
	lookup := make(map[string]string, len(columns))
	for _, col := range columns {
		lookup[normalizeName(col)] = col
	}

	mapping := make(Mapping)
	for _, f := range Fields() {
		if col, ok := lookup[normalizeName(f.Name())]; ok {
			mapping[f] = col
			continue
		}
		for _, alias := range specs[f].aliases {
			if col, ok := lookup[alias]; ok {
				mapping[f] = col
				break
			}
		}
	}
	return mapping
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}

// MissingFieldsError reports required fields that no column could be mapped to.
type MissingFieldsError struct {
	Fields []Field
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	examples := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name()
		examples[i] = fmt.Sprintf("%s (%s)", f.Name(), f.Example())
	}
	return fmt.Sprintf(
		"Colunas essenciais não encontradas ou não mapeadas corretamente: %s. Verifique se o arquivo contém colunas como: %s",
		strings.Join(names, ", "), strings.Join(examples, ", "),
	)
}
