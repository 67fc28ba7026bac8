package models

import "strings"

// ColumnInfo describes a single column as reported by the datasource dialect.
// Instances are created once per schema load and never mutated.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableSchema describes a discovered table. The name may be schema-qualified
// with a "." separator (e.g. "staging.customers"); the qualifier is part of
// the identifier for matching purposes. A reload replaces the whole value.
type TableSchema struct {
	Name     string       `json:"name"`
	Columns  []ColumnInfo `json:"columns"`
	RowCount int64        `json:"row_count"`
}

// Column returns the column with the given name, matched case-insensitively.
func (t *TableSchema) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// HasColumn reports whether the table has a column with the given name.
func (t *TableSchema) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// BareTableName returns the last segment of a possibly schema-qualified
// table name ("staging.customers" -> "customers").
func BareTableName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// IsCompoundTableName reports whether the name carries a schema qualifier.
func IsCompoundTableName(name string) bool {
	return strings.Contains(name, ".")
}

// FindTable returns the table with the given name from a schema snapshot.
func FindTable(tables []TableSchema, name string) (*TableSchema, bool) {
	for i := range tables {
		if tables[i].Name == name {
			return &tables[i], true
		}
	}
	return nil, false
}
