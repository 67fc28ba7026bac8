package models

import "sort"

// SelectionState classifies one observed value of a field relative to the
// current selection set. Every (field, value) pair has exactly one state.
type SelectionState string

const (
	StateSelected    SelectionState = "selected"    // value is part of an active selection
	StatePossible    SelectionState = "possible"    // reachable under current filters
	StateAlternative SelectionState = "alternative" // same field as a selection, not selected
	StateExcluded    SelectionState = "excluded"    // not reachable under current filters
)

// FieldSelection is the user's current filter on one field. Values are
// indexed by canonical key (ValueKey) with the original scalar retained,
// giving set semantics that survive duplicate timestamp instances.
// A schema holds at most one FieldSelection per (table, column); an empty
// selection is removed, never persisted.
type FieldSelection struct {
	Table  string         `json:"table"`
	Column string         `json:"column"`
	Values map[string]any `json:"values"`
}

// NewFieldSelection builds a selection over the given values.
func NewFieldSelection(table, column string, values ...any) *FieldSelection {
	s := &FieldSelection{Table: table, Column: column, Values: make(map[string]any, len(values))}
	for _, v := range values {
		s.Values[ValueKey(v)] = v
	}
	return s
}

// Add inserts a value into the selection.
func (s *FieldSelection) Add(v any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[ValueKey(v)] = v
}

// Remove drops a value from the selection.
func (s *FieldSelection) Remove(v any) {
	delete(s.Values, ValueKey(v))
}

// Has reports whether the selection contains the value.
func (s *FieldSelection) Has(v any) bool {
	_, ok := s.Values[ValueKey(v)]
	return ok
}

// HasKey reports whether the selection contains a value with the canonical key.
func (s *FieldSelection) HasKey(key string) bool {
	_, ok := s.Values[key]
	return ok
}

// Len returns the number of selected values.
func (s *FieldSelection) Len() int {
	return len(s.Values)
}

// SortedKeys returns the canonical keys in lexicographic order. Used
// wherever deterministic iteration matters (SQL rendering, tests).
func (s *FieldSelection) SortedKeys() []string {
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedValues returns the original scalar values ordered by canonical key.
func (s *FieldSelection) SortedValues() []any {
	keys := s.SortedKeys()
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = s.Values[k]
	}
	return values
}

// Clone returns a deep copy of the selection.
func (s *FieldSelection) Clone() *FieldSelection {
	c := &FieldSelection{Table: s.Table, Column: s.Column, Values: make(map[string]any, len(s.Values))}
	for k, v := range s.Values {
		c.Values[k] = v
	}
	return c
}

// ColumnSelection identifies a single output column of a (possibly
// multi-table) projection.
type ColumnSelection struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// FieldState is the classification of every observed value of one field.
// It is recomputed wholesale whenever the global selection set changes.
type FieldState struct {
	Table       string                    `json:"table"`
	Column      string                    `json:"column"`
	ValueStates map[string]SelectionState `json:"value_states"`
}

// FindSelection returns the selection on (table, column), or nil.
func FindSelection(selections []*FieldSelection, table, column string) *FieldSelection {
	for _, s := range selections {
		if s.Table == table && s.Column == column {
			return s
		}
	}
	return nil
}

// SelectionsByTable groups non-empty selections by owning table.
func SelectionsByTable(selections []*FieldSelection) map[string][]*FieldSelection {
	grouped := make(map[string][]*FieldSelection)
	for _, s := range selections {
		if s == nil || s.Len() == 0 {
			continue
		}
		grouped[s.Table] = append(grouped[s.Table], s)
	}
	return grouped
}
